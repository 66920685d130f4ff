// cmd/onboard-server/main.go
//
// Reference employee API server. Backs the console with a SQLite store and
// cookie sessions; seeds a small sample roster on first run.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kingrea/onboard/internal/logbook"
	"github.com/kingrea/onboard/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	dbPath := flag.String("db", "onboard.db", "path to the SQLite database")
	logPath := flag.String("log", "", "path to the server log (defaults to <db dir>/onboard-server.log)")
	username := flag.String("username", "admin", "admin username")
	seed := flag.Bool("seed", true, "seed sample employees when the database is empty")
	flag.Parse()

	password := os.Getenv("ONBOARD_ADMIN_PASSWORD")
	if password == "" {
		die("ONBOARD_ADMIN_PASSWORD must be set")
	}

	logFile := *logPath
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(*dbPath), "onboard-server.log")
	}
	lb, err := logbook.New(logFile)
	if err != nil {
		die("open log: %v", err)
	}

	db, err := server.OpenDB(*dbPath)
	if err != nil {
		die("open database: %v", err)
	}
	defer db.Close()

	store := server.NewStore(db)
	if *seed {
		if err := store.Seed(context.Background()); err != nil {
			die("seed database: %v", err)
		}
	}

	creds, err := server.NewCredentials(*username, password)
	if err != nil {
		die("prepare credentials: %v", err)
	}

	srv := server.New(*addr, store, creds, server.WithLogbook(lb))
	if err := srv.Start(context.Background()); err != nil {
		die("start server: %v", err)
	}
	fmt.Printf("onboard-server listening on %s (db: %s)\n", srv.Addr(), *dbPath)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		die("shutdown: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "onboard-server: "+format+"\n", args...)
	os.Exit(1)
}
