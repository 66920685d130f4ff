// internal/roster/cache.go
//
// The roster cache is the single in-memory source of truth for employee
// records on a page. It is deliberately dumb: insertion-ordered, id-unique,
// no sorting, no locking. The mutation coordinator owns the only writable
// reference; views read snapshots and derive everything else.

package roster

import "github.com/kingrea/onboard/internal/employee"

// Cache holds every known employee record, one per id, in load/insertion
// order.
type Cache struct {
	order []string
	byID  map[string]employee.Employee
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byID: map[string]employee.Employee{}}
}

// Load replaces the entire cache contents with the given records, keeping
// their order. An empty or nil slice yields an empty cache. Later duplicates
// of an id replace earlier ones in place.
func (c *Cache) Load(records []employee.Employee) {
	c.order = c.order[:0]
	c.byID = make(map[string]employee.Employee, len(records))
	for _, rec := range records {
		c.Upsert(rec)
	}
}

// Upsert inserts a record, or replaces the existing record with the same id
// in place so its relative display position is preserved.
func (c *Cache) Upsert(rec employee.Employee) {
	if _, exists := c.byID[rec.ID]; !exists {
		c.order = append(c.order, rec.ID)
	}
	c.byID[rec.ID] = rec
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op.
func (c *Cache) Remove(id string) {
	if _, exists := c.byID[id]; !exists {
		return
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Get returns the record with the given id.
func (c *Cache) Get(id string) (employee.Employee, bool) {
	rec, ok := c.byID[id]
	return rec, ok
}

// All returns the records in insertion/load order. The slice is a copy;
// callers may sort or filter it freely.
func (c *Cache) All() []employee.Employee {
	out := make([]employee.Employee, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len reports the number of cached records.
func (c *Cache) Len() int {
	return len(c.order)
}
