// Package handles maps Go values to jlong tokens that managed code can hold.
//
// Managed objects that wrap native state keep a "native pointer" in a long
// field and pass it back on every native callback. Go pointers must not be
// stored in managed memory, so the bridge hands out tokens from this table
// instead and resolves them again on the managed->native path.
package handles

import (
	"sync"
	"sync/atomic"
)

// Table is a concurrency-safe token table. The zero Table is ready to use.
type Table struct {
	values sync.Map // int64 -> any
	next   atomic.Int64
	live   atomic.Int64
}

// Register stores v and returns its token. Tokens are never zero, so a zero
// long field on the managed side always means "no native peer".
func (t *Table) Register(v any) int64 {
	id := t.next.Add(1)
	t.values.Store(id, v)
	t.live.Add(1)
	return id
}

// Lookup returns the value registered under id.
func (t *Table) Lookup(id int64) (any, bool) {
	if id == 0 {
		return nil, false
	}
	return t.values.Load(id)
}

// Release forgets id. It reports whether id was registered, so a second
// release of the same token is a harmless no-op.
func (t *Table) Release(id int64) bool {
	if _, ok := t.values.LoadAndDelete(id); ok {
		t.live.Add(-1)
		return true
	}
	return false
}

// Len returns the number of registered tokens.
func (t *Table) Len() int {
	return int(t.live.Load())
}

var defaultTable Table

// Register stores v in the process-wide table.
func Register(v any) int64 { return defaultTable.Register(v) }

// Lookup resolves a token from the process-wide table.
func Lookup(id int64) (any, bool) { return defaultTable.Lookup(id) }

// Release removes a token from the process-wide table.
func Release(id int64) bool { return defaultTable.Release(id) }

// Count returns the number of tokens in the process-wide table.
// Useful for leak checks in tests.
func Count() int { return defaultTable.Len() }
