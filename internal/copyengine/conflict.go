package copyengine

import (
	"fmt"

	"github.com/google/uuid"
)

// nameSet holds the unique keys (role name, entity slug, "METHOD path"
// route, template slug, page slug) already taken in the target tenant.
// It is materialized once per module and extended as the run inserts or
// renames, so the resolver never re-queries the store.
type nameSet struct {
	keys map[string]uuid.UUID
}

func newNameSet() *nameSet {
	return &nameSet{keys: make(map[string]uuid.UUID)}
}

func (s *nameSet) add(key string, id uuid.UUID) {
	s.keys[key] = id
}

func (s *nameSet) has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

type candidate struct {
	name string
	key  string
}

type resolution struct {
	skip       bool
	existingID uuid.UUID // id of the colliding target row, when the store knows it
	n          int       // suffix counter the winning candidate used (0 = unchanged)
	name       string
	key        string
}

// resolveConflict decides what happens to one candidate object. gen(0) is
// the object's original name/key; gen(n) for n >= 1 yields the n-th
// suffixed variant. The winning key is reserved in the set so later rows
// of the same run cannot take it. The counter over positive integers
// terminates because the set is finite and only grows by one per call.
func resolveConflict(strategy Strategy, set *nameSet, gen func(n int) candidate) resolution {
	first := gen(0)
	if !set.has(first.key) {
		set.add(first.key, uuid.Nil)
		return resolution{name: first.name, key: first.key}
	}

	if strategy == StrategySkip {
		return resolution{skip: true, existingID: set.keys[first.key]}
	}

	for n := 1; ; n++ {
		c := gen(n)
		if set.has(c.key) {
			continue
		}
		set.add(c.key, uuid.Nil)
		return resolution{n: n, name: c.name, key: c.key}
	}
}

// suffixName yields `X`, `X (copy)`, `X (copy 2)`, ...
func suffixName(name string, n int) string {
	switch {
	case n <= 0:
		return name
	case n == 1:
		return name + " (copy)"
	default:
		return fmt.Sprintf("%s (copy %d)", name, n)
	}
}

// suffixSlug yields `x`, `x-copy`, `x-copy-2`, ... and is also used for
// endpoint paths.
func suffixSlug(slug string, n int) string {
	switch {
	case n <= 0:
		return slug
	case n == 1:
		return slug + "-copy"
	default:
		return fmt.Sprintf("%s-copy-%d", slug, n)
	}
}

// route is the uniqueness key of a generated API endpoint.
func route(method, path string) string {
	return method + " " + path
}
