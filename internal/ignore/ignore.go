// Package ignore implements the per-player ignore cache (spec 4.K): a
// sorted dbref list lazily loaded from a player's IGNORE property, with a
// last-hit cache short-circuiting repeated identical queries.
package ignore

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

// Cache is one player's ignore list.
type Cache struct {
	loaded   bool
	sorted   []dbref.Dbref
	lastHit  dbref.Dbref
	hasLast  bool
}

// New returns an unloaded cache; call Load once the IGNORE property's
// text is available.
func New() *Cache {
	return &Cache{}
}

// ParseIgnoreList parses the IGNORE property's space-separated dbref list
// (with optional leading "#"), matching the "Properties as external
// contract" entry for IGNORE in spec §6.
func ParseIgnoreList(text string) []dbref.Dbref {
	var out []dbref.Dbref
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimPrefix(tok, "#")
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, dbref.Dbref(n))
		}
	}
	return out
}

// Load installs refs as the cache's sorted ignore list.
func (c *Cache) Load(refs []dbref.Dbref) {
	c.sorted = append([]dbref.Dbref(nil), refs...)
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i] < c.sorted[j] })
	c.loaded = true
	c.hasLast = false
}

// Loaded reports whether Load has been called since the last Invalidate.
func (c *Cache) Loaded() bool { return c.loaded }

// Invalidate forces the next lookup to treat the cache as unloaded,
// matching "Cache is invalidated on add/remove and globally on player
// deletion".
func (c *Cache) Invalidate() {
	c.loaded = false
	c.sorted = nil
	c.hasLast = false
}

// Contains reports whether target is on the ignore list, via binary
// search, short-circuiting on the cached last hit.
func (c *Cache) Contains(target dbref.Dbref) bool {
	if c.hasLast && c.lastHit == target {
		return true
	}
	i := sort.Search(len(c.sorted), func(i int) bool { return c.sorted[i] >= target })
	if i < len(c.sorted) && c.sorted[i] == target {
		c.lastHit = target
		c.hasLast = true
		return true
	}
	return false
}

// Add inserts target into the sorted list if not already present.
func (c *Cache) Add(target dbref.Dbref) {
	i := sort.Search(len(c.sorted), func(i int) bool { return c.sorted[i] >= target })
	if i < len(c.sorted) && c.sorted[i] == target {
		return
	}
	c.sorted = append(c.sorted, 0)
	copy(c.sorted[i+1:], c.sorted[i:])
	c.sorted[i] = target
	c.hasLast = false
}

// Remove deletes target from the sorted list, if present.
func (c *Cache) Remove(target dbref.Dbref) {
	i := sort.Search(len(c.sorted), func(i int) bool { return c.sorted[i] >= target })
	if i >= len(c.sorted) || c.sorted[i] != target {
		return
	}
	c.sorted = append(c.sorted[:i], c.sorted[i+1:]...)
	if c.hasLast && c.lastHit == target {
		c.hasLast = false
	}
}

// Checker answers "does A ignore B" queries against the whole player
// population, applying tp_ignore_bidirectional and the unquelled-wizard
// bypass (spec 4.K).
type Checker struct {
	Bidirectional bool
	caches        map[dbref.Dbref]*Cache
	isWizard      func(dbref.Dbref) bool
	isQuelled     func(dbref.Dbref) bool
}

// NewChecker builds a Checker. isWizard/isQuelled let the caller supply
// the object model's flag checks without this package importing
// internal/object.
func NewChecker(isWizard, isQuelled func(dbref.Dbref) bool) *Checker {
	return &Checker{
		caches:    map[dbref.Dbref]*Cache{},
		isWizard:  isWizard,
		isQuelled: isQuelled,
	}
}

// CacheFor returns (creating if needed) the ignore cache for player.
func (c *Checker) CacheFor(player dbref.Dbref) *Cache {
	ca, ok := c.caches[player]
	if !ok {
		ca = New()
		c.caches[player] = ca
	}
	return ca
}

// Ignores reports whether listener is ignoring speaker: either directly,
// or (if Bidirectional) because speaker ignores listener.
func (c *Checker) Ignores(listener, speaker dbref.Dbref) bool {
	if c.isWizard(listener) && !c.isQuelled(listener) {
		return false
	}
	if c.CacheFor(listener).Contains(speaker) {
		return true
	}
	if c.Bidirectional && c.CacheFor(speaker).Contains(listener) {
		return true
	}
	return false
}

// InvalidateAll clears every cached player's ignore list, matching
// "globally on player deletion".
func (c *Checker) InvalidateAll() {
	c.caches = map[dbref.Dbref]*Cache{}
}
