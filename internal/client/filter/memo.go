package filter

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/patrickmn/go-cache"
)

const (
	defaultMemoTTL     = 5 * time.Minute
	defaultMemoCleanup = 10 * time.Minute
)

// Source is the versioned collection a Memo projects from.
type Source interface {
	Snapshot() []models.Contact
	Version() uint64
}

// Memo caches projections per (collection version, criteria). Any change in
// the collection bumps its version, so stale entries are never returned.
type Memo struct {
	src   Source
	cache *cache.Cache
}

func NewMemo(src Source, ttl time.Duration) *Memo {
	if ttl <= 0 {
		ttl = defaultMemoTTL
	}
	return &Memo{src: src, cache: cache.New(ttl, defaultMemoCleanup)}
}

func memoKey(kind string, version uint64, crit models.Criteria) string {
	return kind + "|" + strconv.FormatUint(version, 10) + "|" + crit.Key()
}

// Project returns the filtered view of the source's current collection.
func (m *Memo) Project(crit models.Criteria) []models.Contact {
	version := m.src.Version()
	key := memoKey("p", version, crit)
	if v, ok := m.cache.Get(key); ok {
		return clone(v.([]models.Contact))
	}

	snap := m.src.Snapshot()
	// the snapshot may be newer than version; only cache when they agree
	out := Project(snap, crit)
	if m.src.Version() == version {
		m.cache.SetDefault(key, clone(out))
	}
	return out
}

// Tags returns DistinctTags of the source's current collection.
func (m *Memo) Tags() []string {
	version := m.src.Version()
	key := memoKey("t", version, models.Criteria{})
	if v, ok := m.cache.Get(key); ok {
		return append([]string(nil), v.([]string)...)
	}

	tags := DistinctTags(m.src.Snapshot())
	if m.src.Version() == version {
		m.cache.SetDefault(key, append([]string(nil), tags...))
	}
	return tags
}

// Len is the number of cached views, including expired ones not yet swept.
func (m *Memo) Len() int {
	return m.cache.ItemCount()
}

// Flush drops every cached view.
func (m *Memo) Flush() {
	m.cache.Flush()
}

func clone(in []models.Contact) []models.Contact {
	out := make([]models.Contact, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
