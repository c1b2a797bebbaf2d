package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 100

// Provider is an interface for a response cache keyed by request URL.
//
// Implementations must be thread-safe!
// Get and Put must each be atomic: recency updates and evictions happen
// within the same critical section as the lookup or insert that caused them.
type Provider interface {
	// Get returns the stored value for the given key, if it exists,
	// and marks the entry as most recently used.
	Get(key string) (Value, bool)
	// Put stores the value under the given key and marks it as most recently used.
	// If the cache grows beyond its capacity, the least recently used entry is evicted.
	Put(key string, value Value)
	// Len returns the number of stored entries.
	Len() int
	// Capacity returns the maximum number of stored entries.
	Capacity() int
	// Entries lists the stored entries from least to most recently used,
	// without affecting recency.
	Entries() []EntryInfo
}

// EntryInfo describes a stored entry.
type EntryInfo struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Format string `json:"format,omitempty"`
	Size   int    `json:"size"`
}

// LRU is an in-memory Provider with least-recently-used eviction.
type LRU struct {
	entries   *lru.Cache[string, Value]
	capacity  int
	evictions atomic.Uint64
	log       zerolog.Logger
}

var _ Provider = (*LRU)(nil)

// NewLRU creates an empty cache holding at most capacity entries.
// A capacity <= 0 means DefaultCapacity.
// Evictions are logged at trace level to the given logger, if any.
func NewLRU(capacity int, logger *zerolog.Logger) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &LRU{capacity: capacity, log: zerolog.Nop()}
	if logger != nil {
		c.log = *logger
	}
	entries, err := lru.NewWithEvict[string, Value](capacity, c.onEvict)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	c.entries = entries
	return c
}

func (c *LRU) onEvict(key string, value Value) {
	c.evictions.Add(1)
	c.log.Trace().Str("key", key).Str("kind", value.Kind().String()).Msg("Cache eviction")
}

func (c *LRU) Get(key string) (Value, bool) {
	return c.entries.Get(key)
}

func (c *LRU) Put(key string, value Value) {
	c.entries.Add(key, value)
}

func (c *LRU) Len() int {
	return c.entries.Len()
}

func (c *LRU) Capacity() int {
	return c.capacity
}

func (c *LRU) Entries() []EntryInfo {
	keys := c.entries.Keys()
	infos := make([]EntryInfo, 0, len(keys))
	for _, key := range keys {
		// the entry may have been evicted since Keys returned
		value, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		infos = append(infos, EntryInfo{
			Key:    key,
			Kind:   value.Kind().String(),
			Format: value.Format(),
			Size:   value.Size(),
		})
	}
	return infos
}

// Evictions returns how many entries have been evicted since creation.
func (c *LRU) Evictions() uint64 {
	return c.evictions.Load()
}
