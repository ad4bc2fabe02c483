// Package entrystore implements id2entry: entry ID to serialized entry
// storage, fronted by a reference-counted LRU cache with per-entry
// reader/writer locking.
package entrystore

import (
	"container/list"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/oba-ldap/oba/internal/storage"
	"github.com/oba-ldap/oba/internal/storage/kv"
)

// Table is the kv table name id2entry is stored under.
const Table = "id2entry"

// NoID is the reserved sentinel meaning "no entry"/"no parent".
const NoID uint32 = 0xFFFFFFFF

var (
	ErrNotFound = errors.New("entrystore: entry not found")
)

// EncodeID renders id as the big-endian 4-byte key id2entry is addressed
// by, so cursors iterate in numeric order.
func EncodeID(id uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, id)
	return buf
}

// DecodeID is the inverse of EncodeID.
func DecodeID(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

// Encode serializes an entry as: u32 DN length, DN bytes, u32 attribute
// count, then per attribute: u16 name length, name bytes, u32 value count,
// then per value: u32 length, bytes.
func Encode(entry *storage.Entry) []byte {
	size := 4 + len(entry.DN) + 4
	for name, values := range entry.Attributes {
		size += 2 + len(name) + 4
		for _, v := range values {
			size += 4 + len(v)
		}
	}

	buf := make([]byte, size)
	off := 0
	binary.BigEndian.PutUint32(buf[off:], uint32(len(entry.DN)))
	off += 4
	off += copy(buf[off:], entry.DN)

	binary.BigEndian.PutUint32(buf[off:], uint32(len(entry.Attributes)))
	off += 4
	for name, values := range entry.Attributes {
		binary.BigEndian.PutUint16(buf[off:], uint16(len(name)))
		off += 2
		off += copy(buf[off:], name)

		binary.BigEndian.PutUint32(buf[off:], uint32(len(values)))
		off += 4
		for _, v := range values {
			binary.BigEndian.PutUint32(buf[off:], uint32(len(v)))
			off += 4
			off += copy(buf[off:], v)
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(buf []byte) (*storage.Entry, error) {
	if len(buf) < 8 {
		return nil, errors.New("entrystore: truncated entry record")
	}
	off := 0
	dnLen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if off+dnLen > len(buf) {
		return nil, errors.New("entrystore: truncated DN")
	}
	dn := string(buf[off : off+dnLen])
	off += dnLen

	if off+4 > len(buf) {
		return nil, errors.New("entrystore: truncated attribute count")
	}
	attrCount := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4

	entry := storage.NewEntry(dn)
	for i := 0; i < attrCount; i++ {
		if off+2 > len(buf) {
			return nil, errors.New("entrystore: truncated attribute name length")
		}
		nameLen := int(binary.BigEndian.Uint16(buf[off:]))
		off += 2
		if off+nameLen > len(buf) {
			return nil, errors.New("entrystore: truncated attribute name")
		}
		name := string(buf[off : off+nameLen])
		off += nameLen

		if off+4 > len(buf) {
			return nil, errors.New("entrystore: truncated value count")
		}
		valCount := int(binary.BigEndian.Uint32(buf[off:]))
		off += 4

		values := make([][]byte, valCount)
		for j := 0; j < valCount; j++ {
			if off+4 > len(buf) {
				return nil, errors.New("entrystore: truncated value length")
			}
			valLen := int(binary.BigEndian.Uint32(buf[off:]))
			off += 4
			if off+valLen > len(buf) {
				return nil, errors.New("entrystore: truncated value")
			}
			values[j] = append([]byte(nil), buf[off:off+valLen]...)
			off += valLen
		}
		entry.Attributes[name] = values
	}
	return entry, nil
}

// node is one cache slot: the cached entry, its reference count, and its
// position in the LRU list. Readers hold a shared reference (refcount>0);
// a node is only evicted when refcount reaches zero.
type node struct {
	id      uint32
	entry   *storage.Entry
	refs    int
	element *list.Element
}

// Cache is the reference-counted LRU front for id2entry reads. Callers
// acquire an entry with Acquire and must Release it on every exit path,
// including error paths.
type Cache struct {
	mu       sync.Mutex
	capacity int
	nodes    map[uint32]*node
	order    *list.List // front = most recently used
}

// NewCache returns a cache holding up to capacity entries with zero
// readers at any instant; entries with outstanding readers are never
// evicted even past capacity.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		nodes:    make(map[uint32]*node),
		order:    list.New(),
	}
}

// Acquire returns a cached copy of id's entry if present, incrementing its
// reader count and marking it most-recently-used. The caller must call
// Release exactly once for every successful Acquire.
func (c *Cache) Acquire(id uint32) (*storage.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.nodes[id]
	if !ok {
		return nil, false
	}
	n.refs++
	c.order.MoveToFront(n.element)
	return n.entry, true
}

// Release drops a reference acquired via Acquire or Insert.
func (c *Cache) Release(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.nodes[id]
	if !ok || n.refs == 0 {
		return
	}
	n.refs--
}

// Insert adds or replaces id's cached entry and returns it with one
// reference held (the caller must Release it). Used after a fresh
// id2entry read or after a writer commits a new image.
func (c *Cache) Insert(id uint32, entry *storage.Entry) *storage.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.nodes[id]; ok {
		existing.entry = entry
		existing.refs++
		c.order.MoveToFront(existing.element)
		c.evictLocked()
		return existing.entry
	}

	n := &node{id: id, entry: entry, refs: 1}
	n.element = c.order.PushFront(n)
	c.nodes[id] = n
	c.evictLocked()
	return entry
}

// Invalidate drops id from the cache immediately if it has no outstanding
// readers; a writer calls this when overwriting or deleting an entry so
// the next read observes the committed image.
func (c *Cache) Invalidate(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[id]; ok && n.refs == 0 {
		c.order.Remove(n.element)
		delete(c.nodes, id)
	}
}

func (c *Cache) evictLocked() {
	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			return
		}
		n := back.Value.(*node)
		if n.refs > 0 {
			// Cannot evict an entry with outstanding readers; leave it
			// and stop, since everything behind it in LRU order is even
			// less likely to be evictable on this pass.
			return
		}
		c.order.Remove(back)
		delete(c.nodes, n.id)
	}
}

// Store fronts id2entry with the reference-counted cache.
type Store struct {
	cache *Cache
}

// NewStore wraps a kv transaction family with an entry cache of the given
// capacity (number of entries, not bytes).
func NewStore(cacheCapacity int) *Store {
	return &Store{cache: NewCache(cacheCapacity)}
}

// Read acquires id's entry under a shared reference, reading through to
// the kv store on a cache miss. The caller must call Release(id).
func (s *Store) Read(txn *kv.Txn, id uint32) (*storage.Entry, error) {
	if entry, ok := s.cache.Acquire(id); ok {
		return entry, nil
	}

	val, err := txn.Get(Table, EncodeID(id))
	if err == kv.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry, err := Decode(val)
	if err != nil {
		return nil, err
	}
	return s.cache.Insert(id, entry), nil
}

// Release returns a reference acquired via Read.
func (s *Store) Release(id uint32) {
	s.cache.Release(id)
}

// Write stores entry under id, replacing any prior value, and invalidates
// the cache so the next Read observes this transaction's image once
// committed.
func (s *Store) Write(txn *kv.Txn, id uint32, entry *storage.Entry) error {
	if err := txn.Put(Table, EncodeID(id), Encode(entry), kv.PutOverwrite); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// Delete removes id's entry and invalidates the cache.
func (s *Store) Delete(txn *kv.Txn, id uint32) error {
	if err := txn.Delete(Table, EncodeID(id)); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// Cursor returns a raw id2entry cursor for full-table scans (used when the
// search driver's candidate set is the ALL sentinel).
func (s *Store) Cursor(txn *kv.Txn) *kv.Cursor {
	return txn.Cursor(Table)
}
