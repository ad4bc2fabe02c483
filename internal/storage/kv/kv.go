// Package kv provides the ordered, byte-keyed, transactional key/value
// store the rest of the backend is built on: the DN index, the attribute
// index engine, and the entry store all address it through this contract
// rather than touching table representations directly.
//
// Durability comes from the shared Write-Ahead Log (internal/storage);
// isolation comes from copy-on-write snapshots of a google/btree ordered
// tree, mirroring the teacher's page-level copy-on-write manager but at
// the granularity of whole tables rather than fixed-size pages.
package kv

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/oba-ldap/oba/internal/storage"
	"github.com/oba-ldap/oba/internal/storage/tx"
)

// Errors returned by Store and Txn operations.
var (
	ErrKeyExists   = errors.New("kv: key already exists")
	ErrKeyNotFound = errors.New("kv: key not found")
	ErrTxReadOnly  = errors.New("kv: transaction is read-only")
	ErrTxClosed    = errors.New("kv: transaction already committed or aborted")
	ErrNoSuchTable = errors.New("kv: no such table")
)

// item is the ordered-tree element: a key/value pair compared by key.
type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

const btreeDegree = 32

// Store owns one B-tree per table and the WAL/transaction manager that
// make mutations to those tables durable and atomic.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*btree.BTreeG[item]

	wal    *storage.WAL
	txMgr  *tx.TxManager
}

// Open creates a Store backed by the given WAL, replaying no prior state
// (callers that need crash recovery replay the WAL into fresh tables via
// Store.Apply before serving traffic).
func Open(wal *storage.WAL) *Store {
	return &Store{
		tables: make(map[string]*btree.BTreeG[item]),
		wal:    wal,
		txMgr:  tx.NewTxManager(wal),
	}
}

// tableKey namespaces a table name and a raw key into a single WAL table
// identifier, reusing storage.PageID as a generic small integer handle.
// Tables are few and well-known (id2entry, dn_index, attr indexes by
// attribute OID), so a stable hash of the name is sufficient.
func tableID(name string) storage.PageID {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 1099511628211
	}
	return storage.PageID(h)
}

func (s *Store) table(name string) *btree.BTreeG[item] {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return t
	}
	t = btree.NewG(btreeDegree, less)
	s.tables[name] = t
	return t
}

// Txn is a snapshot-isolated view over the store. Reads see the tree as it
// was when Begin was called; writes accumulate in a cloned tree that is
// only published back to the store on Commit.
type Txn struct {
	store    *Store
	tx       *tx.Transaction
	writable bool
	closed   bool

	snapshots map[string]*btree.BTreeG[item] // table name -> working copy
	touched   []string                       // tables with pending writes, commit order
}

// Begin starts a new transaction. Read-only transactions never allocate
// working copies; they read directly from the live tables, which are
// never mutated in place.
func (s *Store) Begin(writable bool) (*Txn, error) {
	t, err := s.txMgr.Begin()
	if err != nil {
		return nil, err
	}
	return &Txn{
		store:     s,
		tx:        t,
		writable:  writable,
		snapshots: make(map[string]*btree.BTreeG[item]),
	}, nil
}

func (t *Txn) workingCopy(table string) *btree.BTreeG[item] {
	if snap, ok := t.snapshots[table]; ok {
		return snap
	}
	snap := t.store.table(table).Clone()
	t.snapshots[table] = snap
	t.touched = append(t.touched, table)
	return snap
}

// Get returns the value stored under key in table, or ErrKeyNotFound.
func (t *Txn) Get(table string, key []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	var tr *btree.BTreeG[item]
	if snap, ok := t.snapshots[table]; ok {
		tr = snap
	} else {
		tr = t.store.table(table)
	}

	found, ok := tr.Get(item{key: key})
	if !ok {
		return nil, ErrKeyNotFound
	}
	t.tx.AddToReadSet(append([]byte(table+"\x00"), key...))
	return found.value, nil
}

// PutFlags controls overwrite semantics for Put.
type PutFlags int

const (
	// PutOverwrite replaces any existing value for the key.
	PutOverwrite PutFlags = iota
	// PutNoOverwrite fails with ErrKeyExists if the key is already present,
	// used by the DN index to enforce ndn uniqueness.
	PutNoOverwrite
)

// Put inserts or replaces key's value in table.
func (t *Txn) Put(table string, key, value []byte, flags PutFlags) error {
	if t.closed {
		return ErrTxClosed
	}
	if !t.writable {
		return ErrTxReadOnly
	}

	tr := t.workingCopy(table)
	old, existed := tr.Get(item{key: key})

	if flags == PutNoOverwrite && existed {
		return ErrKeyExists
	}

	tr.ReplaceOrInsert(item{key: key, value: value})

	var oldValue []byte
	if existed {
		oldValue = old.value
	}
	rec := storage.NewWALPutRecord(0, t.tx.ID, tableID(table), key, oldValue, value)
	if _, err := t.store.wal.Append(rec); err != nil {
		return err
	}

	compoundKey := append([]byte(table+"\x00"), key...)
	t.tx.AddToWriteSet(compoundKey)
	return nil
}

// Delete removes key from table. Deleting an absent key is a no-op.
func (t *Txn) Delete(table string, key []byte) error {
	if t.closed {
		return ErrTxClosed
	}
	if !t.writable {
		return ErrTxReadOnly
	}

	tr := t.workingCopy(table)
	old, existed := tr.Get(item{key: key})
	if !existed {
		return nil
	}

	tr.Delete(item{key: key})

	rec := storage.NewWALDeleteRecord(0, t.tx.ID, tableID(table), key, old.value)
	if _, err := t.store.wal.Append(rec); err != nil {
		return err
	}

	compoundKey := append([]byte(table+"\x00"), key...)
	t.tx.AddToWriteSet(compoundKey)
	return nil
}

// Cursor returns a cursor over table as seen by this transaction.
func (t *Txn) Cursor(table string) *Cursor {
	var tr *btree.BTreeG[item]
	if snap, ok := t.snapshots[table]; ok {
		tr = snap
	} else {
		tr = t.store.table(table)
	}
	return &Cursor{tree: tr}
}

// Commit publishes all working copies back to the store atomically and
// makes the transaction durable via the TxManager's commit protocol.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	if err := t.store.txMgr.Commit(t.tx); err != nil {
		return err
	}

	t.store.mu.Lock()
	for _, table := range t.touched {
		t.store.tables[table] = t.snapshots[table]
	}
	t.store.mu.Unlock()

	t.closed = true
	return nil
}

// Abort discards all working copies; the live tables are untouched.
func (t *Txn) Abort() error {
	if t.closed {
		return ErrTxClosed
	}
	err := t.store.txMgr.Rollback(t.tx)
	t.closed = true
	return err
}

// Cursor supports ordered forward/backward traversal and seek-to-key,
// mirroring the store contract's cursor seek-next-prev requirement.
type Cursor struct {
	tree    *btree.BTreeG[item]
	current item
	valid   bool
}

// Seek positions the cursor at the first key >= key.
func (c *Cursor) Seek(key []byte) ([]byte, []byte, bool) {
	c.valid = false
	c.tree.AscendGreaterOrEqual(item{key: key}, func(it item) bool {
		c.current = it
		c.valid = true
		return false
	})
	if !c.valid {
		return nil, nil, false
	}
	return c.current.key, c.current.value, true
}

// Next advances the cursor and returns the following entry, if any.
func (c *Cursor) Next() ([]byte, []byte, bool) {
	if !c.valid {
		return nil, nil, false
	}
	found := false
	var next item
	c.tree.AscendGreaterOrEqual(c.current, func(it item) bool {
		if bytes.Equal(it.key, c.current.key) {
			return true // skip the current entry itself
		}
		next = it
		found = true
		return false
	})
	if !found {
		c.valid = false
		return nil, nil, false
	}
	c.current = next
	return next.key, next.value, true
}

// Prev moves the cursor backward and returns the preceding entry, if any.
func (c *Cursor) Prev() ([]byte, []byte, bool) {
	if !c.valid {
		return nil, nil, false
	}
	found := false
	var prev item
	c.tree.DescendLessOrEqual(c.current, func(it item) bool {
		if bytes.Equal(it.key, c.current.key) {
			return true
		}
		prev = it
		found = true
		return false
	})
	if !found {
		c.valid = false
		return nil, nil, false
	}
	c.current = prev
	return prev.key, prev.value, true
}
