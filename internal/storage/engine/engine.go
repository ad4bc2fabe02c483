// Package engine wires the kv transactional store, the DN index, the
// attribute index engine, and the reference-counted entry cache together
// into a concrete storage.StorageEngine: the directory-service storage
// engine proper.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/oba-ldap/oba/internal/dn"
	"github.com/oba-ldap/oba/internal/filter"
	"github.com/oba-ldap/oba/internal/schema"
	"github.com/oba-ldap/oba/internal/storage"
	"github.com/oba-ldap/oba/internal/storage/attrindex"
	"github.com/oba-ldap/oba/internal/storage/cache"
	"github.com/oba-ldap/oba/internal/storage/dnindex"
	"github.com/oba-ldap/oba/internal/storage/entrystore"
	"github.com/oba-ldap/oba/internal/storage/idl"
	"github.com/oba-ldap/oba/internal/storage/kv"
)

const (
	metaTable      = "meta"
	walFileName    = "oba.wal"
	checkpointFile = "checkpoint.cache"

	// defaultCacheCapacity is the number of id2entry records the reference
	// counted cache holds when Options.CacheCapacity is left at zero.
	defaultCacheCapacity = 4096
)

var nextIDKey = []byte("next_entry_id")

// Errors returned by ObaDB beyond the sentinels reused from dnindex.
var (
	ErrClosed          = errors.New("engine: database is closed")
	ErrInvalidTxn      = errors.New("engine: invalid transaction handle")
	ErrIDSpaceExhausted = errors.New("engine: entry ID space exhausted")
)

// ErrNoSuchObject is returned by Get/HasChildren/SearchByDN(base) when the
// named DN has no entry. It is dnindex's sentinel, re-exported so callers
// outside the storage tree never need to import dnindex directly.
var ErrNoSuchObject = dnindex.ErrNoSuchObject

// Options configures an ObaDB instance at Open time.
type Options struct {
	Suffix        string
	CacheCapacity int
	Schema        *schema.Schema
	IndexConfig   []schema.IndexConfig

	// EncryptionKey, when set, seals every WAL record with AES-256-GCM
	// before it is written to dataDir. Build one with
	// storage.NewEncryptionKey or storage.LoadEncryptionKeyFromFile.
	EncryptionKey *storage.EncryptionKey
}

// DefaultOptions returns an Options with a sensible cache capacity and no
// suffix restriction (the whole tree is addressable) or index configuration.
func DefaultOptions() Options {
	return Options{CacheCapacity: defaultCacheCapacity}
}

// WithSuffix scopes the DN index to suffix: DN index lookups and subtree
// optimizations are relative to this backend's naming context root.
func (o Options) WithSuffix(suffix string) Options {
	o.Suffix = suffix
	return o
}

// WithCacheCapacity sets the id2entry reference-counted cache's capacity.
func (o Options) WithCacheCapacity(capacity int) Options {
	o.CacheCapacity = capacity
	return o
}

// WithSchema attaches the attribute-type schema used to resolve index
// supertype and language-tag inheritance.
func (o Options) WithSchema(s *schema.Schema) Options {
	o.Schema = s
	return o
}

// WithIndexConfig installs the initial per-attribute index configuration.
func (o Options) WithIndexConfig(configs []schema.IndexConfig) Options {
	o.IndexConfig = append([]schema.IndexConfig(nil), configs...)
	return o
}

// WithEncryptionKey enables at-rest encryption of the WAL with key.
func (o Options) WithEncryptionKey(key *storage.EncryptionKey) Options {
	o.EncryptionKey = key
	return o
}

// ObaDB is the concrete storage.StorageEngine backing an Oba directory
// backend: one kv.Store, fronted by the DN index, the attribute index
// engine, and the reference-counted id2entry cache, all sharing a single
// Write-Ahead Log for durability.
type ObaDB struct {
	wal     *storage.WAL
	kv      *kv.Store
	dataDir string
	suffix  string

	entries *entrystore.Store
	catalog *schema.IndexCatalog
	index   *attrindex.Engine
	gen     *filter.CandidateGenerator

	mu        sync.Mutex
	committed uint64
	aborted   uint64
	closed    bool
}

// Open creates or attaches to an ObaDB rooted at dataDir.
//
// Crash recovery is out of scope for this engine: kv.Open starts from
// empty tables and does not replay the WAL, so data only survives within
// a single process lifetime. This mirrors the limitation already present
// in the kv package; Checkpoint/Compact below are consequently advisory
// operations rather than the basis of a recovery protocol.
func Open(dataDir string, opts Options) (*ObaDB, error) {
	wal, err := storage.OpenWALWithEncryption(filepath.Join(dataDir, walFileName), opts.EncryptionKey)
	if err != nil {
		return nil, err
	}

	var suffix string
	if opts.Suffix != "" {
		suffix, err = dn.Normalize(opts.Suffix)
		if err != nil {
			wal.Close()
			return nil, err
		}
	}

	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}

	catalog := schema.NewIndexCatalog(opts.Schema, opts.IndexConfig)
	index := attrindex.New(catalog)

	return &ObaDB{
		wal:     wal,
		kv:      kv.Open(wal),
		dataDir: dataDir,
		suffix:  suffix,
		entries: entrystore.NewStore(capacity),
		catalog: catalog,
		index:   index,
		gen:     filter.NewCandidateGenerator(index),
	}, nil
}

// txnHandle is the opaque transaction value StorageEngine callers pass
// back into every other method.
type txnHandle struct {
	kvTxn  *kv.Txn
	closed bool
}

func asTxn(raw interface{}) (*txnHandle, error) {
	h, ok := raw.(*txnHandle)
	if !ok || h == nil {
		return nil, ErrInvalidTxn
	}
	return h, nil
}

// Begin starts a new transaction. Every StorageEngine operation, read or
// write, runs within one of these; read-only callers simply never call a
// mutating method before Commit/Rollback.
func (db *ObaDB) Begin() (interface{}, error) {
	db.mu.Lock()
	closed := db.closed
	db.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	t, err := db.kv.Begin(true)
	if err != nil {
		return nil, err
	}
	return &txnHandle{kvTxn: t}, nil
}

// Commit publishes txn's writes. Safe to call on an already-closed handle
// (returns nil), since callers commonly pair a deferred Rollback with an
// explicit Commit on the same handle.
func (db *ObaDB) Commit(raw interface{}) error {
	h, err := asTxn(raw)
	if err != nil {
		return err
	}
	if h.closed {
		return nil
	}
	err = h.kvTxn.Commit()
	h.closed = true

	db.mu.Lock()
	if err == nil {
		db.committed++
	} else {
		db.aborted++
	}
	db.mu.Unlock()
	return err
}

// Rollback discards txn's writes. Safe to call on an already-closed handle.
func (db *ObaDB) Rollback(raw interface{}) error {
	h, err := asTxn(raw)
	if err != nil {
		return err
	}
	if h.closed {
		return nil
	}
	err = h.kvTxn.Abort()
	h.closed = true

	db.mu.Lock()
	db.aborted++
	db.mu.Unlock()
	return err
}

func (db *ObaDB) dnIndex(txn *kv.Txn) *dnindex.Index {
	return dnindex.New(txn, db.suffix)
}

// allocID draws the next entry ID from the meta table's counter, within
// txn so the allocation commits or rolls back atomically with everything
// else the caller does in this transaction.
func (db *ObaDB) allocID(txn *kv.Txn) (uint32, error) {
	var next uint32 = 1
	val, err := txn.Get(metaTable, nextIDKey)
	switch err {
	case nil:
		next = binary.BigEndian.Uint32(val)
	case kv.ErrKeyNotFound:
	default:
		return 0, err
	}

	if next == entrystore.NoID {
		return 0, ErrIDSpaceExhausted
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, next+1)
	if err := txn.Put(metaTable, nextIDKey, buf, kv.PutOverwrite); err != nil {
		return 0, err
	}
	return next, nil
}

// Get resolves dnStr to its entry, or an error (ErrNoSuchObject or an
// entrystore/kv error) if no such entry exists within this transaction.
func (db *ObaDB) Get(raw interface{}, dnStr string) (*storage.Entry, error) {
	h, err := asTxn(raw)
	if err != nil {
		return nil, err
	}
	ndn, err := dn.Normalize(dnStr)
	if err != nil {
		return nil, err
	}

	id, err := db.dnIndex(h.kvTxn).DN2ID(ndn)
	if err != nil {
		return nil, err
	}

	entry, err := db.entries.Read(h.kvTxn, id)
	if err != nil {
		return nil, err
	}
	clone := entry.Clone()
	db.entries.Release(id)
	return clone, nil
}

// Put inserts entry as a new entry (its DN is unmapped) or rewrites an
// existing one, delta-indexing the attribute change in either case:
// newly added attributes are ADD-indexed, a rewrite first DEL-indexes the
// old attribute image before ADD-indexing the new one. Both the id2entry
// write and the index updates happen within txn.
func (db *ObaDB) Put(raw interface{}, entry *storage.Entry) error {
	h, err := asTxn(raw)
	if err != nil {
		return err
	}
	ndn, err := dn.Normalize(entry.DN)
	if err != nil {
		return err
	}

	idx := db.dnIndex(h.kvTxn)
	id, err := idx.DN2ID(ndn)
	switch err {
	case nil:
		return db.putModify(h.kvTxn, id, ndn, entry)
	case dnindex.ErrNoSuchObject:
		return db.putAdd(h.kvTxn, idx, ndn, entry)
	default:
		return err
	}
}

func (db *ObaDB) putAdd(txn *kv.Txn, idx *dnindex.Index, ndn string, entry *storage.Entry) error {
	parentNDN, err := dn.GetParentDN(ndn)
	if err != nil {
		return err
	}

	id, err := db.allocID(txn)
	if err != nil {
		return err
	}
	if err := idx.DN2IDAdd(parentNDN, ndn, id); err != nil {
		return err
	}

	stored := entry.Clone()
	stored.DN = ndn
	if err := db.entries.Write(txn, id, stored); err != nil {
		return err
	}
	return db.index.IndexEntry(txn, attrindex.OpAdd, id, stored.Attributes)
}

func (db *ObaDB) putModify(txn *kv.Txn, id uint32, ndn string, entry *storage.Entry) error {
	old, err := db.entries.Read(txn, id)
	if err != nil {
		return err
	}
	oldAttrs := old.Attributes
	db.entries.Release(id)

	if err := db.index.IndexEntry(txn, attrindex.OpDel, id, oldAttrs); err != nil {
		return err
	}

	stored := entry.Clone()
	stored.DN = ndn
	if err := db.entries.Write(txn, id, stored); err != nil {
		return err
	}
	return db.index.IndexEntry(txn, attrindex.OpAdd, id, stored.Attributes)
}

// Delete removes the leaf entry named by dnStr, retracting it from the DN
// index's three views and DEL-indexing its attribute image, then erasing
// its id2entry record. Deleting an entry with children fails with
// dnindex.ErrNotAllowedOnNonLeaf.
func (db *ObaDB) Delete(raw interface{}, dnStr string) error {
	h, err := asTxn(raw)
	if err != nil {
		return err
	}
	ndn, err := dn.Normalize(dnStr)
	if err != nil {
		return err
	}

	idx := db.dnIndex(h.kvTxn)
	id, err := idx.DN2ID(ndn)
	if err != nil {
		return err
	}

	entry, err := db.entries.Read(h.kvTxn, id)
	if err != nil {
		return err
	}
	attrs := entry.Attributes
	db.entries.Release(id)

	parentNDN, err := dn.GetParentDN(ndn)
	if err != nil {
		return err
	}
	if err := idx.DN2IDDelete(parentNDN, ndn, id); err != nil {
		return err
	}
	if err := db.index.IndexEntry(h.kvTxn, attrindex.OpDel, id, attrs); err != nil {
		return err
	}
	return db.entries.Delete(h.kvTxn, id)
}

// HasChildren reports whether dnStr has any direct child entry.
func (db *ObaDB) HasChildren(raw interface{}, dnStr string) (bool, error) {
	h, err := asTxn(raw)
	if err != nil {
		return false, err
	}
	ndn, err := dn.Normalize(dnStr)
	if err != nil {
		return false, err
	}
	return db.dnIndex(h.kvTxn).DN2IDChildren(ndn)
}

// scopeCandidates resolves baseDN/scope to the DN-index-derived candidate
// IDL, independent of any filter.
func (db *ObaDB) scopeCandidates(txn *kv.Txn, ndn string, scope storage.Scope) (*idl.IDL, error) {
	if scope == storage.ScopeBase {
		id, err := db.dnIndex(txn).DN2ID(ndn)
		if err == dnindex.ErrNoSuchObject {
			return idl.New(), nil
		}
		if err != nil {
			return nil, err
		}
		return idl.FromSlice([]uint32{id}), nil
	}
	return db.dnIndex(txn).DN2IDL(ndn, dnindex.Prefix(scope))
}

// SearchByDN iterates every entry within scope of baseDN, with no filter
// applied beyond the scope itself.
func (db *ObaDB) SearchByDN(raw interface{}, baseDN string, scope storage.Scope) storage.Iterator {
	h, err := asTxn(raw)
	if err != nil {
		return &errIterator{err: err}
	}
	ndn, err := dn.Normalize(baseDN)
	if err != nil {
		return &errIterator{err: err}
	}

	list, err := db.scopeCandidates(h.kvTxn, ndn, scope)
	if err != nil {
		return &errIterator{err: err}
	}
	return db.listIterator(h.kvTxn, list, nil)
}

// SearchByFilter iterates every entry within scope of baseDN that matches
// matcher. When matcher also implements storage.FilterProvider and hands
// back a *filter.Filter, its candidate IDL (from the attribute index
// engine) narrows the scan before the per-entry Match re-test; otherwise
// every entry in scope is fetched and re-tested.
func (db *ObaDB) SearchByFilter(raw interface{}, baseDN string, scope storage.Scope, matcher interface{}) storage.Iterator {
	h, err := asTxn(raw)
	if err != nil {
		return &errIterator{err: err}
	}
	ndn, err := dn.Normalize(baseDN)
	if err != nil {
		return &errIterator{err: err}
	}

	candidates, err := db.scopeCandidates(h.kvTxn, ndn, scope)
	if err != nil {
		return &errIterator{err: err}
	}

	if fp, ok := matcher.(storage.FilterProvider); ok {
		if f, ok := fp.FilterTree().(*filter.Filter); ok && f != nil {
			filterList, err := db.gen.Candidates(h.kvTxn, f)
			if err != nil {
				return &errIterator{err: err}
			}
			candidates = idl.Intersect(candidates, filterList)
		}
	}

	fm, _ := matcher.(storage.FilterMatcher)
	return db.listIterator(h.kvTxn, candidates, fm)
}

func (db *ObaDB) listIterator(txn *kv.Txn, list *idl.IDL, matcher storage.FilterMatcher) storage.Iterator {
	if list.IsAll() {
		return &resultIterator{db: db, txn: txn, cursor: db.entries.Cursor(txn), matcher: matcher}
	}
	return &resultIterator{db: db, txn: txn, ids: list.ToSlice(), matcher: matcher}
}

// resultIterator walks either an explicit candidate ID slice or, for the
// ALL sentinel, a full id2entry cursor scan, applying matcher (if any) as
// a per-entry re-test.
type resultIterator struct {
	db      *ObaDB
	txn     *kv.Txn
	ids     []uint32
	pos     int
	cursor  *kv.Cursor
	started bool
	matcher storage.FilterMatcher
	current *storage.Entry
	err     error
}

func (it *resultIterator) Next() bool {
	if it.err != nil {
		return false
	}

	if it.cursor != nil {
		for {
			var val []byte
			var ok bool
			if !it.started {
				_, val, ok = it.cursor.Seek(nil)
				it.started = true
			} else {
				_, val, ok = it.cursor.Next()
			}
			if !ok {
				it.current = nil
				return false
			}
			entry, err := entrystore.Decode(val)
			if err != nil {
				it.err = err
				return false
			}
			if it.matcher != nil && !it.matcher.Match(entry) {
				continue
			}
			it.current = entry
			return true
		}
	}

	for it.pos < len(it.ids) {
		id := it.ids[it.pos]
		it.pos++

		entry, err := it.db.entries.Read(it.txn, id)
		if err == entrystore.ErrNotFound {
			continue
		}
		if err != nil {
			it.err = err
			return false
		}
		clone := entry.Clone()
		it.db.entries.Release(id)

		if it.matcher != nil && !it.matcher.Match(clone) {
			continue
		}
		it.current = clone
		return true
	}
	it.current = nil
	return false
}

func (it *resultIterator) Entry() *storage.Entry { return it.current }
func (it *resultIterator) Error() error          { return it.err }
func (it *resultIterator) Close()                {}

// errIterator reports err on first use and nothing else.
type errIterator struct{ err error }

func (it *errIterator) Next() bool            { return false }
func (it *errIterator) Entry() *storage.Entry { return nil }
func (it *errIterator) Error() error          { return it.err }
func (it *errIterator) Close()                {}

func maskForIndexType(t storage.IndexType) schema.IndexMask {
	switch t {
	case storage.IndexEquality:
		return schema.IndexEquality
	case storage.IndexSubstring:
		return schema.IndexSubstr
	case storage.IndexPresence:
		return schema.IndexPresent
	case storage.IndexApprox:
		return schema.IndexApprox
	}
	return 0
}

// CreateIndex adds indexType to attribute's index configuration and
// backfills every stored entry's keys for it. Re-deriving already-indexed
// kinds is harmless (key_change's IDL insert is idempotent), so this
// simply re-runs IndexEntry with the attribute's full updated mask across
// every entry rather than tracking which keys are genuinely new.
func (db *ObaDB) CreateIndex(attribute string, indexType storage.IndexType) error {
	bit := maskForIndexType(indexType)
	if bit == 0 {
		return fmt.Errorf("engine: unknown index type %d", indexType)
	}

	existing, _ := db.catalog.DirectMask(attribute)
	db.catalog.SetMask(attribute, existing|bit)

	txn, err := db.kv.Begin(true)
	if err != nil {
		return err
	}

	cursor := db.entries.Cursor(txn)
	for key, val, ok := cursor.Seek(nil); ok; key, val, ok = cursor.Next() {
		entry, err := entrystore.Decode(val)
		if err != nil {
			txn.Abort()
			return err
		}
		id := entrystore.DecodeID(key)
		if err := db.index.IndexEntry(txn, attrindex.OpAdd, id, entry.Attributes); err != nil {
			txn.Abort()
			return err
		}
	}
	return txn.Commit()
}

// DropIndex removes attribute's direct index configuration. Physical keys
// already written for it are left in place (harmless but unreachable
// through the catalog) until the next Compact.
func (db *ObaDB) DropIndex(attribute string) error {
	db.catalog.RemoveMask(attribute)
	return nil
}

// Checkpoint persists a small durability marker (entry count and current
// WAL LSN) via the cache file format. It does not itself enable crash
// recovery (see Open's doc comment); it exists so operators and Compact
// have a concrete checkpoint to reason about.
func (db *ObaDB) Checkpoint() error {
	stats := db.Stats()
	path := filepath.Join(db.dataDir, checkpointFile)
	return cache.WriteFile(path, cache.TypeBTree, []byte(db.suffix), stats.EntryCount, db.wal.CurrentLSN())
}

// Compact truncates the WAL up to the last checkpoint's LSN. Call
// Checkpoint first; Compact on a database with no checkpoint yet is a
// no-op.
func (db *ObaDB) Compact() error {
	path := filepath.Join(db.dataDir, checkpointFile)
	if !cache.Exists(path) {
		return nil
	}
	_, header, err := cache.ReadFile(path, cache.TypeBTree, db.wal.CurrentLSN())
	if err != nil {
		// A stale LSN is expected once more writes land after the last
		// checkpoint; Compact then simply has nothing new to reclaim yet.
		if errors.Is(err, cache.ErrStaleTxID) {
			return nil
		}
		return err
	}
	return db.wal.Truncate(header.LastTxID)
}

// Stats reports current engine-wide counters.
func (db *ObaDB) Stats() *storage.EngineStats {
	db.mu.Lock()
	committed, aborted := db.committed, db.aborted
	db.mu.Unlock()

	var entryCount uint64
	if txn, err := db.kv.Begin(false); err == nil {
		cursor := db.entries.Cursor(txn)
		for _, _, ok := cursor.Seek(nil); ok; _, _, ok = cursor.Next() {
			entryCount++
		}
		txn.Abort()
	}

	return &storage.EngineStats{
		EntryCount:   entryCount,
		IndexCount:   db.catalog.Count(),
		TxnCommitted: committed,
		TxnAborted:   aborted,
	}
}

// Close closes the underlying WAL. Safe to call more than once.
func (db *ObaDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.wal.Close()
}

var _ storage.StorageEngine = (*ObaDB)(nil)
