package storage

import "bytes"

// Scope selects how far a DN-rooted search descends: the base entry only,
// its direct children, or its full subtree.
type Scope int

const (
	ScopeBase     Scope = 0
	ScopeOneLevel Scope = 1
	ScopeSubtree  Scope = 2
)

// IndexType names an index build strategy for CreateIndex. It exists for
// engines that support building an attribute index after entries already
// exist; the entry-ID based engine in this module maintains every index
// incrementally and does not distinguish between them.
type IndexType int

const (
	IndexEquality IndexType = iota
	IndexSubstring
	IndexPresence
	IndexApprox
)

// Entry is the storage-layer representation of a directory entry: a DN and
// its attributes as raw byte values. Backends translate to and from their
// own entry type at the boundary; the storage engine never interprets
// attribute values beyond what the attribute index engine needs to derive
// index keys.
type Entry struct {
	DN         string
	Attributes map[string][][]byte
}

// NewEntry returns an empty Entry for dn.
func NewEntry(dn string) *Entry {
	return &Entry{
		DN:         dn,
		Attributes: make(map[string][][]byte),
	}
}

// SetAttribute replaces all values of name.
func (e *Entry) SetAttribute(name string, values [][]byte) {
	e.Attributes[name] = values
}

// GetAttribute returns the values stored under name, or nil.
func (e *Entry) GetAttribute(name string) [][]byte {
	return e.Attributes[name]
}

// SetStringAttribute is a convenience wrapper over SetAttribute for callers
// that work with string values (CLI tools, the logging store) rather than
// raw attribute bytes.
func (e *Entry) SetStringAttribute(name string, values ...string) {
	raw := make([][]byte, len(values))
	for i, v := range values {
		raw[i] = []byte(v)
	}
	e.SetAttribute(name, raw)
}

// Clone returns a deep copy, safe to hand to a caller outside the engine's
// transaction boundary.
func (e *Entry) Clone() *Entry {
	clone := NewEntry(e.DN)
	for name, values := range e.Attributes {
		cp := make([][]byte, len(values))
		for i, v := range values {
			cp[i] = append([]byte(nil), v...)
		}
		clone.Attributes[name] = cp
	}
	return clone
}

// Equal reports whether two entries have the same DN and attribute values,
// ignoring attribute and value ordering within a single attribute.
func (e *Entry) Equal(other *Entry) bool {
	if other == nil {
		return false
	}
	if e.DN != other.DN || len(e.Attributes) != len(other.Attributes) {
		return false
	}
	for name, values := range e.Attributes {
		otherValues, ok := other.Attributes[name]
		if !ok || len(values) != len(otherValues) {
			return false
		}
		for _, v := range values {
			found := false
			for _, ov := range otherValues {
				if bytes.Equal(v, ov) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// FilterMatcher decides whether an Entry satisfies a search filter. Backends
// implement this over their own filter representation so the engine stays
// filter-syntax agnostic.
type FilterMatcher interface {
	Match(entry *Entry) bool
}

// FilterProvider is an optional capability a FilterMatcher can also
// implement to expose its underlying filter tree as an opaque value
// (typically a *filter.Filter from the backend's filter package). Engines
// that recognize the concrete type can use it to narrow candidates via an
// attribute index before falling back to Match for the final re-test;
// engines that don't recognize it simply scan every entry in scope.
type FilterProvider interface {
	FilterTree() interface{}
}

// Iterator walks a sequence of entries produced by a search. Callers must
// call Next until it returns false, check Error, and always Close.
type Iterator interface {
	Next() bool
	Entry() *Entry
	Error() error
	Close()
}

// EngineStats reports point-in-time counters for monitoring and the
// operational-attribute subsystem (e.g. disabled-account counts computed by
// scanning search results).
type EngineStats struct {
	EntryCount   uint64
	IndexCount   uint64
	TxnCommitted uint64
	TxnAborted   uint64
}

// StorageEngine is the contract the backend package drives: an
// entry-ID-addressed directory store with DN lookup, subtree/one-level
// enumeration, attribute-filtered search, and an index catalog. A
// transaction handle returned by Begin is opaque to the caller and passed
// back unmodified to every other method.
type StorageEngine interface {
	Begin() (interface{}, error)
	Commit(txn interface{}) error
	Rollback(txn interface{}) error

	Get(txn interface{}, dn string) (*Entry, error)
	Put(txn interface{}, entry *Entry) error
	Delete(txn interface{}, dn string) error
	HasChildren(txn interface{}, dn string) (bool, error)

	SearchByDN(txn interface{}, baseDN string, scope Scope) Iterator
	SearchByFilter(txn interface{}, baseDN string, scope Scope, matcher interface{}) Iterator

	CreateIndex(attribute string, indexType IndexType) error
	DropIndex(attribute string) error

	Checkpoint() error
	Compact() error

	Stats() *EngineStats
	Close() error
}
