// Package dnindex implements the DN index: the three keyed views
// (base, one-level, subtree) that map a normalized DN to an entry ID or to
// the IDL of its children/descendants.
package dnindex

import (
	"errors"

	"github.com/oba-ldap/oba/internal/dn"
	"github.com/oba-ldap/oba/internal/storage/idl"
	"github.com/oba-ldap/oba/internal/storage/kv"
)

// Table is the kv table name the DN index is stored under.
const Table = "dn_index"

// Errors returned by the DN index.
var (
	ErrNoSuchObject    = errors.New("dnindex: no such object")
	ErrAlreadyExists   = errors.New("dnindex: entry already exists")
	ErrNotAllowedOnNonLeaf = errors.New("dnindex: entry has children")
)

// Prefix selects which of the three DN index views an operation targets.
type Prefix byte

const (
	Base    Prefix = Prefix(dn.BasePrefix)
	One     Prefix = Prefix(dn.OnePrefix)
	Subtree Prefix = Prefix(dn.SubtreePrefix)
)

func keyFor(prefix Prefix, ndn string) []byte {
	switch prefix {
	case One:
		return dn.OneKey(ndn)
	case Subtree:
		return dn.SubtreeKey(ndn)
	default:
		return dn.BaseKey(ndn)
	}
}

// Index wraps a kv transaction with the DN-index operations.
// One Index is constructed per backend transaction and discarded with it.
type Index struct {
	txn    *kv.Txn
	suffix string // normalized backend suffix; "" means the whole tree is addressable
}

// New wraps txn with DN index operations scoped to the backend's suffix.
func New(txn *kv.Txn, suffix string) *Index {
	return &Index{txn: txn, suffix: suffix}
}

func decodeID(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

func encodeID(id uint32) []byte {
	return []byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)}
}

// DN2ID resolves a normalized DN to its entry ID.
func (x *Index) DN2ID(ndn string) (uint32, error) {
	val, err := x.txn.Get(Table, keyFor(Base, ndn))
	if err == kv.ErrKeyNotFound {
		return 0, ErrNoSuchObject
	}
	if err != nil {
		return 0, err
	}
	return decodeID(val), nil
}

// DN2IDMatched resolves ndn if present; otherwise walks ancestors, nearest
// first, until one is found or the backend suffix is reached. It returns
// the deepest matched ancestor DN alongside its ID, or ("", false) if
// nothing above ndn (down to the suffix) exists either.
func (x *Index) DN2IDMatched(ndn string) (id uint32, matchedDN string, found bool, err error) {
	id, err = x.DN2ID(ndn)
	if err == nil {
		return id, "", true, nil
	}
	if err != ErrNoSuchObject {
		return 0, "", false, err
	}

	cur := ndn
	for {
		parent, perr := dn.GetParentDN(cur)
		if perr != nil || parent == "" {
			return 0, "", false, nil
		}
		if parent == x.suffix {
			id, err = x.DN2ID(parent)
			if err == nil {
				return id, parent, true, nil
			}
			return 0, "", false, nil
		}

		id, err = x.DN2ID(parent)
		if err == nil {
			return id, parent, true, nil
		}
		if err != ErrNoSuchObject {
			return 0, "", false, err
		}
		cur = parent
	}
}

// DN2IDChildren is a cheap existence probe: does ndn have any direct child?
func (x *Index) DN2IDChildren(ndn string) (bool, error) {
	_, err := x.txn.Get(Table, dn.OneKey(ndn))
	if err == kv.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DN2IDL reads the IDL stored under the given prefix for ndn. As an
// optimization, SUBTREE at the backend suffix is ALL: every live entry is
// beneath the suffix by definition, so there is no need to enumerate.
func (x *Index) DN2IDL(ndn string, prefix Prefix) (*idl.IDL, error) {
	if prefix == Subtree && ndn == x.suffix {
		return idl.All(), nil
	}

	val, err := x.txn.Get(Table, keyFor(prefix, ndn))
	if err == kv.ErrKeyNotFound {
		return idl.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return idl.Unmarshal(val)
}

func (x *Index) putIDL(prefix Prefix, ndn string, list *idl.IDL) error {
	encoded, err := list.Marshal()
	if err != nil {
		return err
	}
	return x.txn.Put(Table, keyFor(prefix, ndn), encoded, kv.PutOverwrite)
}

// Ancestors returns the strict ancestors of ndn up to (excluding) the
// backend suffix, nearest first.
func (x *Index) Ancestors(ndn string) []string {
	return dn.Ancestors(ndn, x.suffix)
}

// DN2IDAdd records a new entry in all three DN index views within the
// caller's transaction: BASE gets a NO_OVERWRITE put enforcing ndn
// uniqueness, ONE gets the ID appended under the parent, and SUBTREE gets
// the ID appended under every strict ancestor. The caller is responsible
// for committing or aborting the enclosing transaction; any error here
// should trigger an abort so all three writes roll back together.
func (x *Index) DN2IDAdd(parentNDN, ndn string, id uint32) error {
	if err := x.txn.Put(Table, dn.BaseKey(ndn), encodeID(id), kv.PutNoOverwrite); err != nil {
		if err == kv.ErrKeyExists {
			return ErrAlreadyExists
		}
		return err
	}

	if parentNDN != "" {
		oneList, err := x.DN2IDL(parentNDN, One)
		if err != nil {
			return err
		}
		oneList.Insert(id)
		if err := x.putIDL(One, parentNDN, oneList); err != nil {
			return err
		}
	}

	for _, ancestor := range x.Ancestors(ndn) {
		subList, err := x.DN2IDL(ancestor, Subtree)
		if err != nil {
			return err
		}
		subList.Insert(id)
		if err := x.putIDL(Subtree, ancestor, subList); err != nil {
			return err
		}
	}

	return nil
}

// DN2IDDelete is the inverse of DN2IDAdd: it enforces the leaf-only delete
// rule (spec: an entry with children cannot be removed) and then retracts
// id from the BASE, ONE, and SUBTREE views.
func (x *Index) DN2IDDelete(parentNDN, ndn string, id uint32) error {
	hasChildren, err := x.DN2IDChildren(ndn)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrNotAllowedOnNonLeaf
	}

	if err := x.txn.Delete(Table, dn.BaseKey(ndn)); err != nil {
		return err
	}

	if parentNDN != "" {
		oneList, err := x.DN2IDL(parentNDN, One)
		if err != nil {
			return err
		}
		oneList.Delete(id)
		if err := x.putIDL(One, parentNDN, oneList); err != nil {
			return err
		}
	}

	for _, ancestor := range x.Ancestors(ndn) {
		subList, err := x.DN2IDL(ancestor, Subtree)
		if err != nil {
			return err
		}
		subList.Delete(id)
		if err := x.putIDL(Subtree, ancestor, subList); err != nil {
			return err
		}
	}

	return nil
}
