// Package attrindex implements the attribute index engine: per-attribute
// key derivation for presence/equality/approximate/substring filters,
// including supertype and language-tag fan-out, and the IDL-valued
// key_change update that keeps each index table in lockstep with the
// accompanying id2entry mutation.
package attrindex

import (
	"bytes"

	"github.com/oba-ldap/oba/internal/schema"
	"github.com/oba-ldap/oba/internal/storage/idl"
	"github.com/oba-ldap/oba/internal/storage/kv"
)

// Op selects whether IndexEntry adds or removes id from the derived keys.
type Op int

const (
	OpAdd Op = iota
	OpDel
)

// kind namespaces the four key derivations within one physical attr_<name>
// table, so e.g. an equality key can never collide with a presence key.
type kind byte

const (
	kindPresence kind = iota
	kindEquality
	kindApprox
	kindSubstr
)

func tableName(canonical string) string {
	return "attr_" + canonical
}

func namespacedKey(k kind, raw []byte) []byte {
	out := make([]byte, 1+len(raw))
	out[0] = byte(k)
	copy(out[1:], raw)
	return out
}

// EqualityKey derives the equality index key for value: case-folded,
// whitespace-trimmed, mirroring caseIgnoreMatch-family matching rules.
// Attributes with a case-sensitive equality rule would need a distinct
// derivation; this engine treats all equality matching as case-insensitive,
// matching the schema defaults shipped with this server.
func EqualityKey(value []byte) []byte {
	return bytes.ToLower(bytes.TrimSpace(value))
}

// ApproxKey derives a Soundex-like phonetic code used for approximate
// matching: the normalized first letter followed by a digit per
// consonant group, padded/truncated to four characters.
func ApproxKey(value []byte) []byte {
	v := bytes.ToUpper(bytes.TrimSpace(value))
	if len(v) == 0 {
		return nil
	}
	code := make([]byte, 0, 4)
	code = append(code, v[0])

	digitFor := func(c byte) byte {
		switch c {
		case 'B', 'F', 'P', 'V':
			return '1'
		case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
			return '2'
		case 'D', 'T':
			return '3'
		case 'L':
			return '4'
		case 'M', 'N':
			return '5'
		case 'R':
			return '6'
		default:
			return 0
		}
	}

	last := digitFor(v[0])
	for i := 1; i < len(v) && len(code) < 4; i++ {
		d := digitFor(v[i])
		if d != 0 && d != last {
			code = append(code, d)
		}
		if v[i] != 'H' && v[i] != 'W' {
			last = d
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return code
}

// substringNGramSize is the overlapping n-gram width used to derive
// substring index keys, chosen so that init/final anchors get a one-byte
// marker distinguishing them from interior fragments.
const substringNGramSize = 3

// SubstringKeys derives the overlapping n-gram keys for value. Fragments
// shorter than the n-gram size are indexed whole (anchored), matching how
// short attribute values still need to participate in substring search.
func SubstringKeys(value []byte) [][]byte {
	v := bytes.ToLower(bytes.TrimSpace(value))
	if len(v) == 0 {
		return nil
	}
	if len(v) < substringNGramSize {
		return [][]byte{append([]byte{'='}, v...)}
	}
	keys := make([][]byte, 0, len(v)-substringNGramSize+1)
	for i := 0; i+substringNGramSize <= len(v); i++ {
		keys = append(keys, append([]byte(nil), v[i:i+substringNGramSize]...))
	}
	return keys
}

// keyChange applies op to id within the IDL stored at key in table:
// ADD reads, inserts, writes back (creating the key if absent); DEL reads,
// removes, writes back, deleting the key entirely once it empties.
func keyChange(txn *kv.Txn, table string, key []byte, id uint32, op Op) error {
	var list *idl.IDL

	val, err := txn.Get(table, key)
	switch err {
	case nil:
		list, err = idl.Unmarshal(val)
		if err != nil {
			return err
		}
	case kv.ErrKeyNotFound:
		if op == OpDel {
			return nil
		}
		list = idl.New()
	default:
		return err
	}

	switch op {
	case OpAdd:
		list.Insert(id)
	case OpDel:
		list.Delete(id)
	}

	if op == OpDel && list.Cardinality() == 0 {
		return txn.Delete(table, key)
	}

	encoded, err := list.Marshal()
	if err != nil {
		return err
	}
	return txn.Put(table, key, encoded, kv.PutOverwrite)
}

// Lookup reads the IDL stored for key in table, returning an empty IDL
// (never an error) if the key has no entries.
func Lookup(txn *kv.Txn, table string, key []byte) (*idl.IDL, error) {
	val, err := txn.Get(table, key)
	if err == kv.ErrKeyNotFound {
		return idl.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return idl.Unmarshal(val)
}

// Engine dispatches key derivation and update/lookup across the attribute
// index tables, resolving each attribute to its governing table and mask
// via the schema's index catalog.
type Engine struct {
	catalog *schema.IndexCatalog
}

// New returns an Engine driven by catalog.
func New(catalog *schema.IndexCatalog) *Engine {
	return &Engine{catalog: catalog}
}

// IndexEntry applies op to every indexed (attribute, value) pair of entry's
// attributes, deriving keys per the attribute's resolved mask. All writes
// happen within txn; the caller commits or rolls back atomically with the
// accompanying id2entry mutation.
func (e *Engine) IndexEntry(txn *kv.Txn, op Op, id uint32, attrs map[string][][]byte) error {
	for name, values := range attrs {
		table, mask, ok := e.catalog.Resolve(name)
		if !ok {
			continue
		}
		physical := tableName(table)

		if mask.Has(schema.IndexPresent) && len(values) > 0 {
			if err := keyChange(txn, physical, namespacedKey(kindPresence, nil), id, op); err != nil {
				return err
			}
		}
		for _, v := range values {
			if mask.Has(schema.IndexEquality) {
				if err := keyChange(txn, physical, namespacedKey(kindEquality, EqualityKey(v)), id, op); err != nil {
					return err
				}
			}
			if mask.Has(schema.IndexApprox) {
				if code := ApproxKey(v); code != nil {
					if err := keyChange(txn, physical, namespacedKey(kindApprox, code), id, op); err != nil {
						return err
					}
				}
			}
			if mask.Has(schema.IndexSubstr) {
				for _, k := range SubstringKeys(v) {
					if err := keyChange(txn, physical, namespacedKey(kindSubstr, k), id, op); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// LookupEquality returns the candidate IDL for attrName = value, or
// ok=false if the attribute is not equality-indexed (INAPPROPRIATE_MATCHING
// at the caller, who should then fall back to the ALL candidate set).
func (e *Engine) LookupEquality(txn *kv.Txn, attrName string, value []byte) (*idl.IDL, bool, error) {
	table, mask, ok := e.catalog.Resolve(attrName)
	if !ok || !mask.Has(schema.IndexEquality) {
		return nil, false, nil
	}
	list, err := Lookup(txn, tableName(table), namespacedKey(kindEquality, EqualityKey(value)))
	return list, true, err
}

// LookupApprox returns the candidate IDL for attrName ~= value, falling
// back to equality semantics if APPROX is not set but EQUALITY is, per the
// index_param fallback rule.
func (e *Engine) LookupApprox(txn *kv.Txn, attrName string, value []byte) (*idl.IDL, bool, error) {
	table, mask, ok := e.catalog.Resolve(attrName)
	if !ok {
		return nil, false, nil
	}
	if mask.Has(schema.IndexApprox) {
		list, err := Lookup(txn, tableName(table), namespacedKey(kindApprox, ApproxKey(value)))
		return list, true, err
	}
	if mask.Has(schema.IndexEquality) {
		list, err := Lookup(txn, tableName(table), namespacedKey(kindEquality, EqualityKey(value)))
		return list, true, err
	}
	return nil, false, nil
}

// LookupPresent returns the candidate IDL for attrName = *.
func (e *Engine) LookupPresent(txn *kv.Txn, attrName string) (*idl.IDL, bool, error) {
	table, mask, ok := e.catalog.Resolve(attrName)
	if !ok || !mask.Has(schema.IndexPresent) {
		return nil, false, nil
	}
	list, err := Lookup(txn, tableName(table), namespacedKey(kindPresence, nil))
	return list, true, err
}

// LookupSubstring returns the intersection of every fragment's candidate
// IDL for a substring filter over attrName: every fragment must be
// present in a matching entry, so intersecting is sound (conservative).
func (e *Engine) LookupSubstring(txn *kv.Txn, attrName string, fragments [][]byte) (*idl.IDL, bool, error) {
	table, mask, ok := e.catalog.Resolve(attrName)
	if !ok || !mask.Has(schema.IndexSubstr) || len(fragments) == 0 {
		return nil, false, nil
	}
	physical := tableName(table)

	result := idl.All()
	for _, frag := range fragments {
		for _, key := range SubstringKeys(frag) {
			list, err := Lookup(txn, physical, namespacedKey(kindSubstr, key))
			if err != nil {
				return nil, true, err
			}
			result = idl.Intersect(result, list)
		}
	}
	return result, true, nil
}
