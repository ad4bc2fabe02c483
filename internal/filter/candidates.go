package filter

import (
	"github.com/oba-ldap/oba/internal/storage/attrindex"
	"github.com/oba-ldap/oba/internal/storage/idl"
	"github.com/oba-ldap/oba/internal/storage/kv"
)

// CandidateGenerator derives a conservative, over-approximating candidate
// ID list for a filter tree from the attribute index engine. The search
// driver intersects scope's dn2idl view with this candidate set and then
// re-tests every surviving entry against the Evaluator: AND/OR/EQUALITY/
// PRESENT/APPROX/SUBSTRING branches can narrow the set when every leaf
// they touch is indexed, but NOT, unindexed attributes, ordering
// comparisons, and extensible matching always fall back to the ALL
// sentinel, since this engine keeps no ordered or general-purpose index.
type CandidateGenerator struct {
	index *attrindex.Engine
}

// NewCandidateGenerator returns a generator backed by index.
func NewCandidateGenerator(index *attrindex.Engine) *CandidateGenerator {
	return &CandidateGenerator{index: index}
}

// Candidates computes the candidate IDL for f within txn.
func (g *CandidateGenerator) Candidates(txn *kv.Txn, f *Filter) (*idl.IDL, error) {
	if f == nil {
		return idl.All(), nil
	}

	switch f.Type {
	case FilterAnd:
		return g.candidatesAnd(txn, f)
	case FilterOr:
		return g.candidatesOr(txn, f)
	case FilterNot:
		// The complement of a candidate set is exactly as expensive to
		// compute as a full scan, so NOT never narrows the candidate set;
		// the evaluator re-test still applies NOT's real semantics.
		return idl.All(), nil
	case FilterEquality:
		return g.lookupOrAll(g.index.LookupEquality(txn, f.Attribute, f.Value))
	case FilterPresent:
		return g.lookupOrAll(g.index.LookupPresent(txn, f.Attribute))
	case FilterApproxMatch:
		return g.lookupOrAll(g.index.LookupApprox(txn, f.Attribute, f.Value))
	case FilterSubstring:
		return g.candidatesSubstring(txn, f.Substring)
	case FilterGreaterOrEqual, FilterLessOrEqual, FilterExtensibleMatch:
		// No ordered or general-purpose index backs these comparisons.
		return idl.All(), nil
	default:
		return idl.All(), nil
	}
}

func (g *CandidateGenerator) candidatesAnd(txn *kv.Txn, f *Filter) (*idl.IDL, error) {
	if len(f.Children) == 0 {
		return idl.All(), nil
	}
	result := idl.All()
	for _, child := range f.Children {
		sub, err := g.Candidates(txn, child)
		if err != nil {
			return nil, err
		}
		result = idl.Intersect(result, sub)
		if !sub.IsAll() && sub.Cardinality() == 0 {
			return idl.New(), nil
		}
	}
	return result, nil
}

func (g *CandidateGenerator) candidatesOr(txn *kv.Txn, f *Filter) (*idl.IDL, error) {
	if len(f.Children) == 0 {
		return idl.New(), nil
	}
	result := idl.New()
	for _, child := range f.Children {
		sub, err := g.Candidates(txn, child)
		if err != nil {
			return nil, err
		}
		result = idl.Union(result, sub)
		if result.IsAll() {
			break
		}
	}
	return result, nil
}

func (g *CandidateGenerator) candidatesSubstring(txn *kv.Txn, sf *SubstringFilter) (*idl.IDL, error) {
	if sf == nil {
		return idl.All(), nil
	}
	var fragments [][]byte
	if len(sf.Initial) > 0 {
		fragments = append(fragments, sf.Initial)
	}
	fragments = append(fragments, sf.Any...)
	if len(sf.Final) > 0 {
		fragments = append(fragments, sf.Final)
	}
	return g.lookupOrAll(g.index.LookupSubstring(txn, sf.Attribute, fragments))
}

func (g *CandidateGenerator) lookupOrAll(list *idl.IDL, ok bool, err error) (*idl.IDL, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return idl.All(), nil
	}
	return list, nil
}
