package schema

import (
	"strings"
	"sync"
)

// IndexMask is a bitset selecting which index kinds apply to an attribute
// and how supertypes/language variants are handled.
type IndexMask uint8

const (
	IndexPresent IndexMask = 1 << iota
	IndexEquality
	IndexApprox
	IndexSubstr
	IndexNoSubtypes
	IndexAutoSubtypes
	IndexNoLang
)

// Has reports whether mask has all of bits set.
func (mask IndexMask) Has(bits IndexMask) bool {
	return mask&bits == bits
}

// ParseIndexMask parses a comma/space-separated list of index kind names
// (e.g. "pres,eq,sub", "present,equality,approx,substr,nosubtypes") into an
// IndexMask, matching the index configuration syntax described in the
// attribute index engine's index_mask.
func ParseIndexMask(s string) IndexMask {
	var mask IndexMask
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for _, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pres", "present", "presence":
			mask |= IndexPresent
		case "eq", "equality":
			mask |= IndexEquality
		case "approx":
			mask |= IndexApprox
		case "sub", "substr", "substring":
			mask |= IndexSubstr
		case "nosubtypes":
			mask |= IndexNoSubtypes
		case "autosubtypes", "auto_subtypes":
			mask |= IndexAutoSubtypes
		case "nolang":
			mask |= IndexNoLang
		}
	}
	return mask
}

// IndexConfig is a per-(backend,attribute) configuration record declared
// ahead of opening the database.
type IndexConfig struct {
	Attribute string
	Mask      IndexMask
}

// IndexCatalog resolves an attribute description to the index table and
// mask that govern it, implementing the supertype/language-tag resolution
// order from the attribute index engine design: a directly configured
// mask wins; otherwise a language-tagged variant inherits its base type's
// table unless the base type carries NOLANG; otherwise the supertype chain
// is walked for the nearest configured ancestor.
type IndexCatalog struct {
	mu     sync.RWMutex
	schema *Schema
	byAttr map[string]IndexMask // canonical (lowercased) attribute name -> mask
}

// NewIndexCatalog builds a catalog from explicit per-attribute configuration
// entries, resolved against schema for supertype/language-tag walking.
func NewIndexCatalog(schema *Schema, configs []IndexConfig) *IndexCatalog {
	c := &IndexCatalog{schema: schema, byAttr: make(map[string]IndexMask)}
	for _, cfg := range configs {
		c.byAttr[strings.ToLower(cfg.Attribute)] = cfg.Mask
	}
	return c
}

// DirectMask returns the mask explicitly configured for attrName, without
// walking the supertype chain or language-tag inheritance that Resolve
// applies. Used by CreateIndex/DropIndex to mutate only this attribute's
// own configuration.
func (c *IndexCatalog) DirectMask(attrName string) (IndexMask, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byAttr[strings.ToLower(attrName)]
	return m, ok
}

// SetMask installs or replaces the direct mask for attrName.
func (c *IndexCatalog) SetMask(attrName string, mask IndexMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byAttr[strings.ToLower(attrName)] = mask
}

// RemoveMask drops attrName's direct configuration, so it (and any
// subtype/language-tagged variant that inherited from it) falls back to
// the supertype chain or becomes unindexed.
func (c *IndexCatalog) RemoveMask(attrName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byAttr, strings.ToLower(attrName))
}

// Count returns the number of attributes with a direct index configuration.
func (c *IndexCatalog) Count() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.byAttr))
}

// splitLangTag splits "cn;lang-en" into ("cn", "lang-en", true) or returns
// (name, "", false) if there is no language tag.
func splitLangTag(attrName string) (base string, tag string, tagged bool) {
	idx := strings.IndexByte(attrName, ';')
	if idx < 0 {
		return attrName, "", false
	}
	return attrName[:idx], attrName[idx+1:], true
}

// Resolve returns the canonical table name and mask that govern attrName,
// or ok=false if the attribute is not indexed at all.
func (c *IndexCatalog) Resolve(attrName string) (table string, mask IndexMask, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := strings.ToLower(attrName)

	if base, _, tagged := splitLangTag(name); tagged {
		if baseMask, exists := c.byAttr[base]; exists {
			if baseMask.Has(IndexNoLang) {
				return "", 0, false
			}
			return base, baseMask, true
		}
		name = base
	}

	if mask, exists := c.byAttr[name]; exists {
		return name, mask, true
	}

	if c.schema == nil {
		return "", 0, false
	}

	cur := c.schema.GetAttributeType(name)
	for cur != nil && cur.Superior != "" {
		parent := c.schema.GetAttributeType(cur.Superior)
		if parent == nil {
			break
		}
		parentName := strings.ToLower(parent.Name)
		if m, exists := c.byAttr[parentName]; exists {
			if m.Has(IndexNoSubtypes) {
				return "", 0, false
			}
			return parentName, m, true
		}
		cur = parent
	}

	return "", 0, false
}
