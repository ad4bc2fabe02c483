// Package schema holds the directory's attribute-type and objectClass
// definitions and enforces them against entries before the storage engine
// ever commits a write.
//
// # What it owns
//
//   - AttributeType definitions: OID, syntax, equality/ordering/substring
//     matching rule, single-valuedness, NO-USER-MODIFICATION
//   - ObjectClass definitions: structural/auxiliary/abstract kind,
//     superior class, MUST/MAY attribute lists
//   - Syntax validators for the small set of syntaxes this engine accepts
//     (DirectoryString, DN, Boolean, Integer, GeneralizedTime, ...)
//   - Entry validation: every entry internal/backend writes passes through
//     a Validator built from the loaded Schema before it reaches id2entry
//
// # Building a schema
//
//	s := schema.NewSchema()
//	oc := schema.NewObjectClass("2.5.6.6", "person")
//	oc.Kind = schema.ObjectClassStructural
//	oc.Must = []string{"cn", "sn"}
//	s.AddObjectClass(oc)
//
//	at := schema.NewAttributeType("2.5.4.3", "cn")
//	at.Syntax = "1.3.6.1.4.1.1466.115.121.1.15" // DirectoryString
//	s.AddAttributeType(at)
//
// # Loading
//
// LoadDefaultSchema returns the built-in core schema (the RFC 4519/2307-ish
// classes and attribute types internal/backend needs to bootstrap cn=admin
// and its own bookkeeping entries). LoadSchema (a file path) and
// LoadSchemaFromLDIF (an io.Reader) read site-specific definitions from LDIF;
// each returns a new Schema and does not add to an existing one.
//
// # Validation
//
//	v := schema.NewValidator(s)
//	if err := v.ValidateEntry(entry); err != nil {
//	    // missing MUST attribute, attribute not in any applicable class,
//	    // or a value that fails its syntax check
//	}
//
// The loaders resolve supertype chains when they build a Schema: an
// attribute type that omits its own syntax or matching rules takes them from
// its nearest ancestor. GetEffectiveSyntax and GetEffectiveEqualityMatch
// walk the chain on lookup, which also covers schemas built by hand.
package schema
