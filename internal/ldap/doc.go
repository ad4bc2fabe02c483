// Package ldap is the wire boundary between a raw BER-decoded LDAPMessage
// and the typed requests/responses internal/server's handlers operate on.
//
// internal/ber only knows tag/length/value triples; this package knows what
// an LDAPMessage envelope, a BindRequest, a SearchRequest's filter tree, and
// a LDAPResult look like, and turns one into the other in both directions.
//
//	LDAPMessage ::= SEQUENCE {
//	    messageID       MessageID,
//	    protocolOp      CHOICE { ... },
//	    controls        [0] Controls OPTIONAL
//	}
//
//	msg, err := ldap.ParseLDAPMessage(data)
//	switch msg.OperationType() {
//	case ldap.ApplicationBindRequest:
//	    req, err := ldap.ParseBindRequest(msg.Operation.Data)
//	case ldap.ApplicationSearchRequest:
//	    req, err := ldap.ParseSearchRequest(msg.Operation.Data)
//	}
//
// # Operations carried
//
//   - Bind (APPLICATION 0), Unbind (APPLICATION 2)
//   - Search (APPLICATION 3)
//   - Modify (APPLICATION 6), ModifyDN (APPLICATION 12)
//   - Add (APPLICATION 8), Delete (APPLICATION 10)
//   - Compare (APPLICATION 14)
//   - Extended (APPLICATION 23) — StartTLS and the rest
//
// # Search filters
//
// ParseSearchRequest decodes the filter CHOICE into a SearchFilter tree:
//
//	filter := &ldap.SearchFilter{
//	    Type: ldap.FilterTagAnd,
//	    Children: []*ldap.SearchFilter{
//	        {Type: ldap.FilterTagEquality, Attribute: "objectClass", Value: []byte("person")},
//	        {Type: ldap.FilterTagGreaterOrEqual, Attribute: "uid", Value: []byte("100")},
//	    },
//	}
//
// internal/server converts this tree into an internal/filter Filter, which
// is what builds the entry-ID candidate list and evaluates entries; this
// package never touches the index, only the wire shape of the filter.
//
// # Result codes
//
// ResultCodes match RFC 4511 §4.1.9 exactly (ResultSuccess,
// ResultNoSuchObject, ResultInvalidCredentials, ...). internal/backend
// returns Go errors and does not use them; internal/server maps those
// errors onto these codes (for example mapAddError).
//
// # References
//
//   - RFC 4511 — LDAP: The Protocol
//   - RFC 4512 — LDAP: Directory Information Models
//   - RFC 4513 — LDAP: Authentication Methods and Security Mechanisms
package ldap
