// Package ber implements the ASN.1 Basic Encoding Rules (BER, ITU-T X.690)
// subset that LDAP's wire protocol relies on: every request and response the
// server exchanges with a client is a BER-encoded LDAPMessage envelope before
// internal/ldap ever sees it, and internal/ber is the only place in this
// tree that knows how to turn bytes into tag/length/value triples and back.
//
// # Tag classes
//
//   - Universal (0x00): INTEGER, BOOLEAN, OCTET STRING, SEQUENCE, SET, ...
//   - Application (0x40): the LDAP protocol operations (bind, search, ...)
//   - Context-specific (0x80): fields distinguished by position within a
//     CHOICE or SEQUENCE rather than by a universal type
//   - Private (0xC0): unused by LDAP; decoded but never produced here
//
// # Encoding
//
//	enc := ber.NewBEREncoder(256)
//	enc.WriteInteger(42)
//	enc.WriteOctetString([]byte("hello"))
//	data := enc.Bytes()
//
// Constructed types reserve their length prefix with Begin/End:
//
//	enc := ber.NewBEREncoder(256)
//	pos := enc.BeginSequence()
//	enc.WriteInteger(1)
//	enc.WriteInteger(2)
//	enc.EndSequence(pos)
//
// # Decoding
//
//	dec := ber.NewBERDecoder(data)
//	n, err := dec.ReadInteger()
//
// ExpectSequence/ExpectSet hand back the declared content length so a caller
// can bound how many further Read calls belong to that constructed value:
//
//	dec := ber.NewBERDecoder(data)
//	length, err := dec.ExpectSequence()
//
// Indefinite-length encoding (BER's 0x80 length octet) is valid X.690 but
// never appears on an LDAP wire; ErrIndefiniteLength rejects it rather than
// attempting to find the matching end-of-contents marker.
//
// # References
//
//   - ITU-T X.690 — ASN.1 encoding rules
//   - RFC 4511 — LDAP, the sole consumer of this encoding in this tree
package ber
