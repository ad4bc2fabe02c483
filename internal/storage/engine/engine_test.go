package engine

import (
	"os"
	"testing"

	"github.com/oba-ldap/oba/internal/filter"
	"github.com/oba-ldap/oba/internal/schema"
	"github.com/oba-ldap/oba/internal/storage"
)

func testDB(t *testing.T) (*ObaDB, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "engine_test_*")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}

	s := schema.NewSchema()
	s.AddAttributeType(schema.NewAttributeType("2.5.4.3", "cn"))
	s.AddAttributeType(schema.NewAttributeType("0.9.2342.19200300.100.1.3", "mail"))

	opts := DefaultOptions().
		WithSuffix("dc=example,dc=com").
		WithSchema(s).
		WithIndexConfig([]schema.IndexConfig{
			{Attribute: "cn", Mask: schema.IndexPresent | schema.IndexEquality | schema.IndexSubstr},
			{Attribute: "mail", Mask: schema.IndexEquality},
		})

	db, err := Open(dir, opts)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("Open() error = %v", err)
	}
	return db, func() { db.Close(); os.RemoveAll(dir) }
}

func putEntry(t *testing.T, db *ObaDB, dn string, attrs map[string][][]byte) {
	t.Helper()
	txn, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	entry := &storage.Entry{DN: dn, Attributes: attrs}
	if err := db.Put(txn, entry); err != nil {
		db.Rollback(txn)
		t.Fatalf("Put(%q) error = %v", dn, err)
	}
	if err := db.Commit(txn); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestPutThenGet(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{
		"cn": {[]byte("Example")},
	})
	putEntry(t, db, "cn=alice,dc=example,dc=com", map[string][][]byte{
		"cn": {[]byte("Alice")},
	})

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	entry, err := db.Get(txn, "cn=alice,dc=example,dc=com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(entry.GetAttribute("cn")) != 1 || string(entry.GetAttribute("cn")[0]) != "Alice" {
		t.Errorf("Get() = %+v, want cn=Alice", entry)
	}
}

func TestGetMissingReturnsNoSuchObject(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	if _, err := db.Get(txn, "cn=nobody,dc=example,dc=com"); err != ErrNoSuchObject {
		t.Errorf("Get() error = %v, want ErrNoSuchObject", err)
	}
}

func TestPutModifyReindexesAttributes(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=bob,dc=example,dc=com", map[string][][]byte{
		"cn":   {[]byte("Bob")},
		"mail": {[]byte("bob@old.example.com")},
	})
	putEntry(t, db, "cn=bob,dc=example,dc=com", map[string][][]byte{
		"cn":   {[]byte("Bob")},
		"mail": {[]byte("bob@new.example.com")},
	})

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	old := matcherFor(t, db, "(mail=bob@old.example.com)")
	iter := db.SearchByFilter(txn, "dc=example,dc=com", storage.ScopeSubtree, old)
	if iter.Next() {
		t.Errorf("expected stale mail index entry to be retracted, found %+v", iter.Entry())
	}
	iter.Close()

	fresh := matcherFor(t, db, "(mail=bob@new.example.com)")
	iter2 := db.SearchByFilter(txn, "dc=example,dc=com", storage.ScopeSubtree, fresh)
	if !iter2.Next() {
		t.Fatalf("expected new mail index entry to be found")
	}
	iter2.Close()
}

func TestDeleteRejectsNonLeaf(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=carol,dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Carol")}})

	txn, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer db.Rollback(txn)

	if err := db.Delete(txn, "dc=example,dc=com"); err == nil {
		t.Errorf("Delete() on non-leaf entry should have failed")
	}
}

func TestHasChildren(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=dan,dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Dan")}})

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	has, err := db.HasChildren(txn, "dc=example,dc=com")
	if err != nil || !has {
		t.Errorf("HasChildren() = %v, %v, want true, nil", has, err)
	}
	has, err = db.HasChildren(txn, "cn=dan,dc=example,dc=com")
	if err != nil || has {
		t.Errorf("HasChildren() leaf = %v, %v, want false, nil", has, err)
	}
}

func TestSearchByDNScopes(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "ou=people,dc=example,dc=com", map[string][][]byte{"cn": {[]byte("People")}})
	putEntry(t, db, "cn=erin,ou=people,dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Erin")}})

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	base := countResults(db.SearchByDN(txn, "dc=example,dc=com", storage.ScopeBase))
	if base != 1 {
		t.Errorf("ScopeBase count = %d, want 1", base)
	}

	one := countResults(db.SearchByDN(txn, "dc=example,dc=com", storage.ScopeOneLevel))
	if one != 1 {
		t.Errorf("ScopeOneLevel count = %d, want 1", one)
	}

	sub := countResults(db.SearchByDN(txn, "dc=example,dc=com", storage.ScopeSubtree))
	if sub != 3 {
		t.Errorf("ScopeSubtree count = %d, want 3", sub)
	}
}

func TestSearchByFilterNarrowsAndReTests(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=frank,dc=example,dc=com", map[string][][]byte{
		"cn": {[]byte("Frank")}, "mail": {[]byte("frank@example.com")},
	})
	putEntry(t, db, "cn=george,dc=example,dc=com", map[string][][]byte{
		"cn": {[]byte("George")}, "mail": {[]byte("george@example.com")},
	})

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	matcher := matcherFor(t, db, "(mail=frank@example.com)")
	iter := db.SearchByFilter(txn, "dc=example,dc=com", storage.ScopeSubtree, matcher)
	defer iter.Close()

	var found []string
	for iter.Next() {
		found = append(found, iter.Entry().DN)
	}
	if len(found) != 1 || found[0] != "cn=frank,dc=example,dc=com" {
		t.Errorf("SearchByFilter() = %v, want exactly cn=frank", found)
	}
}

func TestCreateIndexBackfillsExistingEntries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=henry,dc=example,dc=com", map[string][][]byte{
		"cn": {[]byte("Henry")}, "description": {[]byte("staff engineer")},
	})

	if err := db.CreateIndex("description", storage.IndexEquality); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}

	txn, _ := db.Begin()
	defer db.Rollback(txn)

	list, ok, err := db.index.LookupEquality(txn.(*txnHandle).kvTxn, "description", []byte("staff engineer"))
	if err != nil || !ok {
		t.Fatalf("LookupEquality() after backfill = %v, %v, %v", list, ok, err)
	}
	if list.Cardinality() != 1 {
		t.Errorf("expected exactly 1 backfilled id, got %d", list.Cardinality())
	}
}

func TestStatsReflectsEntryCount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})
	putEntry(t, db, "cn=ida,dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Ida")}})

	stats := db.Stats()
	if stats.EntryCount != 2 {
		t.Errorf("Stats().EntryCount = %d, want 2", stats.EntryCount)
	}
}

func TestCheckpointThenCompactIsSafe(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	putEntry(t, db, "dc=example,dc=com", map[string][][]byte{"cn": {[]byte("Example")}})

	if err := db.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint() error = %v", err)
	}
	if err := db.Compact(); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
}

func countResults(iter storage.Iterator) int {
	defer iter.Close()
	n := 0
	for iter.Next() {
		n++
	}
	return n
}

// matcherFor parses filterStr (a tiny hand-built equality filter) into a
// storage.FilterMatcher + storage.FilterProvider, mirroring how the backend
// package wraps a *filter.Filter for the storage engine.
func matcherFor(t *testing.T, db *ObaDB, filterStr string) *testMatcher {
	t.Helper()
	attr, val := parseSimpleEquality(filterStr)
	f := &filter.Filter{Type: filter.FilterEquality, Attribute: attr, Value: []byte(val)}
	return &testMatcher{filter: f, evaluator: filter.NewEvaluator(nil)}
}

// parseSimpleEquality extracts attr and value out of "(attr=value)" for
// test fixtures only; it is not a general filter parser.
func parseSimpleEquality(s string) (string, string) {
	s = s[1 : len(s)-1]
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

type testMatcher struct {
	filter    *filter.Filter
	evaluator *filter.Evaluator
}

func (m *testMatcher) Match(entry *storage.Entry) bool {
	fe := filter.NewEntry(entry.DN)
	for name, values := range entry.Attributes {
		fe.SetAttribute(name, values...)
	}
	return m.evaluator.Evaluate(m.filter, fe)
}

func (m *testMatcher) FilterTree() interface{} {
	return m.filter
}
