package logging

import (
	"path/filepath"
	"testing"
)

func TestWriteIsVisibleImmediatelyInStandaloneMode(t *testing.T) {
	t.Parallel()

	store, err := NewLogStore(LogStoreConfig{
		Enabled:    true,
		DBPath:     filepath.Join(t.TempDir(), "logdb"),
		MaxEntries: 100,
	})
	if err != nil {
		t.Fatalf("NewLogStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Write("info", "startup event", "system", "", "", map[string]interface{}{"k": "v"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, total, err := store.Query(QueryOptions{
		Offset: 0,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("expected 1 local entry after Write, got total=%d len=%d", total, len(entries))
	}
}
