package storage

// PageID identifies the target of a WAL record. It originally named a
// fixed-size on-disk page; the kv store reinterprets it as a stable small
// integer handle for a named table (id2entry, dn_index, or a per-attribute
// index), derived by hashing the table name.
type PageID uint64
