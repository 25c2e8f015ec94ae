package runstore

import "fmt"

// NewStore builds a Store for the named backend: "" or "memory" for an
// in-process MemoryStore, "sqlite" for the build-tag gated SQLite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("runstore: unsupported backend %q", kind)
	}
}

// CloseIfSupported closes store if it implements io.Closer-like Close,
// which every Store implementation does; kept as a helper for callers that
// hold a Store behind a narrower interface.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
