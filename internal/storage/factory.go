package storage

import "fmt"

// Kinds lists the backends NewStore understands.
var Kinds = []string{"memory", "sqlite", "badger"}

// NewStore builds an uninitialized store. path is the sqlite database file
// or the badger directory; the memory backend ignores it.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(path)
	case "badger":
		return NewBadgerStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

// DefaultPath is where a backend keeps its data when no path is given.
func DefaultPath(kind string) string {
	switch kind {
	case "sqlite":
		return "genopt.db"
	case "badger":
		return "genopt.badger"
	default:
		return ""
	}
}
