package storage

import "fmt"

// NewStore builds an uninitialized store. location is the database file
// for sqlite and the DSN for postgres; memory ignores it.
func NewStore(kind, location string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(location)
	case "postgres":
		return NewPostgresStore(location), nil
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
