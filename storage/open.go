package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Open returns the backend named by kind. Path is ignored for "memory".
func Open(kind, path string) (Database, error) {
	switch kind {
	case "memory":
		return NewMemDB(), nil
	case "leveldb", "":
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, err
		}
		db, err := NewLevelDB(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		db, err := NewBoltDB(path, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}
