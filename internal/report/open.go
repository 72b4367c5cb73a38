package report

import (
	"fmt"
	"io"
	"path/filepath"
)

// Open returns the store for backend, rooted at dir and fronted by an LRU
// cache of the given capacity. The returned closer releases backend resources.
func Open(backend, dir string, cache int) (Store, io.Closer, error) {
	switch backend {
	case "json", "":
		return NewLRUStore(cache, NewDiskStore(dir)), nopCloser{}, nil
	case "sqlite":
		db, err := NewSQLiteStore(filepath.Join(dir, "history.db"))
		if err != nil {
			return nil, nil, err
		}
		return NewLRUStore(cache, db), db, nil
	case "none":
		return Nop{}, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
