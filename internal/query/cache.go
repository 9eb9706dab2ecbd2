package query

import (
	"os"
	"path/filepath"
)

// ResultCache stores serialized query results on disk, keyed by the
// query shape. Only queries with no selectors or properties are cached;
// everything else is recomputed on every request.
type ResultCache struct {
	dir string
}

// NewResultCache returns a cache rooted at dir. The directory is created
// lazily on the first Put.
func NewResultCache(dir string) *ResultCache {
	return &ResultCache{dir: dir}
}

// Get returns the cached document for key, if one exists. A read failure
// is treated as a miss.
func (c *ResultCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores the document for key. The write goes through a temporary
// file and a rename, so concurrent readers never see a partial entry.
// Failures are returned so the caller can log them; a failed Put never
// fails the request.
func (c *ResultCache) Put(key string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, key+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(c.dir, key))
}
