package filesystem

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// SourceCache keeps recently read source files in memory. Entries are
// invalidated when a file's modification time or size changes, so watch
// mode re-reads only what was edited.
type SourceCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

type cachedSource struct {
	modTime time.Time
	size    int64
	data    []byte
	lines   []string
}

// NewSourceCache creates a cache holding at most maxEntries files. Zero means
// no limit.
func NewSourceCache(maxEntries int) *SourceCache {
	return &SourceCache{cache: lru.New(maxEntries)}
}

// Bytes returns the content of path.
func (c *SourceCache) Bytes(path string) ([]byte, error) {
	src, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return src.data, nil
}

// Lines returns the content of path split on newlines, carriage returns trimmed.
func (c *SourceCache) Lines(path string) ([]string, error) {
	src, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return src.lines, nil
}

// Len reports how many files are cached.
func (c *SourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *SourceCache) load(path string) (*cachedSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	c.mu.Lock()
	if v, ok := c.cache.Get(path); ok {
		src := v.(*cachedSource)
		if src.modTime.Equal(info.ModTime()) && src.size == info.Size() {
			c.mu.Unlock()
			return src, nil
		}
		c.cache.Remove(path)
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	src := &cachedSource{
		modTime: info.ModTime(),
		size:    info.Size(),
		data:    data,
		lines:   splitLines(string(data)),
	}

	c.mu.Lock()
	c.cache.Add(path, src)
	c.mu.Unlock()
	return src, nil
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
