package parse

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/highwayhash"

	"github.com/helixlabs/codeprism/core"
)

var cacheKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// treeCacheKey identifies a cached tree by file and content.
type treeCacheKey struct {
	fileID  core.FileID
	content uint64
}

// TreeCache memoizes parse trees keyed by file identity and content hash,
// so reparsing an unchanged file is free.
type TreeCache struct {
	cache *lru.Cache[treeCacheKey, *ParsedFile]
}

// NewTreeCache creates a cache holding up to size trees.
func NewTreeCache(size int) (*TreeCache, error) {
	c, err := lru.New[treeCacheKey, *ParsedFile](size)
	if err != nil {
		return nil, err
	}
	return &TreeCache{cache: c}, nil
}

// Get returns the cached tree for the file content, if present.
func (tc *TreeCache) Get(fileID core.FileID, source []byte) (*ParsedFile, bool) {
	return tc.cache.Get(treeCacheKey{fileID: fileID, content: contentHash(source)})
}

// Put stores a parsed tree for later reuse.
func (tc *TreeCache) Put(parsed *ParsedFile) {
	tc.cache.Add(treeCacheKey{fileID: parsed.FileID, content: contentHash(parsed.Source)}, parsed)
}

// Len returns the number of cached trees.
func (tc *TreeCache) Len() int {
	return tc.cache.Len()
}

func contentHash(source []byte) uint64 {
	h, err := highwayhash.New64(cacheKey)
	if err != nil {
		// The key is a compile-time constant of the required length.
		panic(err)
	}
	_, _ = h.Write(source)
	return h.Sum64()
}
