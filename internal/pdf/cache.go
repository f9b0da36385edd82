package pdf

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Hash        string    `json:"hash"`
	Original    string    `json:"original"`
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// TranslationCache 负责缓存单次文档翻译中的译文
// Keys are (original, source, target). A positive maxEntries bounds the cache with LRU
// eviction; otherwise it is a plain map. Safe for concurrent use.
type TranslationCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	bounded *lru.Cache[string, CacheEntry]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTranslationCache 创建新的翻译缓存实例
func NewTranslationCache(maxEntries int) *TranslationCache {
	c := &TranslationCache{}
	if maxEntries > 0 {
		// lru.New only fails for non-positive sizes
		c.bounded, _ = lru.New[string, CacheEntry](maxEntries)
	} else {
		c.entries = make(map[string]CacheEntry)
	}
	return c
}

// ComputeHash 计算缓存键（SHA256）
func (c *TranslationCache) ComputeHash(text, source, target string) string {
	h := sha256.New()
	h.Write([]byte(normalizeLang(source)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeLang(target)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get 获取缓存的翻译
func (c *TranslationCache) Get(text, source, target string) (string, bool) {
	hash := c.ComputeHash(text, source, target)

	var entry CacheEntry
	var ok bool
	if c.bounded != nil {
		entry, ok = c.bounded.Get(hash)
	} else {
		c.mu.RLock()
		entry, ok = c.entries[hash]
		c.mu.RUnlock()
	}

	if !ok {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return entry.Translation, true
}

// Set 设置翻译缓存，同一键只保留最新值
func (c *TranslationCache) Set(text, source, target, translation string) {
	hash := c.ComputeHash(text, source, target)
	entry := CacheEntry{
		Hash:        hash,
		Original:    text,
		Source:      source,
		Target:      target,
		Translation: translation,
		CreatedAt:   time.Now(),
	}

	if c.bounded != nil {
		c.bounded.Add(hash, entry)
		return
	}
	c.mu.Lock()
	c.entries[hash] = entry
	c.mu.Unlock()
}

// Size 返回缓存条目数
func (c *TranslationCache) Size() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear 清空缓存和统计
func (c *TranslationCache) Clear() {
	if c.bounded != nil {
		c.bounded.Purge()
	} else {
		c.mu.Lock()
		c.entries = make(map[string]CacheEntry)
		c.mu.Unlock()
	}
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns lookup hits and misses since creation or the last Clear
func (c *TranslationCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
