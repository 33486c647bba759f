package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const (
	namespaceIntent = "intent"
	namespaceGemini = "gemini"
)

// IntentKey is the single normalization applied to a message before it is
// used as an intent cache key.
func IntentKey(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

func hashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) storageKey(namespace, key string) string {
	return c.config.Prefix + namespace + ":" + hashKey(key)
}
