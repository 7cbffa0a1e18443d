package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamSnapshotKey returns the cache key for an exam's full snapshot, answer key included.
// The snapshot never leaves the server.
func (r *CacheKeyStruct) ExamSnapshotKey(examID string) string {
	return fmt.Sprintf("exam:%s:snapshot", examID)
}

// ExamCodeKey returns the cache key mapping an access code to an exam id.
// Codes are case-insensitive so the key is built from the lowercased code.
func (r *CacheKeyStruct) ExamCodeKey(code string) string {
	return fmt.Sprintf("exam:code:%s", strings.ToLower(strings.TrimSpace(code)))
}

var CacheKey = NewCacheKeyStruct()
