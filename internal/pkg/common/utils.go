package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// UniqueTokens 去除重複（不分大小寫）並保留原始順序
func UniqueTokens(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := NormalizeToken(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// UnionTokens 集合聯集，保留第一次出現的順序
func UnionTokens(a, b []string) []string {
	return UniqueTokens(append(append([]string{}, a...), b...))
}

// ContainsToken 不分大小寫檢查 needle 是否出現在任一 token 中（雙向子字串）
func ContainsToken(tokens []string, needle string) bool {
	n := NormalizeToken(needle)
	if n == "" {
		return false
	}
	for _, t := range tokens {
		tn := NormalizeToken(t)
		if tn == "" {
			continue
		}
		if tokenMatches(tn, n) {
			return true
		}
	}
	return false
}

// tokenMatches 雙向包含比對："egg" 命中 "eggs"，"chicken breast" 命中 "chicken"
func tokenMatches(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
