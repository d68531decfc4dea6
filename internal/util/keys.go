package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const sep = ':'

// StorageKey flattens a (namespace, set, key) triple into a single string key for
// stores that only have a flat keyspace. ':' and '\' inside parts are escaped so
// distinct triples never collide: ("a:b","c","d") != ("a","b:c","d").
func StorageKey(namespace, set, key string) string {
	var b strings.Builder
	b.Grow(len(namespace) + len(set) + len(key) + 2)
	writeEscaped(&b, namespace)
	b.WriteByte(sep)
	writeEscaped(&b, set)
	b.WriteByte(sep)
	writeEscaped(&b, key)
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	if !strings.ContainsAny(s, `:\`) {
		b.WriteString(s)
		return
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == sep || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
}

// Redact returns a short stable digest of k, for logs.
func Redact(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}
