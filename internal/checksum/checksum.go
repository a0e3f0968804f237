// Package checksum fingerprints the serialized item collection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns sum in quoted entity-tag form.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether an If-Match header value accepts sum. An empty
// header or "*" accepts anything; weak and quoted tags are compared by value.
func Matches(ifMatch, sum string) bool {
	ifMatch = strings.TrimSpace(ifMatch)
	if ifMatch == "" || ifMatch == "*" {
		return true
	}
	for _, tag := range strings.Split(ifMatch, ",") {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimPrefix(tag, "W/")
		if strings.Trim(tag, `"`) == sum {
			return true
		}
	}
	return false
}
