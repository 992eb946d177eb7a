// Package fileid derives stable identities for uploaded files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const contentPrefix = "sha256:"

// ReceiptID returns the identity a receipt file carries when its text has no
// "Receipt ID" field: the base filename without its extension.
func ReceiptID(filename string) string {
	return Stem(filename)
}

// Stem returns the base filename without its extension.
func Stem(filename string) string {
	base := filepath.Base(filepath.Clean(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ContentID returns a stable ID for content. Same bytes always yield the same ID.
func ContentID(content []byte) string {
	hash := sha256.Sum256(content)
	return contentPrefix + hex.EncodeToString(hash[:])
}
