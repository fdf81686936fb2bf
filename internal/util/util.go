package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// ContentID returns a stable hex id for the given content, used as an
// ETag for rendered pages.
func ContentID(data []byte) string {
	hasher := sha1.New()
	hasher.Write(data)

	return hex.EncodeToString(hasher.Sum(nil))
}
