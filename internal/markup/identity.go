package markup

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// stableTagPrefix namespaces ankivert's identity tags inside Anki.
const stableTagPrefix = "ankivert_id_"

// stableTagHexLen keeps tags short; 48 bits is plenty for one vault.
const stableTagHexLen = 12

// StableTag derives the identity label for a card from the vault-relative
// file path, the 1-based ordinal of its question marker within the file,
// and the question text. The same input always produces the same tag, so a
// re-scan updates the remote note instead of duplicating it.
func StableTag(relPath string, ordinal int, question string) string {
	raw := fmt.Sprintf("%s||%d||%s", filepath.ToSlash(relPath), ordinal, question)
	digest := sha1.Sum([]byte(raw))
	return stableTagPrefix + hex.EncodeToString(digest[:])[:stableTagHexLen]
}
