package generation

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/anvramos/adforge/internal/model"
)

// Fingerprint derives the cache key for a request: a digest over the
// trimmed ad text, the lowercased tone, and the sorted lowercased
// platform set. Platform order therefore never affects the key.
func Fingerprint(req model.AdRequest) string {
	platforms := make([]string, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platforms = append(platforms, strings.ToLower(strings.TrimSpace(p)))
	}
	sort.Strings(platforms)

	h := sha256.New()
	io.WriteString(h, strings.TrimSpace(req.Text))
	h.Write([]byte{0})
	io.WriteString(h, strings.ToLower(strings.TrimSpace(req.Tone)))
	for _, p := range platforms {
		h.Write([]byte{0})
		io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
