package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"golang.org/x/text/unicode/norm"
)

const fingerprintSeed uint32 = 5381

// Fingerprint hashes the canonical JSON form of the normalized items and cfg.
// Object keys are sorted by the canonicalizer, so field order never matters.
// The hash is not collision resistant; a collision only costs a recompute
// because cached values are validated before use.
func Fingerprint(items []any, cfg Config) (string, error) {
	data, err := json.Marshal(struct {
		Items  []any  `json:"items"`
		Config Config `json:"config,omitempty"`
	}{Items: items, Config: cfg})
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize: %w", err)
	}
	return hashHex(canonical), nil
}

// hashHex folds b through h = h*33 ^ c with 32-bit wraparound.
func hashHex(b []byte) string {
	h := fingerprintSeed
	for _, c := range b {
		h = (h * 33) ^ uint32(c)
	}
	return strconv.FormatUint(uint64(h), 16)
}

// NormalizeText is the common text normalization for fingerprints: NFC, trimmed.
func NormalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
