package xlink

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"
)

// Fingerprint produces a stable content hash of a MatchRecord's identity
// fields (the candidate, not its scores), independent of slice ordering,
// so a candidate can be compared across re-runs. algorithm selects among
// the recognized hash functions by name; unrecognized names fall back to
// blake3.
func Fingerprint(m MatchRecord, algorithm string) string {
	var h hash.Hash
	switch strings.ToUpper(algorithm) {
	case "BLAKE2B_256":
		h, _ = blake2b.New256(nil)
	case "BLAKE2B_512":
		h, _ = blake2b.New512(nil)
	case "BLAKE3":
		h = blake3.New(32, nil)
	default:
		h = blake3.New(32, nil)
	}

	fmt.Fprintf(h, "%s|%s|%d|%d|%s|%.6f",
		m.AlphaSequence, m.BetaSequence, m.PosAlpha, m.PosBeta, m.Kind, m.LinkerMass)
	return hex.EncodeToString(h.Sum(nil))
}
