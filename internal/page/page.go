// Package page implements the opaque continuation-token protocol of
// spec.md §4.10: a base32 encoding (idgen.Alphabet) of a minimal record
// holding the last-seen endpoint id and, for hash-ordered tuple listings,
// that row's hash (see Token).
package page

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ruek-io/ruek/internal/idgen"
)

// DefaultLimit and MaxLimit implement the clamp rule of spec.md §4.10.
const (
	DefaultLimit = 30
	MinLimit     = 1
	MaxLimit     = 30
)

// ClampLimit clamps requested to [MinLimit, MaxLimit], defaulting to
// DefaultLimit when requested is 0.
func ClampLimit(requested int) int {
	if requested == 0 {
		return DefaultLimit
	}
	if requested < MinLimit {
		return MinLimit
	}
	if requested > MaxLimit {
		return MaxLimit
	}
	return requested
}

// Token is the decoded form of a continuation token: the endpoint id
// relevant to the listing direction (spec.md §4.10), plus an optional
// LastHash for listings whose primary sort key is a hash column rather
// than the id itself (tuple listings, ordered by _l_hash/_r_hash DESC) —
// a cursor on id alone would skip or duplicate rows there since id and
// hash are uncorrelated.
type Token struct {
	LastID   string
	LastHash int64
	HasHash  bool
}

// Encode serializes a token as length-prefixed bytes, then base32: the
// LastID length and bytes, followed by a hash-presence flag and, when
// set, the 8-byte big-endian hash.
func Encode(t Token) string {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(t.LastID)))
	buf.Write(lenBuf[:])
	buf.WriteString(t.LastID)

	if t.HasHash {
		buf.WriteByte(1)
		var hashBuf [8]byte
		binary.BigEndian.PutUint64(hashBuf[:], uint64(t.LastHash))
		buf.Write(hashBuf[:])
	} else {
		buf.WriteByte(0)
	}
	return idgen.EncodeToString(buf.Bytes())
}

// Decode parses a token produced by Encode. Callers must treat decode
// failure as an invalid token (spec.md §4.10 leaves cross-shape token
// misuse undefined beyond "decodes successfully").
func Decode(s string) (Token, error) {
	raw, err := idgen.DecodeString(s)
	if err != nil {
		return Token{}, fmt.Errorf("page: decode token: %w", err)
	}
	if len(raw) < 4 {
		return Token{}, fmt.Errorf("page: token too short")
	}
	n := binary.BigEndian.Uint32(raw[0:4])
	if uint32(len(raw)-4) < n {
		return Token{}, fmt.Errorf("page: token length mismatch")
	}
	tok := Token{LastID: string(raw[4 : 4+n])}

	rest := raw[4+n:]
	if len(rest) == 0 {
		// Pre-hash tokens (no flag byte) decode as hashless, for forward
		// compatibility with tokens issued before this field existed.
		return tok, nil
	}
	if rest[0] == 1 {
		if len(rest) < 9 {
			return Token{}, fmt.Errorf("page: token hash truncated")
		}
		tok.LastHash = int64(binary.BigEndian.Uint64(rest[1:9]))
		tok.HasHash = true
	}
	return tok, nil
}

// TokenOr returns an encoded token iff the page was full (len(items) ==
// limit), matching spec.md §4.10's "token returned iff the returned page
// is full."
func TokenOr(lastID string, itemCount, limit int) string {
	if itemCount < limit {
		return ""
	}
	return Encode(Token{LastID: lastID})
}

// TokenOrHash is TokenOr for listings keyed by (hash, id), carrying the
// hash of the last item alongside its id so the next page's cursor can
// reconstruct a compound keyset predicate.
func TokenOrHash(lastID string, lastHash int64, itemCount, limit int) string {
	if itemCount < limit {
		return ""
	}
	return Encode(Token{LastID: lastID, LastHash: lastHash, HasHash: true})
}
