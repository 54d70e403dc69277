// Package cos provides common low-level types and utilities shared by every
// package in this module: typed errors, short opaque identifiers, and
// content-hash helpers.
/*
 * Adapted from the aistore project's cmn/cos package.
 */
package cos

import (
	"strconv"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// Alphabet for generating short IDs, the same family as shortid's own
// default alphabet but with '.' excluded since IDs are embedded in file
// names and cache keys.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenShortID = 9 // as per https://github.com/teris-io/shortid#id-length

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

// InitIDGen seeds the process-wide ID generator. Call once at startup;
// safe to call again in tests with a fixed seed for reproducibility.
func InitIDGen(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenUUID returns a short, URL-safe, process-wide-unique identifier.
func GenUUID() string {
	if sid == nil {
		InitIDGen(1)
	}
	uuid := sid.MustGenerate()
	if len(uuid) == 0 || !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		return string(rune('A'+tie%26)) + uuid
	}
	return uuid
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsValidUUID reports whether s looks like a GenUUID product.
func IsValidUUID(s string) bool { return len(s) >= LenShortID }

// ContentHash returns the xxhash64 digest of b, hex-encoded. The archive
// package's LocalStore uses it to name each blob file (the digest of the
// key) and to record the digest of the stored bytes in its index; it is
// not written to the cache's attribute side-car.
func ContentHash(b []byte) string {
	return strconv.FormatUint(xxhash.Checksum64(b), 16)
}
