// Package seed implements the MD5-based reseeding RNG MUF's `srand`/`rnd`
// use, and the two other MD5 uses the core needs: short digests of
// property-path keys for the paging store's index, and the `md5`/`sha1`
// string primitives (spec 4.L).
//
// Grounded on original_source/include/fbmath.h's rnd()/init_seed() chain:
// each call hashes a 16-byte frame-local buffer in place and returns the
// first 32 bits; seeding from a 32-character ASCII string packs two
// characters per byte via (c-65)&0x0F.
package seed

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
)

// BufSize is the per-frame RNG state buffer size (frame.Frame.RNGBuf).
const BufSize = 16

// InitFromString packs a 32-character ASCII seed string into a 16-byte
// buffer, two characters per byte, matching init_seed's (c-65)&0x0F
// packing. Strings shorter than 32 characters are treated as if padded
// with 'A' (which packs to zero nibbles).
func InitFromString(s string) [BufSize]byte {
	var buf [BufSize]byte
	get := func(i int) byte {
		if i < len(s) {
			return s[i]
		}
		return 'A'
	}
	for i := 0; i < BufSize; i++ {
		hi := (get(2*i) - 65) & 0x0F
		lo := (get(2*i+1) - 65) & 0x0F
		buf[i] = hi<<4 | lo
	}
	return buf
}

// Rnd reseeds buf in place (buf = MD5(buf)) and returns the first 32 bits
// of the new digest as the next pseudo-random value, matching rnd().
func Rnd(buf *[BufSize]byte) uint32 {
	sum := md5.Sum(buf[:])
	copy(buf[:], sum[:])
	return binary.BigEndian.Uint32(buf[:4])
}

// RndFloat derives a float64 in [0, 1) from one Rnd draw, the basis for
// MUF's floating-point random primitives and the Box-Muller Gaussian in
// internal/muf/interp.
func RndFloat(buf *[BufSize]byte) float64 {
	return float64(Rnd(buf)) / float64(1<<32)
}

// MD5Hex returns the lowercase hex MD5 digest of data, matching MUF's
// `md5` primitive.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// SHA1Hex returns the lowercase hex SHA-1 digest of data, matching MUF's
// `sha1` primitive.
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// PropKeyDigest returns the short digest the paging store's index uses to
// key a (dbref, path) pair, derived the same way as MD5Hex but exposed
// under its own name since callers in internal/diskbase reach for "the
// property key digest", not "an MD5 hash".
func PropKeyDigest(path string) string {
	return MD5Hex([]byte(path))
}
