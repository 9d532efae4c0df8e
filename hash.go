package p521

import (
	"hash"
	"unsafe"

	sha256simd "github.com/minio/sha256-simd"
)

// SHA256 represents a SHA-256 hash context
type SHA256 struct {
	hasher hash.Hash
}

// NewSHA256 creates a new SHA-256 hash context
func NewSHA256() *SHA256 {
	h := &SHA256{}
	h.hasher = sha256simd.New()
	return h
}

// Write writes data to the hash
func (h *SHA256) Write(data []byte) {
	h.hasher.Write(data)
}

// Sum finalizes the hash and returns the 32-byte result
func (h *SHA256) Sum(out []byte) []byte {
	if out == nil {
		out = make([]byte, 32)
	}
	copy(out, h.hasher.Sum(nil))
	return out
}

// Finalize finalizes the hash and writes the result to out32 (must be 32 bytes)
func (h *SHA256) Finalize(out32 []byte) {
	if len(out32) != 32 {
		panic("output buffer must be 32 bytes")
	}
	sum := h.hasher.Sum(nil)
	copy(out32, sum)
}

// Clear clears the hash context to prevent leaking sensitive information
func (h *SHA256) Clear() {
	memclear(unsafe.Pointer(h), unsafe.Sizeof(*h))
}

// HMACSHA256 represents an HMAC-SHA256 context
type HMACSHA256 struct {
	inner, outer SHA256
}

// NewHMACSHA256 creates a new HMAC-SHA256 context with the given key
func NewHMACSHA256(key []byte) *HMACSHA256 {
	h := &HMACSHA256{}

	// Prepare key: if keylen > 64, hash it first
	var rkey [64]byte
	if len(key) <= 64 {
		copy(rkey[:], key)
	} else {
		hasher := sha256simd.New()
		hasher.Write(key)
		sum := hasher.Sum(nil)
		copy(rkey[:32], sum)
	}

	// Initialize outer hash with key XOR 0x5c
	h.outer = SHA256{hasher: sha256simd.New()}
	for i := 0; i < 64; i++ {
		rkey[i] ^= 0x5c
	}
	h.outer.hasher.Write(rkey[:])

	// Initialize inner hash with key XOR 0x36
	h.inner = SHA256{hasher: sha256simd.New()}
	for i := 0; i < 64; i++ {
		rkey[i] ^= 0x5c ^ 0x36
	}
	h.inner.hasher.Write(rkey[:])

	memclear(unsafe.Pointer(&rkey), unsafe.Sizeof(rkey))
	return h
}

// Write writes data to the inner hash
func (h *HMACSHA256) Write(data []byte) {
	h.inner.Write(data)
}

// Finalize finalizes the HMAC and writes the result to out32 (must be 32 bytes)
func (h *HMACSHA256) Finalize(out32 []byte) {
	if len(out32) != 32 {
		panic("output buffer must be 32 bytes")
	}

	var temp [32]byte
	h.inner.Finalize(temp[:])

	h.outer.Write(temp[:])
	h.outer.Finalize(out32)

	memclear(unsafe.Pointer(&temp), unsafe.Sizeof(temp))
}

// Clear clears the HMAC context
func (h *HMACSHA256) Clear() {
	h.inner.Clear()
	h.outer.Clear()
	memclear(unsafe.Pointer(h), unsafe.Sizeof(*h))
}

// RFC6979HMACSHA256 implements RFC 6979 deterministic nonce generation
type RFC6979HMACSHA256 struct {
	v     [32]byte
	k     [32]byte
	retry int
}

// NewRFC6979HMACSHA256 initializes a new RFC6979 HMAC-SHA256 context
func NewRFC6979HMACSHA256(key []byte) *RFC6979HMACSHA256 {
	rng := &RFC6979HMACSHA256{}

	// RFC6979 3.2.b: V = 0x01 0x01 0x01 ... 0x01 (32 bytes)
	for i := 0; i < 32; i++ {
		rng.v[i] = 0x01
	}

	// RFC6979 3.2.c: K = 0x00 0x00 0x00 ... 0x00 (32 bytes)
	for i := 0; i < 32; i++ {
		rng.k[i] = 0x00
	}

	// RFC6979 3.2.d: K = HMAC_K(V || 0x00 || key)
	hmac := NewHMACSHA256(rng.k[:])
	hmac.Write(rng.v[:])
	hmac.Write([]byte{0x00})
	hmac.Write(key)
	hmac.Finalize(rng.k[:])
	hmac.Clear()

	// V = HMAC_K(V)
	hmac = NewHMACSHA256(rng.k[:])
	hmac.Write(rng.v[:])
	hmac.Finalize(rng.v[:])
	hmac.Clear()

	// RFC6979 3.2.f: K = HMAC_K(V || 0x01 || key)
	hmac = NewHMACSHA256(rng.k[:])
	hmac.Write(rng.v[:])
	hmac.Write([]byte{0x01})
	hmac.Write(key)
	hmac.Finalize(rng.k[:])
	hmac.Clear()

	// V = HMAC_K(V)
	hmac = NewHMACSHA256(rng.k[:])
	hmac.Write(rng.v[:])
	hmac.Finalize(rng.v[:])
	hmac.Clear()

	rng.retry = 0
	return rng
}

// Generate generates output bytes using RFC6979
func (rng *RFC6979HMACSHA256) Generate(out []byte) {
	// RFC6979 3.2.h: If retry, update K and V
	if rng.retry != 0 {
		hmac := NewHMACSHA256(rng.k[:])
		hmac.Write(rng.v[:])
		hmac.Write([]byte{0x00})
		hmac.Finalize(rng.k[:])
		hmac.Clear()

		hmac = NewHMACSHA256(rng.k[:])
		hmac.Write(rng.v[:])
		hmac.Finalize(rng.v[:])
		hmac.Clear()
	}

	// Generate output bytes in 32-byte chunks
	outlen := len(out)
	for outlen > 0 {
		hmac := NewHMACSHA256(rng.k[:])
		hmac.Write(rng.v[:])
		hmac.Finalize(rng.v[:])
		hmac.Clear()

		now := outlen
		if now > 32 {
			now = 32
		}
		copy(out, rng.v[:now])
		out = out[now:]
		outlen -= now
	}

	rng.retry = 1
}

// Finalize finalizes the RFC6979 context
func (rng *RFC6979HMACSHA256) Finalize() {
	// Nothing to do, but matches the reference API
}

// Clear clears the RFC6979 context
func (rng *RFC6979HMACSHA256) Clear() {
	memclear(unsafe.Pointer(rng), unsafe.Sizeof(*rng))
}

// HashToScalar converts a message digest of any length to a scalar.
//
// Digests longer than 521 bits keep their leftmost 521 bits, shorter
// digests are used whole, then the result is reduced modulo the group
// order. This matches the ECDSA bit-string-to-integer conversion.
func HashToScalar(r *Scalar, digest []byte) {
	var b [fieldByteLen]byte

	if len(digest) >= fieldByteLen {
		copy(b[:], digest[:fieldByteLen])
		// 66 bytes hold 528 bits; drop the trailing 7
		for i := fieldByteLen - 1; i > 0; i-- {
			b[i] = (b[i] >> 7) | (b[i-1] << 1)
		}
		b[0] >>= 7
	} else {
		copy(b[fieldByteLen-len(digest):], digest)
	}

	r.setB66(b[:])
}
