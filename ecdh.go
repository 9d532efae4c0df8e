package p521

import (
	"errors"
	"io"
	"unsafe"

	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/hkdf"
)

// ErrECDHFail is returned when ECDH computation fails
var ErrECDHFail = errors.New("ECDH computation failed")

// ECDHHashFunction is a function that hashes an EC point to derive a shared secret.
// It receives the affine coordinates as 66-byte big-endian arrays and writes
// the resulting secret to output, returning 1 on success and 0 on failure.
type ECDHHashFunction func(output []byte, x66, y66 []byte, data interface{}) int

// ecdhHashDefault is the default ECDH hash function: SHA-256 of the
// compressed representation of the shared point.
func ecdhHashDefault(output []byte, x66, y66 []byte, data interface{}) int {
	version := byte(0x02) | (y66[fieldByteLen-1] & 0x01)

	hasher := sha256simd.New()
	hasher.Write([]byte{version})
	hasher.Write(x66)
	sum := hasher.Sum(nil)
	copy(output, sum)
	memclear(unsafe.Pointer(&sum[0]), uintptr(len(sum)))
	return 1
}

// ECDH computes an EC Diffie-Hellman secret in constant time.
//
// The shared point seckey*pubkey is computed and passed through hashfp
// (the compressed-point SHA-256 when hashfp is nil). output must be large
// enough for the hash function's result, 32 bytes for the default.
func ECDH(output []byte, pubkey *PublicKey, seckey []byte, hashfp ECDHHashFunction, data interface{}) error {
	if hashfp == nil {
		hashfp = ecdhHashDefault
	}
	if pubkey == nil || len(seckey) != fieldByteLen {
		return ErrECDHFail
	}

	var pt GroupElementAffine
	pubkeyLoad(&pt, pubkey)
	if pt.isInfinity() {
		return ErrECDHFail
	}

	var s Scalar
	if !s.setB66Seckey(seckey) {
		return ErrECDHFail
	}

	var res GroupElementJacobian
	EcmultConst(&res, &s, &pt)

	var shared GroupElementAffine
	shared.setGEJ(&res)
	shared.x.normalize()
	shared.y.normalize()

	var x66, y66 [fieldByteLen]byte
	shared.x.getB66(x66[:])
	shared.y.getB66(y66[:])

	ret := hashfp(output, x66[:], y66[:], data)

	s.clear()
	shared.clear()
	res.clear()
	memclear(unsafe.Pointer(&x66), unsafe.Sizeof(x66))
	memclear(unsafe.Pointer(&y66), unsafe.Sizeof(y66))

	if ret == 0 {
		return ErrECDHFail
	}
	return nil
}

// ECDHXOnly computes a raw ECDH secret, writing the 66-byte x coordinate
// of the shared point to output66 without hashing. Callers that need a
// uniformly distributed key should prefer ECDH or ECDHWithHKDF.
func ECDHXOnly(output66 []byte, pubkey *PublicKey, seckey []byte) error {
	if len(output66) != fieldByteLen {
		return ErrECDHFail
	}
	return ECDH(output66, pubkey, seckey, func(output []byte, x66, y66 []byte, data interface{}) int {
		copy(output, x66)
		return 1
	}, nil)
}

// ECDHWithHKDF computes an ECDH secret and expands it with HKDF-SHA256.
//
// The x coordinate of the shared point is used as input keying material,
// and okm is filled with len(okm) bytes of output keying material derived
// under the given salt and info.
func ECDHWithHKDF(okm []byte, pubkey *PublicKey, seckey, salt, info []byte) error {
	var ikm [fieldByteLen]byte
	if err := ECDHXOnly(ikm[:], pubkey, seckey); err != nil {
		return err
	}

	r := hkdf.New(sha256simd.New, ikm[:], salt, info)
	_, err := io.ReadFull(r, okm)

	memclear(unsafe.Pointer(&ikm), unsafe.Sizeof(ikm))
	if err != nil {
		return ErrECDHFail
	}
	return nil
}
