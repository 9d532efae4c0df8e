package p521

import (
	"errors"
)

// PublicKey represents a P-521 public key
type PublicKey struct {
	data [2 * fieldByteLen]byte // Internal representation: x || y
}

// Compression flags for public key serialization
const (
	ECCompressed   = 0x02
	ECUncompressed = 0x04
)

// Serialized point lengths
const (
	// Compressed encoding: prefix byte plus x coordinate
	CompressedPointLen = 1 + fieldByteLen // 67
	// Uncompressed encoding: prefix byte plus both coordinates
	UncompressedPointLen = 1 + 2*fieldByteLen // 133
)

// Codec errors
var (
	ErrInvalidLength = errors.New("invalid encoding length")
	ErrInvalidPrefix = errors.New("invalid point encoding prefix")
	ErrNonCanonical  = errors.New("coordinate not in canonical range")
	ErrNotOnCurve    = errors.New("point not on curve")
)

// pointToBytes stores an affine point in internal x||y format.
// Infinity is stored as all zeros, which cannot collide with a curve
// point since (0, 0) does not satisfy the curve equation.
func pointToBytes(buf []byte, point *GroupElementAffine) {
	if point.infinity {
		for i := range buf[:2*fieldByteLen] {
			buf[i] = 0
		}
		return
	}

	point.x.getB66(buf[:fieldByteLen])
	point.y.getB66(buf[fieldByteLen : 2*fieldByteLen])
}

// pointFromBytes loads an affine point from internal x||y format
func pointFromBytes(point *GroupElementAffine, buf []byte) {
	allZero := true
	for i := 0; i < 2*fieldByteLen; i++ {
		if buf[i] != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		point.setInfinity()
		return
	}

	point.x.setB66(buf[:fieldByteLen])
	point.y.setB66(buf[fieldByteLen : 2*fieldByteLen])
	point.infinity = false
}

// parsePointBytes decodes a SEC1 point encoding into an affine point.
// acceptIdentity allows the single-byte 0x00 identity encoding.
func parsePointBytes(point *GroupElementAffine, input []byte, acceptIdentity bool) error {
	if len(input) == 0 {
		return ErrInvalidLength
	}

	switch input[0] {
	case 0x00:
		if !acceptIdentity {
			return ErrInvalidPrefix
		}
		if len(input) != 1 {
			return ErrInvalidLength
		}
		point.setInfinity()
		return nil

	case 0x02, 0x03:
		if len(input) != CompressedPointLen {
			return ErrInvalidLength
		}

		var x FieldElement
		if err := x.setB66(input[1:]); err != nil {
			return ErrNonCanonical
		}

		odd := input[0] == 0x03
		if !point.setXOVar(&x, odd) {
			return ErrNotOnCurve
		}
		return nil

	case 0x04:
		if len(input) != UncompressedPointLen {
			return ErrInvalidLength
		}

		var x, y FieldElement
		if err := x.setB66(input[1 : 1+fieldByteLen]); err != nil {
			return ErrNonCanonical
		}
		if err := y.setB66(input[1+fieldByteLen:]); err != nil {
			return ErrNonCanonical
		}

		point.setXY(&x, &y)
		if !point.isValid() {
			return ErrNotOnCurve
		}
		return nil

	default:
		return ErrInvalidPrefix
	}
}

// serializePointBytes encodes an affine point in SEC1 form. The
// identity encodes as the single byte 0x00. Returns the number of
// bytes written, or 0 if the buffer is too small or flags are invalid.
func serializePointBytes(output []byte, point *GroupElementAffine, flags uint) int {
	if point.infinity {
		if len(output) < 1 {
			return 0
		}
		output[0] = 0x00
		return 1
	}

	point.x.normalize()
	point.y.normalize()

	switch flags {
	case ECCompressed:
		if len(output) < CompressedPointLen {
			return 0
		}
		if point.y.isOdd() {
			output[0] = 0x03
		} else {
			output[0] = 0x02
		}
		point.x.getB66(output[1:CompressedPointLen])
		return CompressedPointLen

	case ECUncompressed:
		if len(output) < UncompressedPointLen {
			return 0
		}
		output[0] = 0x04
		point.x.getB66(output[1 : 1+fieldByteLen])
		point.y.getB66(output[1+fieldByteLen : UncompressedPointLen])
		return UncompressedPointLen

	default:
		return 0
	}
}

// ParsePoint decodes a SEC1 point encoding, including the single-byte
// identity encoding, into an affine point.
func ParsePoint(point *GroupElementAffine, input []byte) error {
	return parsePointBytes(point, input, true)
}

// SerializePoint encodes an affine point in SEC1 form
func SerializePoint(output []byte, point *GroupElementAffine, flags uint) int {
	return serializePointBytes(output, point, flags)
}

// ECPubkeyParse parses a public key from bytes. The identity is not a
// valid public key and is rejected.
func ECPubkeyParse(pubkey *PublicKey, input []byte) error {
	var point GroupElementAffine
	if err := parsePointBytes(&point, input, false); err != nil {
		return err
	}

	pointToBytes(pubkey.data[:], &point)
	return nil
}

// ECPubkeySerialize serializes a public key to bytes. Returns the
// number of bytes written, or 0 on failure.
func ECPubkeySerialize(output []byte, pubkey *PublicKey, flags uint) int {
	var point GroupElementAffine
	pointFromBytes(&point, pubkey.data[:])

	if point.isInfinity() {
		return 0
	}

	return serializePointBytes(output, &point, flags)
}

// ECPubkeyCmp compares two public keys by their compressed serializations
func ECPubkeyCmp(pubkey1, pubkey2 *PublicKey) int {
	var buf1, buf2 [CompressedPointLen]byte
	ECPubkeySerialize(buf1[:], pubkey1, ECCompressed)
	ECPubkeySerialize(buf2[:], pubkey2, ECCompressed)

	for i := 0; i < CompressedPointLen; i++ {
		if buf1[i] < buf2[i] {
			return -1
		}
		if buf1[i] > buf2[i] {
			return 1
		}
	}

	return 0
}

// ECPubkeyCreate creates a public key from a private key
func ECPubkeyCreate(pubkey *PublicKey, seckey []byte) error {
	if len(seckey) != fieldByteLen {
		return ErrInvalidLength
	}

	var scalar Scalar
	if !scalar.setB66Seckey(seckey) {
		return ErrInvalidSeckey
	}

	var point GroupElementJacobian
	EcmultGen(&point, &scalar)

	var affine GroupElementAffine
	affine.setGEJ(&point)
	pointToBytes(pubkey.data[:], &affine)

	scalar.clear()
	point.clear()
	affine.clear()

	return nil
}

// pubkeyLoad loads a public key into an affine point
func pubkeyLoad(point *GroupElementAffine, pubkey *PublicKey) {
	pointFromBytes(point, pubkey.data[:])
}

// pubkeySave stores an affine point into a public key
func pubkeySave(pubkey *PublicKey, point *GroupElementAffine) {
	pointToBytes(pubkey.data[:], point)
}
