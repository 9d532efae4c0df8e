package p521

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seckeyFromInt(v uint) []byte {
	var s Scalar
	s.setInt(v)
	out := make([]byte, fieldByteLen)
	s.getB66(out)
	return out
}

func TestPubkeyCreateGenerator(t *testing.T) {
	// 1 * G serializes as the uncompressed generator
	var pubkey PublicKey
	require.NoError(t, ECPubkeyCreate(&pubkey, seckeyFromInt(1)))

	var out [UncompressedPointLen]byte
	n := ECPubkeySerialize(out[:], &pubkey, ECUncompressed)
	require.Equal(t, UncompressedPointLen, n)
	require.Equal(t, byte(ECUncompressed), out[0])

	var wantX, wantY [fieldByteLen]byte
	GeneratorX.getB66(wantX[:])
	GeneratorY.getB66(wantY[:])
	require.Equal(t, wantX[:], out[1:1+fieldByteLen])
	require.Equal(t, wantY[:], out[1+fieldByteLen:])
}

func TestPubkeyParseSerializeRoundTrip(t *testing.T) {
	var pubkey PublicKey
	require.NoError(t, ECPubkeyCreate(&pubkey, scalarTestA[:]))

	// Uncompressed round trip
	var unc [UncompressedPointLen]byte
	require.Equal(t, UncompressedPointLen, ECPubkeySerialize(unc[:], &pubkey, ECUncompressed))

	var parsed PublicKey
	require.NoError(t, ECPubkeyParse(&parsed, unc[:]))
	require.Equal(t, 0, ECPubkeyCmp(&pubkey, &parsed))

	// Compressed round trip
	var comp [CompressedPointLen]byte
	require.Equal(t, CompressedPointLen, ECPubkeySerialize(comp[:], &pubkey, ECCompressed))
	require.Contains(t, []byte{0x02, 0x03}, comp[0])

	require.NoError(t, ECPubkeyParse(&parsed, comp[:]))
	require.Equal(t, 0, ECPubkeyCmp(&pubkey, &parsed))
}

func TestPubkeyParseRejects(t *testing.T) {
	var pubkey PublicKey

	// x = 3 is not the abscissa of a curve point
	var badComp [CompressedPointLen]byte
	badComp[0] = 0x02
	badComp[CompressedPointLen-1] = 0x03
	require.ErrorIs(t, ECPubkeyParse(&pubkey, badComp[:]), ErrNotOnCurve)

	// Coordinates must be below the field modulus
	var nonCanon [CompressedPointLen]byte
	nonCanon[0] = 0x02
	nonCanon[1] = 0x01
	for i := 2; i < CompressedPointLen; i++ {
		nonCanon[i] = 0xFF
	}
	require.ErrorIs(t, ECPubkeyParse(&pubkey, nonCanon[:]), ErrNonCanonical)

	// Unknown prefix
	var badPrefix [CompressedPointLen]byte
	badPrefix[0] = 0x05
	require.ErrorIs(t, ECPubkeyParse(&pubkey, badPrefix[:]), ErrInvalidPrefix)

	// Prefix and length must agree
	var short [CompressedPointLen]byte
	short[0] = 0x04
	require.ErrorIs(t, ECPubkeyParse(&pubkey, short[:]), ErrInvalidLength)
	require.ErrorIs(t, ECPubkeyParse(&pubkey, nil), ErrInvalidLength)

	// An uncompressed point must satisfy the curve equation
	var pk PublicKey
	require.NoError(t, ECPubkeyCreate(&pk, scalarTestA[:]))
	var unc [UncompressedPointLen]byte
	ECPubkeySerialize(unc[:], &pk, ECUncompressed)
	unc[UncompressedPointLen-1] ^= 0x01
	require.ErrorIs(t, ECPubkeyParse(&pubkey, unc[:]), ErrNotOnCurve)
}

func TestPointIdentityCodec(t *testing.T) {
	// The identity encodes as a single zero byte
	var inf GroupElementAffine
	inf.setInfinity()

	var buf [UncompressedPointLen]byte
	n := SerializePoint(buf[:], &inf, ECUncompressed)
	require.Equal(t, 1, n)
	require.Equal(t, byte(0x00), buf[0])

	var parsed GroupElementAffine
	require.NoError(t, ParsePoint(&parsed, buf[:1]))
	require.True(t, parsed.isInfinity())

	// Public keys reject the identity
	var pubkey PublicKey
	require.Error(t, ECPubkeyParse(&pubkey, buf[:1]))
}

func TestPointParseGenerator(t *testing.T) {
	var comp [CompressedPointLen]byte
	n := SerializePoint(comp[:], &Generator, ECCompressed)
	require.Equal(t, CompressedPointLen, n)

	var parsed GroupElementAffine
	require.NoError(t, ParsePoint(&parsed, comp[:]))
	require.True(t, parsed.equal(&Generator))
}

func TestPubkeyCmp(t *testing.T) {
	var pk1, pk2 PublicKey
	require.NoError(t, ECPubkeyCreate(&pk1, seckeyFromInt(1)))
	require.NoError(t, ECPubkeyCreate(&pk2, seckeyFromInt(2)))

	require.Equal(t, 0, ECPubkeyCmp(&pk1, &pk1))
	c12 := ECPubkeyCmp(&pk1, &pk2)
	c21 := ECPubkeyCmp(&pk2, &pk1)
	require.NotEqual(t, 0, c12)
	require.Equal(t, -c12, c21)
}

func TestSeckeyVerify(t *testing.T) {
	require.True(t, ECSeckeyVerify(scalarTestA[:]))
	require.False(t, ECSeckeyVerify(seckeyFromInt(0)))
	require.False(t, ECSeckeyVerify(orderBytes[:]))
	require.False(t, ECSeckeyVerify(make([]byte, 32)))
}

func TestSeckeyGenerate(t *testing.T) {
	seckey, err := ECSeckeyGenerate(nil)
	require.NoError(t, err)
	require.Len(t, seckey, fieldByteLen)
	require.True(t, ECSeckeyVerify(seckey))

	seckey2, pubkey, err := ECKeyPairGenerate(nil)
	require.NoError(t, err)
	require.True(t, ECSeckeyVerify(seckey2))

	var expect PublicKey
	require.NoError(t, ECPubkeyCreate(&expect, seckey2))
	require.Equal(t, 0, ECPubkeyCmp(pubkey, &expect))
}

func TestSeckeyNegate(t *testing.T) {
	seckey := append([]byte(nil), scalarTestA[:]...)
	require.True(t, ECSeckeyNegate(seckey))

	// The negated key generates the negated public key
	var pk, negPk PublicKey
	require.NoError(t, ECPubkeyCreate(&pk, scalarTestA[:]))
	require.NoError(t, ECPubkeyCreate(&negPk, seckey))

	var a, b GroupElementAffine
	pubkeyLoad(&a, &pk)
	pubkeyLoad(&b, &negPk)
	var negA GroupElementAffine
	negA.negate(&a)
	require.True(t, negA.equal(&b))
}

func TestTweakAddConsistency(t *testing.T) {
	tweak := seckeyFromInt(0x517ac3)

	// (d + t)*G
	seckey := append([]byte(nil), scalarTestA[:]...)
	require.NoError(t, ECSeckeyTweakAdd(seckey, tweak))
	var fromSeckey PublicKey
	require.NoError(t, ECPubkeyCreate(&fromSeckey, seckey))

	// d*G + t*G
	var fromPubkey PublicKey
	require.NoError(t, ECPubkeyCreate(&fromPubkey, scalarTestA[:]))
	require.NoError(t, ECPubkeyTweakAdd(&fromPubkey, tweak))

	require.Equal(t, 0, ECPubkeyCmp(&fromSeckey, &fromPubkey))
}

func TestTweakMulConsistency(t *testing.T) {
	tweak := seckeyFromInt(0x2b9d07)

	// (d * t)*G
	seckey := append([]byte(nil), scalarTestA[:]...)
	require.NoError(t, ECSeckeyTweakMul(seckey, tweak))
	var fromSeckey PublicKey
	require.NoError(t, ECPubkeyCreate(&fromSeckey, seckey))

	// t * (d*G)
	var fromPubkey PublicKey
	require.NoError(t, ECPubkeyCreate(&fromPubkey, scalarTestA[:]))
	require.NoError(t, ECPubkeyTweakMul(&fromPubkey, tweak))

	require.Equal(t, 0, ECPubkeyCmp(&fromSeckey, &fromPubkey))
}

func TestTweakRejects(t *testing.T) {
	seckey := append([]byte(nil), scalarTestA[:]...)
	require.Error(t, ECSeckeyTweakAdd(seckey, orderBytes[:]))
	require.Error(t, ECSeckeyTweakMul(seckey, seckeyFromInt(0)))
}
