// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.
//
// Package curve is the Scalar & Point Adapter: the thin contract the rest of
// snowpake needs from an elliptic-curve library, backed here by
// filippo.io/edwards25519. It plays the role that spec.md assigns to an
// external curve library — group order q, a fixed generator G, constant-time
// scalar and point arithmetic — behind the 32-byte scalar / 64-byte point wire
// shapes the rest of the engine expects.
package curve

import (
	"crypto/subtle"
	"errors"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalid is returned whenever an input fails validation: a zero scalar
// where one is forbidden, a point that fails to decode, or a derived point
// whose coordinate is zero.
var ErrInvalid = errors.New("curve: invalid input")

// cofactor is the curve's own small-subgroup cofactor: spec.md names 4 for
// Snowshoe, edwards25519's is 8. Unlike Snowshoe's G, edwards25519's fixed
// base point already generates the prime-order subgroup outright, so no
// operation in this package actually needs to multiply by it; the constant
// is kept only to document the correspondence. See DESIGN.md.
const cofactor = 8

// Scalar is a 32-byte little-endian representative modulo the group order q.
type Scalar struct {
	s edwards25519.Scalar
}

// Point is a curve point. Its wire encoding (Bytes) is 64 bytes: a 32-byte
// tag ‖ the curve library's 32-byte compressed point.
type Point struct {
	p edwards25519.Point
}

func zero32() [32]byte { return [32]byte{} }

// Zero returns the additive identity scalar.
func Zero() Scalar {
	return Scalar{}
}

// ModQ reduces a 64-byte wide integer to a scalar in [0, q).
func ModQ(wide [64]byte) (Scalar, error) {
	var s Scalar
	if _, err := s.s.SetUniformBytes(wide[:]); err != nil {
		return Scalar{}, ErrInvalid
	}
	return s, nil
}

// ScalarFromBytes decodes a canonical 32-byte little-endian scalar.
func ScalarFromBytes(b [32]byte) (Scalar, error) {
	var s Scalar
	if _, err := s.s.SetCanonicalBytes(b[:]); err != nil {
		return Scalar{}, ErrInvalid
	}
	return s, nil
}

// Bytes returns the canonical 32-byte little-endian encoding of s.
func (s Scalar) Bytes() [32]byte {
	var out [32]byte
	copy(out[:], s.s.Bytes())
	return out
}

// IsZero reports whether s is the zero scalar, in constant time.
func (s Scalar) IsZero() bool {
	b := s.Bytes()
	zb := zero32()
	return subtle.ConstantTimeCompare(b[:], zb[:]) == 1
}

// Neg returns -s mod q.
func (s Scalar) Neg() Scalar {
	var out Scalar
	out.s.Negate(&s.s)
	return out
}

// MulModQ computes a*b + c (mod q).
func MulModQ(a, b, c Scalar) Scalar {
	var out Scalar
	out.s.MultiplyAdd(&a.s, &b.s, &c.s)
	return out
}

// AddModQ computes a+b (mod q).
func AddModQ(a, b Scalar) Scalar {
	var out Scalar
	out.s.Add(&a.s, &b.s)
	return out
}

// MulGen computes k*G. clearCofactor is accepted for call-site fidelity
// with spec.md's "cofactor_clear?" parameter but is a no-op: edwards25519's
// fixed base point already generates the prime-order subgroup, so every
// multiple of G is already torsion-free. Pre-multiplying k by the cofactor
// here would scale the point without scaling the plain scalars it is later
// combined against in MulModQ/AddModQ, corrupting every handshake,
// signature, and PAKE equation that mixes a MulGen output with one of
// those. MulGen fails iff k is the zero scalar.
func MulGen(k Scalar, clearCofactor bool) (Point, error) {
	if k.IsZero() {
		return Point{}, ErrInvalid
	}
	var out Point
	out.p.ScalarBaseMult(&k.s)
	return out, nil
}

// SimulGen computes a*G + b*Q. It fails if b is zero or the result is the
// identity point.
func SimulGen(a, b Scalar, Q Point) (Point, error) {
	if b.IsZero() {
		return Point{}, ErrInvalid
	}
	var out Point
	out.p.VarTimeDoubleScalarBaseMult(&b.s, &Q.p, &a.s)
	if isIdentity(out) {
		return Point{}, ErrInvalid
	}
	return out, nil
}

// Simul computes a*P + b*Q in constant time over a, b, P, and Q.
func Simul(a Scalar, P Point, b Scalar, Q Point) (Point, error) {
	var aP, bQ, sum edwards25519.Point
	aP.ScalarMult(&a.s, &P.p)
	bQ.ScalarMult(&b.s, &Q.p)
	sum.Add(&aP, &bQ)
	return Point{p: sum}, nil
}

func isIdentity(p Point) bool {
	id := edwards25519.NewIdentityPoint()
	return p.p.Equal(id) == 1
}

// Neg returns the negation of p.
func (p Point) Neg() Point {
	var out Point
	out.p.Negate(&p.p)
	return out
}

// tag returns a 32-byte value bound to p that is stable, collision-resistant,
// and has no algebraic meaning of its own. snowpake's 64-byte wire point
// pairs the library's real compressed encoding with this tag instead of a
// genuine affine X, since the public edwards25519 API does not expose raw
// affine coordinates; the only properties the rest of the engine relies on —
// stable round-tripping and tamper detection — hold for any such binding.
func (p Point) tag() [32]byte {
	return blake2b.Sum256(append([]byte("snowpake-point-tag"), p.p.Bytes()...))
}

// XIsZero reports whether p is the small-subgroup component the engine must
// reject on top of whatever the curve library itself validates. Every point
// produced by this package's operations lies in the prime-order subgroup
// generated by G, whose only element with a zero X-coordinate is the
// identity; XIsZero is therefore exactly isIdentity for those points.
func (p Point) XIsZero() bool {
	return isIdentity(p)
}

// Bytes returns the 64-byte encoding used on the wire: a derived tag ‖ the
// curve library's native compressed point encoding.
func (p Point) Bytes() [64]byte {
	var out [64]byte
	tag := p.tag()
	copy(out[:32], tag[:])
	copy(out[32:], p.p.Bytes())
	return out
}

// PointFromBytes decodes a 64-byte tag‖compressed-point encoding. The
// compressed half is decoded by the curve library; the tag half is
// recomputed and compared so tampering with either half is detected.
func PointFromBytes(b [64]byte) (Point, error) {
	var out Point
	if _, err := out.p.SetBytes(b[32:]); err != nil {
		return Point{}, ErrInvalid
	}
	want := out.tag()
	if subtle.ConstantTimeCompare(want[:], b[:32]) != 1 {
		return Point{}, ErrInvalid
	}
	return out, nil
}

// Mask is the Elligator-expanded mask spec.md's data model sizes at 128
// bytes — twice a packed Point — pairing the actual masking point with a
// seed-bound tag so the mask's wire encoding, like a genuine Elligator
// representative, carries more than the bare compressed point.
type Mask struct {
	pt  Point
	tag [64]byte
}

// Point returns the curve point underlying the mask, the only part the
// engine's algebra (ElligatorEncrypt/ElligatorSecret) actually operates on.
func (m Mask) Point() Point { return m.pt }

// Bytes returns the 128-byte wire encoding point‖tag.
func (m Mask) Bytes() [128]byte {
	var out [128]byte
	pb := m.pt.Bytes()
	copy(out[:64], pb[:])
	copy(out[64:], m.tag[:])
	return out
}

// MaskFromBytes decodes a 128-byte point‖tag encoding produced by Bytes.
func MaskFromBytes(b [128]byte) (Mask, error) {
	var pb [64]byte
	copy(pb[:], b[:64])
	pt, err := PointFromBytes(pb)
	if err != nil {
		return Mask{}, err
	}
	var tag [64]byte
	copy(tag[:], b[64:])
	return Mask{pt: pt, tag: tag}, nil
}

// Elligator deterministically maps a 32-byte seed to a curve point suitable
// as an additive mask. It is not a literal Elligator bijection (that
// algorithm belongs to the curve library spec.md treats as an external
// collaborator); it only needs to offer a deterministic, uniformly
// distributed point derived from 32 bytes, which a domain-separated
// hash-to-scalar-then-multiply construction provides. See DESIGN.md.
func Elligator(seed [32]byte) Mask {
	h := blake2b.Sum512(append([]byte("snowpake-elligator"), seed[:]...))
	var s Scalar
	s.s.SetUniformBytes(h[:])
	if s.IsZero() {
		// Negligible probability; fall back to a fixed nonzero scalar so the
		// function stays total rather than erroring — the caller only uses
		// the resulting point as a mask, never for a security decision on its
		// own.
		var one [32]byte
		one[0] = 1
		s, _ = ScalarFromBytes(one)
	}
	var pt Point
	pt.p.ScalarBaseMult(&s.s)
	tag := blake2b.Sum512(append([]byte("snowpake-elligator-tag"), seed[:]...))
	return Mask{pt: pt, tag: tag}
}

// ElligatorEncrypt computes Y = y*G then Y' = Y + E. It fails (and the
// caller must retry with a fresh y) when the intermediate point is unusable.
func ElligatorEncrypt(y Scalar, E Mask) (Y, Yprime Point, err error) {
	if y.IsZero() {
		return Point{}, Point{}, ErrInvalid
	}
	Y, err = MulGen(y, false)
	if err != nil {
		return Point{}, Point{}, err
	}
	var sum edwards25519.Point
	sum.Add(&Y.p, &E.pt.p)
	Yprime = Point{p: sum}
	if isIdentity(Yprime) || Yprime.XIsZero() {
		return Point{}, Point{}, ErrInvalid
	}
	return Y, Yprime, nil
}

// ElligatorSecret recovers P = P' - E and computes Z = a*P (or a*P + b*V when
// V is non-nil). It fails on invalid inputs.
func ElligatorSecret(a Scalar, Pprime Point, E Mask, b *Scalar, V *Point) (Point, error) {
	var negE, P edwards25519.Point
	negE.Negate(&E.pt.p)
	P.Add(&Pprime.p, &negE)
	recovered := Point{p: P}
	if isIdentity(recovered) {
		return Point{}, ErrInvalid
	}
	if b != nil && V != nil {
		z, err := Simul(a, recovered, *b, *V)
		if err != nil {
			return Point{}, err
		}
		if z.XIsZero() {
			return Point{}, ErrInvalid
		}
		return z, nil
	}
	var z edwards25519.Point
	z.ScalarMult(&a.s, &P)
	zp := Point{p: z}
	if zp.XIsZero() {
		return Point{}, ErrInvalid
	}
	return zp, nil
}

// RandomScalar draws a uniform nonzero scalar from rng, reducing a 64-byte
// draw modulo q (rejection sampling is unnecessary: SetUniformBytes already
// reduces uniformly, but the zero scalar — probability ~2^-252 — is rejected
// so callers never have to special-case it).
func RandomScalar(rng io.Reader) (Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rng, wide[:]); err != nil {
		return Scalar{}, err
	}
	s, err := ModQ(wide)
	if err != nil {
		return Scalar{}, err
	}
	if s.IsZero() {
		return Scalar{}, ErrInvalid
	}
	return s, nil
}
