// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import "github.com/frekui/snowpake/internal/pkg/curve"

// SignatureSize is the bit-exact size of a signature, R‖s.
const SignatureSize = 96

// Sign produces a deterministic Schnorr-style signature over m using s's
// static key. The nonce is derived from m keyed by the server's signing
// sub-key, so signing the same message twice yields byte-identical
// signatures.
func (s *Server) Sign(m []byte) ([SignatureSize]byte, error) {
	if !s.initialized {
		return [SignatureSize]byte{}, ErrFailed
	}

	rWide, err := blake2b512Keyed(s.signKey[:], m)
	if err != nil {
		return [SignatureSize]byte{}, fail(err)
	}
	r, err := curve.ModQ(rWide)
	if err != nil {
		return [SignatureSize]byte{}, fail(err)
	}
	if r.IsZero() {
		return [SignatureSize]byte{}, fail(errInvalid)
	}

	R, err := curve.MulGen(r, true)
	if err != nil {
		return [SignatureSize]byte{}, fail(err)
	}

	spBytes := s.pub.Bytes()
	RBytes := R.Bytes()
	t, err := challengeScalar(spBytes, RBytes, m)
	if err != nil {
		return [SignatureSize]byte{}, fail(err)
	}

	sigScalar := curve.MulModQ(t, s.priv, r)

	var out [SignatureSize]byte
	copy(out[:64], RBytes[:])
	sBytes := sigScalar.Bytes()
	copy(out[64:], sBytes[:])
	return out, nil
}

// Verify reports whether sig is a valid signature over m under the static
// public key sp.
func Verify(sp [64]byte, m []byte, sig [SignatureSize]byte) bool {
	spPoint, err := curve.PointFromBytes(sp)
	if err != nil {
		return false
	}
	var RBytes [64]byte
	copy(RBytes[:], sig[:64])
	_, err = curve.PointFromBytes(RBytes)
	if err != nil {
		return false
	}
	var sBytes [32]byte
	copy(sBytes[:], sig[64:])
	sigScalar, err := curve.ScalarFromBytes(sBytes)
	if err != nil {
		return false
	}

	t, err := challengeScalar(sp, RBytes, m)
	if err != nil {
		return false
	}

	U, err := curve.SimulGen(sigScalar, t.Neg(), spPoint)
	if err != nil {
		return false
	}
	UBytes := U.Bytes()
	return UBytes == RBytes
}

// challengeScalar computes t = BLAKE2b-64(SP‖R‖M) mod q, the Fiat-Shamir
// challenge binding a signature to the signer's static key, the commitment
// point, and the message.
func challengeScalar(sp, R [64]byte, m []byte) (curve.Scalar, error) {
	wide := blake2b512(sp[:], R[:], m)
	return curve.ModQ(wide)
}
