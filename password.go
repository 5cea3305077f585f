// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import (
	"github.com/frekui/snowpake/internal/pkg/curve"
	"github.com/frekui/snowpake/internal/pkg/lyra"
	"github.com/frekui/snowpake/internal/pkg/rng"
)

// Profile fixes the per-deployment constants the password engine needs:
// salt size and the memory-hard hash's cost parameters. A deployment picks
// exactly one of DesktopProfile or MobileProfile and never mixes the two.
type Profile struct {
	mobile     bool
	saltSize   int
	lyraParams lyra.Params
}

// DesktopProfile trades a larger time cost for a small, fixed memory
// footprint (T=1000, 8 rows of 4KB).
var DesktopProfile = Profile{mobile: false, saltSize: 8, lyraParams: lyra.DesktopParams}

// MobileProfile trades a larger memory footprint for a small time cost
// (T=2, 3000 rows of 4KB, ~12MB).
var MobileProfile = Profile{mobile: true, saltSize: 16, lyraParams: lyra.MobileParams}

// VerifierSize returns the wire size of a Verifier under this profile:
// the 64-byte point plus the profile's salt.
func (p Profile) VerifierSize() int { return 64 + p.saltSize }

// ChallengeSize returns the wire size of a server challenge under this
// profile: the masked 64-byte point plus the profile's salt.
func (p Profile) ChallengeSize() int { return 64 + p.saltSize }

// Verifier is the long-term password verifier a server stores per account:
// V = v·G for a password-derived scalar v, plus the salt v was derived
// with. Storing Verifier never reveals v itself.
type Verifier struct {
	V    curve.Point
	Salt []byte
}

// Bytes returns the wire encoding V‖salt.
func (v Verifier) Bytes() []byte {
	out := make([]byte, 0, 64+len(v.Salt))
	vb := v.V.Bytes()
	out = append(out, vb[:]...)
	return append(out, v.Salt...)
}

// VerifierFromBytes decodes a V‖salt encoding produced by Bytes.
func VerifierFromBytes(profile Profile, b []byte) (Verifier, error) {
	if len(b) != profile.VerifierSize() {
		return Verifier{}, ErrFailed
	}
	var vb [64]byte
	copy(vb[:], b[:64])
	pt, err := curve.PointFromBytes(vb)
	if err != nil {
		return Verifier{}, fail(err)
	}
	salt := make([]byte, profile.saltSize)
	copy(salt, b[64:])
	return Verifier{V: pt, Salt: salt}, nil
}

// ChallengeSecret is the server-side scratch a login attempt carries
// between ServerChallenge and ServerProof. It must not be reused across
// login attempts.
type ChallengeSecret struct {
	profile Profile
	e       curve.Mask
	x       curve.Scalar
	v       curve.Point
	xPrime  curve.Point // set only under MobileProfile
}

// passwordScalar derives the password-bound scalar v from (username,
// realm, password, salt): BLAKE2b binds the account identity into the
// memory-hard hash's salt, the memory-hard hash stretches the password,
// and the wide result is reduced into a curve scalar.
func passwordScalar(profile Profile, username, realm, password string, salt []byte) (curve.Scalar, error) {
	lyraSalt := blake2b256([]byte(realm), []byte(username), salt)
	wide, err := lyra.Hash([]byte(password), lyraSalt[:], profile.lyraParams, 64)
	if err != nil {
		return curve.Scalar{}, err
	}
	var wideArr [64]byte
	copy(wideArr[:], wide)
	return curve.ModQ(wideArr)
}

// maskSeed derives the 32-byte seed the Elligator mask is built from,
// binding the mask to one specific verifier.
func maskSeed(V curve.Point, salt []byte) [32]byte {
	vb := V.Bytes()
	return blake2b256(vb[:], salt)
}

// drawMaskedScalar draws a fresh ephemeral scalar under profile's
// distribution and masks its public point with E, retrying on a rejected
// draw or an unusable Elligator output.
func drawMaskedScalar(profile Profile, src *rng.Source, e curve.Mask) (curve.Scalar, curve.Point, curve.Point, error) {
	var scalar curve.Scalar
	var plain, masked curve.Point
	step := func() error {
		var s curve.Scalar
		var derr error
		if profile.mobile {
			var wide [64]byte
			if err := src.Random(wide[:]); err != nil {
				return err
			}
			s, derr = curve.ModQ(wide)
		} else {
			var raw [64]byte
			if err := src.Random(raw[:32]); err != nil {
				return err
			}
			s, derr = curve.ModQ(raw)
		}
		if derr != nil || s.IsZero() {
			return errInvalid
		}
		pt, ptPrime, eerr := curve.ElligatorEncrypt(s, e)
		if eerr != nil {
			return eerr
		}
		scalar, plain, masked = s, pt, ptPrime
		return nil
	}
	if err := retry(step); err != nil {
		return curve.Scalar{}, curve.Point{}, curve.Point{}, err
	}
	return scalar, plain, masked, nil
}

// transcriptScalarXY computes h = BLAKE2b(X′‖Y′) mod q, the mobile
// profile's extra binding between the server's and client's masked
// ephemeral points.
func transcriptScalarXY(xPrime, yPrime [64]byte) (curve.Scalar, error) {
	wide := blake2b512(xPrime[:], yPrime[:])
	return curve.ModQ(wide)
}

// passwordTranscript computes the proof/verifier pair for one PAKE round.
// The desktop profile hashes E‖SP‖Z; the mobile profile additionally binds
// the masked ephemeral points, E‖X′‖Y′‖SP‖Z. Implementations of the two
// profiles must never be cross-wired.
func passwordTranscript(profile Profile, e curve.Mask, xPrime, yPrime, sp [64]byte, z curve.Point) [64]byte {
	eBytes := e.Bytes()
	zBytes := z.Bytes()
	if profile.mobile {
		return blake2b512(eBytes[:], xPrime[:], yPrime[:], sp[:], zBytes[:])
	}
	return blake2b512(eBytes[:], sp[:], zBytes[:])
}

// GenerateVerifier creates a fresh password verifier for (username, realm,
// password) under profile, drawing a fresh salt. It retries with a new
// salt on the negligible chance that mul_gen rejects the derived scalar.
func GenerateVerifier(profile Profile, username, realm, password string) (Verifier, error) {
	src, err := rng.New()
	if err != nil {
		return Verifier{}, fail(err)
	}

	var verifier Verifier
	step := func() error {
		salt := make([]byte, profile.saltSize)
		if err := src.Random(salt); err != nil {
			return err
		}
		v, err := passwordScalar(profile, username, realm, password, salt)
		if err != nil {
			return err
		}
		if v.IsZero() {
			return errInvalid
		}
		V, err := curve.MulGen(v, true)
		if err != nil {
			return err
		}
		verifier = Verifier{V: V, Salt: salt}
		return nil
	}
	if err := retry(step); err != nil {
		return Verifier{}, err
	}
	return verifier, nil
}

// ServerChallenge begins a login attempt against a stored verifier,
// returning the wire challenge X′‖salt and the scratch ChallengeSecret
// ServerProof needs once the client responds.
func (s *Server) ServerChallenge(profile Profile, v Verifier) ([]byte, *ChallengeSecret, error) {
	if !s.initialized {
		return nil, nil, ErrFailed
	}
	seed := maskSeed(v.V, v.Salt)
	e := curve.Elligator(seed)

	x, _, xPrime, err := drawMaskedScalar(profile, s.rng, e)
	if err != nil {
		return nil, nil, err
	}

	secret := &ChallengeSecret{profile: profile, e: e, x: x, v: v.V}
	if profile.mobile {
		secret.xPrime = xPrime
	}

	xpBytes := xPrime.Bytes()
	out := make([]byte, 0, profile.ChallengeSize())
	out = append(out, xpBytes[:]...)
	out = append(out, v.Salt...)
	return out, secret, nil
}

// ClientProof answers a server challenge for (username, realm, password),
// returning the wire client proof Y′‖CPROOF and the server_verifier the
// caller must hold privately for ClientVerify.
func ClientProof(profile Profile, username, realm, password string, sp [64]byte, challenge []byte) ([]byte, [32]byte, error) {
	if len(challenge) != profile.ChallengeSize() {
		return nil, [32]byte{}, ErrFailed
	}
	var xpBytes [64]byte
	copy(xpBytes[:], challenge[:64])
	salt := make([]byte, profile.saltSize)
	copy(salt, challenge[64:])

	v, err := passwordScalar(profile, username, realm, password, salt)
	if err != nil {
		return nil, [32]byte{}, fail(err)
	}
	if v.IsZero() {
		return nil, [32]byte{}, fail(errInvalid)
	}
	V, err := curve.MulGen(v, true)
	if err != nil {
		return nil, [32]byte{}, fail(err)
	}

	seed := maskSeed(V, salt)
	e := curve.Elligator(seed)

	xPrime, err := curve.PointFromBytes(xpBytes)
	if err != nil {
		return nil, [32]byte{}, fail(err)
	}

	src, err := rng.New()
	if err != nil {
		return nil, [32]byte{}, fail(err)
	}
	y, _, yPrime, err := drawMaskedScalar(profile, src, e)
	if err != nil {
		return nil, [32]byte{}, err
	}
	ypBytes := yPrime.Bytes()

	var proofScalar curve.Scalar
	if profile.mobile {
		h, err := transcriptScalarXY(xpBytes, ypBytes)
		if err != nil {
			return nil, [32]byte{}, fail(err)
		}
		proofScalar = curve.MulModQ(v, h, y)
	} else {
		proofScalar = v
	}

	z, err := curve.ElligatorSecret(proofScalar, xPrime, e, nil, nil)
	if err != nil {
		return nil, [32]byte{}, fail(err)
	}

	proof := passwordTranscript(profile, e, xpBytes, ypBytes, sp, z)

	out := make([]byte, 0, 96)
	out = append(out, ypBytes[:]...)
	out = append(out, proof[:32]...)

	var serverVerifier [32]byte
	copy(serverVerifier[:], proof[32:])
	return out, serverVerifier, nil
}

// ServerProof validates a client proof against secret and, on success,
// returns server_proof for the client's ClientVerify step.
func (s *Server) ServerProof(secret *ChallengeSecret, clientProof []byte) ([32]byte, error) {
	if !s.initialized {
		return [32]byte{}, ErrFailed
	}
	if len(clientProof) != 96 {
		return [32]byte{}, ErrFailed
	}
	var ypBytes [64]byte
	copy(ypBytes[:], clientProof[:64])
	var cproof [32]byte
	copy(cproof[:], clientProof[64:])

	yPrime, err := curve.PointFromBytes(ypBytes)
	if err != nil {
		return [32]byte{}, fail(err)
	}

	var a curve.Scalar
	var b curve.Scalar
	var xpBytes [64]byte
	if secret.profile.mobile {
		xpBytes = secret.xPrime.Bytes()
		h, err := transcriptScalarXY(xpBytes, ypBytes)
		if err != nil {
			return [32]byte{}, fail(err)
		}
		a = secret.x
		b = curve.MulModQ(h, secret.x, curve.Zero())
	} else {
		a = curve.Zero()
		b = secret.x
	}
	vCopy := secret.v

	z, err := curve.ElligatorSecret(a, yPrime, secret.e, &b, &vCopy)
	if err != nil {
		return [32]byte{}, fail(err)
	}

	spBytes := s.pub.Bytes()
	proof := passwordTranscript(secret.profile, secret.e, xpBytes, ypBytes, spBytes, z)

	if !constEqual(proof[:32], cproof[:]) {
		return [32]byte{}, fail(errInvalid)
	}
	var serverProof [32]byte
	copy(serverProof[:], proof[32:])
	return serverProof, nil
}

// ClientVerify performs the client's final check: that server_verifier,
// held privately since ClientProof, matches the server_proof the server
// just returned.
func ClientVerify(serverVerifier, serverProof [32]byte) bool {
	return constEqual(serverVerifier[:], serverProof[:])
}
