// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import (
	"github.com/frekui/snowpake/internal/pkg/curve"
	"github.com/frekui/snowpake/internal/pkg/rng"
)

// signingKeyLabel personalizes the sub-key the signature engine derives from
// a server's static private scalar, keeping it domain-separated from the
// scalar's use in the handshake.
var signingKeyLabel = []byte("snowpake-signing-subkey")

// Server holds a long-lived static key pair and the state needed to drive
// the handshake and signature engines as the responder. A Server must be
// built with Generate or Load before any other method is called.
type Server struct {
	priv    curve.Scalar
	pub     curve.Point
	signKey [32]byte
	rng     *rng.Source

	initialized bool
}

// Generate draws a fresh static key pair from a fresh entropy source and
// returns a ready-to-use Server. seed, if non-empty, is mixed into the
// entropy source alongside the OS draw; pass nil in production.
func Generate(seed []byte) (*Server, error) {
	src, err := rng.New()
	if err != nil {
		return nil, fail(err)
	}
	if len(seed) > 0 {
		if err := src.Seed(seed); err != nil {
			return nil, fail(err)
		}
	}

	s := &Server{rng: src}
	if err := retry(s.generateOnce); err != nil {
		s.Clear()
		return nil, err
	}
	s.initialized = true
	return s, nil
}

func (s *Server) generateOnce() error {
	var draw [64]byte
	if err := s.rng.Random(draw[:]); err != nil {
		return err
	}
	defer zero(draw[:])

	priv, err := curve.ModQ(draw)
	if err != nil || priv.IsZero() {
		return errInvalid
	}
	pub, err := curve.MulGen(priv, true)
	if err != nil {
		return err
	}
	signKey, err := deriveSigningKey(priv)
	if err != nil {
		return err
	}

	s.priv = priv
	s.pub = pub
	s.signKey = signKey
	return nil
}

func deriveSigningKey(priv curve.Scalar) ([32]byte, error) {
	b := priv.Bytes()
	defer zero(b[:])
	return blake2b256Keyed(signingKeyLabel, b[:])
}

// serverRecordSize is the size of the packed private‖public‖signKey record
// Save and Load exchange: 32-byte scalar, 64-byte point, 32-byte sub-key.
const serverRecordSize = 32 + 64 + 32

// Save packs the server's static key material into a 128-byte record
// suitable for at-rest storage. The record contains secret material and
// must be protected by the caller.
func (s *Server) Save(out *[serverRecordSize]byte) error {
	if !s.initialized {
		return ErrFailed
	}
	priv := s.priv.Bytes()
	pub := s.pub.Bytes()
	copy(out[:32], priv[:])
	copy(out[32:96], pub[:])
	copy(out[96:], s.signKey[:])
	return nil
}

// Load restores a Server from a record produced by Save, re-deriving and
// checking the public key against the private scalar rather than trusting
// the stored copy.
func Load(in [serverRecordSize]byte) (*Server, error) {
	var privBytes [32]byte
	var pubBytes [64]byte
	copy(privBytes[:], in[:32])
	copy(pubBytes[:], in[32:96])

	priv, err := curve.ScalarFromBytes(privBytes)
	if err != nil || priv.IsZero() {
		return nil, fail(errInvalid)
	}
	wantPub, err := curve.MulGen(priv, true)
	if err != nil {
		return nil, fail(err)
	}
	gotPub := wantPub.Bytes()
	if !constEqual(gotPub[:], pubBytes[:]) {
		return nil, fail(errInvalid)
	}

	src, err := rng.New()
	if err != nil {
		return nil, fail(err)
	}

	s := &Server{priv: priv, pub: wantPub, rng: src}
	copy(s.signKey[:], in[96:])
	s.initialized = true
	return s, nil
}

// PublicKey returns the server's static public point, the value clients
// must already know (or pin) to run a handshake or verify a signature.
func (s *Server) PublicKey() ([64]byte, error) {
	if !s.initialized {
		return [64]byte{}, ErrFailed
	}
	return s.pub.Bytes(), nil
}

// Clear zeroizes every secret field and marks the Server unusable. Callers
// that no longer need a Server should call Clear rather than letting it be
// reclaimed by the garbage collector with secrets still resident.
func (s *Server) Clear() {
	privBytes := s.priv.Bytes()
	zero(privBytes[:])
	zero(s.signKey[:])
	s.priv = curve.Scalar{}
	s.pub = curve.Point{}
	s.signKey = [32]byte{}
	s.initialized = false
}
