// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.
//
// Package rng is the Randomness Adapter: a seeded/derived source of uniform
// bytes with a fork-derive operation that lets a child source be initialized
// from a parent's state without touching the OS entropy pool.
package rng

import (
	"crypto/rand"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// Source is a stirred random byte stream. It is not safe for concurrent use
// by multiple goroutines, matching the single-threaded-per-record model the
// rest of the engine assumes.
type Source struct {
	state [64]byte
}

func newBlake2b512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic("rng: blake2b.New512 rejected a nil key")
	}
	return h
}

// New returns a Source seeded from the OS entropy pool.
func New() (*Source, error) {
	s := &Source{}
	if err := s.Seed(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed mixes fresh OS entropy together with the caller-supplied seed bytes
// into the internal state. It always draws from the OS source even when seed
// is non-empty: seed augments the OS draw, it never replaces it.
func (s *Source) Seed(seed []byte) error {
	var osDraw [64]byte
	if _, err := io.ReadFull(rand.Reader, osDraw[:]); err != nil {
		return err
	}
	h := newBlake2b512()
	h.Write([]byte("snowpake-rng-seed"))
	h.Write(s.state[:])
	h.Write(osDraw[:])
	h.Write(seed)
	copy(s.state[:], h.Sum(nil))
	return nil
}

// Random writes len(out) uniform bytes and stirs the internal state
// afterwards, so that a compromise of the state after step i leaks nothing
// about the bytes produced at step i-1.
func (s *Source) Random(out []byte) error {
	r := hkdf.Expand(newBlake2b512, s.state[:], []byte("snowpake-rng-expand"))
	if _, err := io.ReadFull(r, out); err != nil {
		return err
	}
	h := newBlake2b512()
	h.Write([]byte("snowpake-rng-stir"))
	h.Write(s.state[:])
	h.Write(out)
	copy(s.state[:], h.Sum(nil))
	return nil
}

// Derive initializes a new child Source from this Source's state plus
// optional seed bytes, without drawing from the OS entropy source. It is
// used by client rekey to avoid blocking on OS entropy while still
// guaranteeing a fresh, independent-looking stream.
func (s *Source) Derive(seed []byte) *Source {
	h := newBlake2b512()
	h.Write([]byte("snowpake-rng-derive"))
	h.Write(s.state[:])
	h.Write(seed)
	child := &Source{}
	copy(child.state[:], h.Sum(nil))

	// Stir the parent forward too, so deriving twice from the same parent
	// with identical seeds never yields identical children.
	h2 := newBlake2b512()
	h2.Write([]byte("snowpake-rng-derive-stir"))
	h2.Write(s.state[:])
	copy(s.state[:], h2.Sum(nil))
	return child
}
