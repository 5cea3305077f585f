// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
)

// blake2b512 returns the unkeyed 64-byte BLAKE2b digest of the concatenation
// of data, matching the teacher's single hasher() call site but widened to
// take a variadic list of byte slices so transcript hashing never needs an
// intermediate buffer.
func blake2b512(data ...[]byte) [64]byte {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic("snowpake: blake2b.New512 rejected a nil key")
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// blake2b512Keyed returns the 64-byte BLAKE2b digest of data keyed by key,
// used to derive a signature's deterministic nonce from the message.
func blake2b512Keyed(key, data []byte) ([64]byte, error) {
	h, err := blake2b.New512(key)
	if err != nil {
		return [64]byte{}, err
	}
	h.Write(data)
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// blake2b256Keyed returns the 32-byte BLAKE2b digest of data keyed by key,
// used to derive the server's signing sub-key and to key the deterministic
// signature nonce.
func blake2b256Keyed(key, data []byte) ([32]byte, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return [32]byte{}, err
	}
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// blake2b256 returns the unkeyed 32-byte BLAKE2b digest of data.
func blake2b256(data ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("snowpake: blake2b.New256 rejected a nil key")
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// constEqual performs a constant-time byte comparison. All proof and
// verifier comparisons in this package (spec.md §8's testable property 9)
// must go through this, never bytes.Equal.
func constEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
