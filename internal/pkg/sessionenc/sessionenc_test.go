// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package sessionenc

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestPadding(t *testing.T) {
	bs := 16
	for _, tst := range []struct {
		in, expected []byte
	}{
		{[]byte{}, []byte{16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16}},
		{[]byte{7}, []byte{7, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15}},
		{[]byte{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
			[]byte{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
				16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16}},
	} {
		padded := addPadding(bs, tst.in)
		if !bytes.Equal(padded, tst.expected) {
			t.Errorf("addPadding(%v) = %v, want %v", tst.in, padded, tst.expected)
		}
		orig, err := removePadding(bs, padded)
		if err != nil {
			t.Fatalf("removePadding: %v", err)
		}
		if !bytes.Equal(orig, tst.in) {
			t.Errorf("removePadding round trip = %v, want %v", orig, tst.in)
		}
	}
}

type devZero int

func (devZero) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	return len(b), nil
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	for _, plaintext := range [][]byte{
		[]byte{},
		[]byte("a"),
		[]byte("exactly sixteen!"),
		[]byte("a plaintext that spans more than one cipher block"),
	} {
		ct, err := Encrypt(rand.Reader, key, plaintext)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		pt, err := Decrypt(key, ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(pt, plaintext) {
			t.Errorf("round trip = %q, want %q", pt, plaintext)
		}
	}
}

func TestEncryptIsDeterministicUnderAFixedIVSource(t *testing.T) {
	key := make([]byte, 32)
	var zero devZero
	ct1, err := Encrypt(zero, key, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct2, err := Encrypt(zero, key, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(ct1, ct2) {
		t.Fatal("same key, IV source, and plaintext produced different ciphertexts")
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	key := make([]byte, 32)
	ct, err := Encrypt(rand.Reader, key, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct[len(ct)-1] ^= 0xff
	if _, err := Decrypt(key, ct); err == nil {
		t.Fatal("Decrypt accepted a ciphertext with a tampered authtag")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key1 := make([]byte, 32)
	key2 := make([]byte, 32)
	key2[0] = 1
	ct, err := Encrypt(rand.Reader, key1, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(key2, ct); err == nil {
		t.Fatal("Decrypt accepted a ciphertext under the wrong key")
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	if _, err := Encrypt(rand.Reader, make([]byte, 8), []byte("hello")); err == nil {
		t.Fatal("Encrypt accepted a key shorter than 16 bytes")
	}
}
