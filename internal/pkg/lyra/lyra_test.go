// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package lyra

import (
	"bytes"
	"testing"
)

// tinyParams keeps the test suite fast; the cost profile itself is exercised
// by the desktop/mobile profile wiring in the password engine tests.
var tinyParams = Params{TimeCost: 1, Rows: 1, RowSize: 1024}

func TestHashIsDeterministic(t *testing.T) {
	h1, err := Hash([]byte("correct horse battery staple"), []byte("salt1234"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash([]byte("correct horse battery staple"), []byte("salt1234"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(h1, h2) {
		t.Fatal("Hash is not deterministic for identical inputs")
	}
}

func TestHashDiffersBySalt(t *testing.T) {
	h1, err := Hash([]byte("password"), []byte("salt1234"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash([]byte("password"), []byte("salt5678"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(h1, h2) {
		t.Fatal("different salts produced the same hash")
	}
}

func TestHashDiffersByPassword(t *testing.T) {
	h1, err := Hash([]byte("password1"), []byte("salt1234"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash([]byte("password2"), []byte("salt1234"), tinyParams, 64)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(h1, h2) {
		t.Fatal("different passwords produced the same hash")
	}
}

func TestScryptNIsPowerOfTwo(t *testing.T) {
	for _, p := range []Params{DesktopParams, MobileParams, tinyParams} {
		n := p.scryptN()
		if n&(n-1) != 0 {
			t.Fatalf("scryptN() = %d is not a power of two", n)
		}
	}
}
