// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import "testing"

func TestGenerateProducesUsableServer(t *testing.T) {
	s, err := Generate([]byte("test-seed-1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !s.initialized {
		t.Fatal("Generate returned an uninitialized server")
	}
	if _, err := s.PublicKey(); err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Generate([]byte("test-seed-2"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantPub, err := s.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	var record [serverRecordSize]byte
	if err := s.Save(&record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, err := Load(record)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	gotPub, err := restored.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey on restored server: %v", err)
	}
	if gotPub != wantPub {
		t.Fatal("restored server has a different public key")
	}
	if restored.signKey != s.signKey {
		t.Fatal("restored server has a different signing sub-key")
	}
}

func TestLoadRejectsMismatchedPublicKey(t *testing.T) {
	s, err := Generate([]byte("test-seed-3"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var record [serverRecordSize]byte
	if err := s.Save(&record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	record[40] ^= 0xff // corrupt a byte inside the packed public key

	if _, err := Load(record); err == nil {
		t.Fatal("Load accepted a record with a tampered public key")
	}
}

func TestSaveRejectsUninitializedServer(t *testing.T) {
	var s Server
	var record [serverRecordSize]byte
	if err := s.Save(&record); err == nil {
		t.Fatal("Save succeeded on an uninitialized server")
	}
}

func TestClearZeroesServer(t *testing.T) {
	s, err := Generate([]byte("test-seed-4"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s.Clear()
	if s.initialized {
		t.Fatal("Clear left the server marked initialized")
	}
	if _, err := s.PublicKey(); err == nil {
		t.Fatal("PublicKey succeeded after Clear")
	}
}
