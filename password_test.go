// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import "testing"

func runPAKERound(t *testing.T, profile Profile, srv *Server, v Verifier, username, realm, password string) error {
	t.Helper()
	sp, err := srv.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	challenge, secret, err := srv.ServerChallenge(profile, v)
	if err != nil {
		t.Fatalf("ServerChallenge: %v", err)
	}

	clientMsg, serverVerifier, err := ClientProof(profile, username, realm, password, sp, challenge)
	if err != nil {
		return err
	}

	serverProof, err := srv.ServerProof(secret, clientMsg)
	if err != nil {
		return err
	}

	if !ClientVerify(serverVerifier, serverProof) {
		t.Fatal("ClientVerify rejected a matching server proof")
	}
	return nil
}

func TestDesktopPAKEMutualAccept(t *testing.T) {
	srv, err := Generate([]byte("pk1"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	v, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	if len(v.Bytes()) != DesktopProfile.VerifierSize() {
		t.Fatalf("verifier size = %d, want %d", len(v.Bytes()), DesktopProfile.VerifierSize())
	}
	if err := runPAKERound(t, DesktopProfile, srv, v, "alice", "tabby.test", "correct horse battery staple"); err != nil {
		t.Fatalf("honest desktop PAKE round failed: %v", err)
	}
}

func TestMobilePAKEMutualAccept(t *testing.T) {
	srv, err := Generate([]byte("pk1-mobile"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	v, err := GenerateVerifier(MobileProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	if len(v.Bytes()) != MobileProfile.VerifierSize() {
		t.Fatalf("verifier size = %d, want %d", len(v.Bytes()), MobileProfile.VerifierSize())
	}
	if err := runPAKERound(t, MobileProfile, srv, v, "alice", "tabby.test", "correct horse battery staple"); err != nil {
		t.Fatalf("honest mobile PAKE round failed: %v", err)
	}
}

func TestPAKERejectsWrongPassword(t *testing.T) {
	srv, err := Generate([]byte("pk-wrong-pw"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	v, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	sp, err := srv.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	challenge, secret, err := srv.ServerChallenge(DesktopProfile, v)
	if err != nil {
		t.Fatalf("ServerChallenge: %v", err)
	}
	clientMsg, _, err := ClientProof(DesktopProfile, "alice", "tabby.test", "correct horse battery staplE", sp, challenge)
	if err != nil {
		t.Fatalf("ClientProof: %v", err)
	}
	if _, err := srv.ServerProof(secret, clientMsg); err == nil {
		t.Fatal("ServerProof accepted a proof built from the wrong password")
	}
}

func TestPAKERejectsWrongUsername(t *testing.T) {
	srv, err := Generate([]byte("pk-wrong-user"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	v, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	sp, err := srv.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	challenge, secret, err := srv.ServerChallenge(DesktopProfile, v)
	if err != nil {
		t.Fatalf("ServerChallenge: %v", err)
	}
	clientMsg, _, err := ClientProof(DesktopProfile, "mallory", "tabby.test", "correct horse battery staple", sp, challenge)
	if err != nil {
		t.Fatalf("ClientProof: %v", err)
	}
	if _, err := srv.ServerProof(secret, clientMsg); err == nil {
		t.Fatal("ServerProof accepted a proof built from the wrong username")
	}
}

func TestPAKERejectsWrongServerKey(t *testing.T) {
	srv, err := Generate([]byte("pk-real-server"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	impostor, err := Generate([]byte("pk-impostor-server"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	impostorPub, err := impostor.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	v, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	challenge, secret, err := srv.ServerChallenge(DesktopProfile, v)
	if err != nil {
		t.Fatalf("ServerChallenge: %v", err)
	}
	// Client builds its proof transcript against the impostor's static key.
	clientMsg, _, err := ClientProof(DesktopProfile, "alice", "tabby.test", "correct horse battery staple", impostorPub, challenge)
	if err != nil {
		t.Fatalf("ClientProof: %v", err)
	}
	if _, err := srv.ServerProof(secret, clientMsg); err == nil {
		t.Fatal("ServerProof accepted a proof built against the wrong server key")
	}
}

func TestMobileAndDesktopVerifiersDiffer(t *testing.T) {
	vd, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier desktop: %v", err)
	}
	vm, err := GenerateVerifier(MobileProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier mobile: %v", err)
	}
	if len(vd.Bytes()) == len(vm.Bytes()) {
		t.Fatal("desktop and mobile verifiers have the same wire size")
	}
}

func TestVerifierAloneIsNotEnoughToProveKnowledge(t *testing.T) {
	srv, err := Generate([]byte("pk-soundness"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	v, err := GenerateVerifier(DesktopProfile, "alice", "tabby.test", "correct horse battery staple")
	if err != nil {
		t.Fatalf("GenerateVerifier: %v", err)
	}
	_, secret, err := srv.ServerChallenge(DesktopProfile, v)
	if err != nil {
		t.Fatalf("ServerChallenge: %v", err)
	}

	// An attacker holding only (V, salt) — not the password — cannot guess
	// the masking point E (derived from V‖salt, which they do have) into a
	// valid CPROOF without running passwordScalar on a guessed password; a
	// fabricated client message is rejected.
	var forged [96]byte
	if _, err := srv.ServerProof(secret, forged[:]); err == nil {
		t.Fatal("ServerProof accepted a forged client proof with no password knowledge")
	}
}
