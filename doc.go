// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

/*
Package snowpake implements three related protocols over a twisted Edwards
curve and BLAKE2b: an ephemeral Diffie-Hellman handshake with server-side
proof of possession of its static key, an Ed25519-style signature scheme
over that same static key, and an augmented password-authenticated key
exchange (PAKE) in which a stolen password file alone is not enough to
impersonate a user.

A Server holds the long-lived static key pair and is created once with
Generate (or restored with Load). Handshake, Sign, ServerChallenge, and
ServerProof are all methods on *Server.

A Client is created per connection attempt with NewClient (or Rekey, which
avoids a second draw from the OS entropy source) and is good for a single
handshake: Request produces its half of the handshake, Finish consumes the
server's response and yields the session key. GenerateVerifier,
ClientProof, and ClientVerify are free functions that drive password
registration and login; they own no long-lived state of their own.

The engine surfaces exactly one error, ErrFailed: distinguishing failure
reasons to a caller would leak information an attacker could use, so a
malformed message, a tampered signature, and a wrong password are all
indistinguishable from outside the package.

IMPORTANT NOTE: This code has been written for educational purposes only. No
experts in cryptography or IT security have reviewed it. Do not use it for
anything important.
*/
package snowpake
