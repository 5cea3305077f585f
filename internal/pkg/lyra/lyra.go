// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.
//
// Package lyra wraps the memory-hard password hash ("Lyra" in spec.md's
// terms) behind the two cost profiles the password engine needs. The
// underlying primitive is scrypt, the memory-hard KDF already in the Go
// ecosystem's crypto stack, parameterized so its (N, r, p) triple reproduces
// the spec's notion of a time cost and a row count over fixed-size rows.
package lyra

import "golang.org/x/crypto/scrypt"

// Params mirrors spec.md §6's per-profile Lyra parameters: a time cost, a
// memory cost expressed as a row count, and a fixed row size in bytes.
type Params struct {
	TimeCost int
	Rows     int
	RowSize  int
}

// DesktopParams is the desktop profile: T=1000, M=8 rows of 4KB (32KB total).
var DesktopParams = Params{TimeCost: 1000, Rows: 8, RowSize: 4096}

// MobileParams is the mobile profile: T=2, M=3000 rows of 4KB (~12MB total).
var MobileParams = Params{TimeCost: 2, Rows: 3000, RowSize: 4096}

// scryptN maps a row count and row size to scrypt's N (CPU/memory cost)
// parameter, so that N*128*r bytes of scratch space approximates Rows*RowSize
// bytes of working memory (scrypt's r is fixed at 8, its standard value).
// N starts at 2, the smallest value scrypt accepts.
const scryptR = 8

func (p Params) scryptN() int {
	bytesWanted := p.Rows * p.RowSize
	n := 2
	for n*128*scryptR < bytesWanted {
		n <<= 1
	}
	return n
}

// Hash derives outLen bytes from password and salt under the given cost
// profile. TimeCost maps onto scrypt's parallelization parameter: scrypt
// reuses the same N*r scratch buffer across each of its p passes, so raising
// p raises running time without raising peak memory, the same trade-off
// spec.md's separate T-cost knob makes against its fixed row count. A
// non-nil error indicates the underlying scrypt parameters were rejected
// (e.g. N not a power of two, or r*p too large) — callers treat this the
// same as any other engine failure.
func Hash(password, salt []byte, p Params, outLen int) ([]byte, error) {
	return scrypt.Key(password, salt, p.scryptN(), scryptR, p.TimeCost, outLen)
}
