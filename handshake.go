// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package snowpake

import (
	"github.com/frekui/snowpake/internal/pkg/curve"
	"github.com/frekui/snowpake/internal/pkg/rng"
)

// ClientRequestSize, ServerResponseSize, and SessionKeySize are the
// bit-exact wire sizes of the handshake's two messages and its output.
const (
	ClientRequestSize  = 96
	ServerResponseSize = 128
	SessionKeySize     = 32
)

// Client is an ephemeral handshake participant: an ephemeral key pair, a
// nonce, and an RNG instance, good for exactly one handshake.
type Client struct {
	priv  curve.Scalar
	pub   curve.Point
	nonce [32]byte
	rng   *rng.Source

	initialized bool
	used        bool
}

// NewClient draws a fresh ephemeral key pair and nonce from a fresh entropy
// source. seed, if non-empty, is mixed into the entropy source alongside
// the OS draw.
func NewClient(seed []byte) (*Client, error) {
	src, err := rng.New()
	if err != nil {
		return nil, fail(err)
	}
	if len(seed) > 0 {
		if err := src.Seed(seed); err != nil {
			return nil, fail(err)
		}
	}
	return newClientFromSource(src)
}

// Rekey derives a fresh Client from an existing one without drawing from
// the OS entropy source, producing a fresh ephemeral key pair and nonce
// every time even when called repeatedly with the same seed.
func Rekey(parent *Client, seed []byte) (*Client, error) {
	if !parent.initialized {
		return nil, ErrFailed
	}
	child := parent.rng.Derive(seed)
	return newClientFromSource(child)
}

func newClientFromSource(src *rng.Source) (*Client, error) {
	c := &Client{rng: src}
	if err := retry(c.generateOnce); err != nil {
		c.Clear()
		return nil, err
	}
	c.initialized = true
	return c, nil
}

func (c *Client) generateOnce() error {
	var draw [64]byte
	if err := c.rng.Random(draw[:]); err != nil {
		return err
	}
	defer zero(draw[:])

	priv, err := curve.ModQ(draw)
	if err != nil || priv.IsZero() {
		return errInvalid
	}
	pub, err := curve.MulGen(priv, false)
	if err != nil {
		return err
	}
	var nonce [32]byte
	if err := c.rng.Random(nonce[:]); err != nil {
		return err
	}

	c.priv = priv
	c.pub = pub
	c.nonce = nonce
	return nil
}

// Request returns the client's 96-byte handshake request, CP‖CN.
func (c *Client) Request() ([ClientRequestSize]byte, error) {
	if !c.initialized || c.used {
		return [ClientRequestSize]byte{}, ErrFailed
	}
	var out [ClientRequestSize]byte
	cp := c.pub.Bytes()
	copy(out[:64], cp[:])
	copy(out[64:], c.nonce[:])
	return out, nil
}

// Clear zeroizes the client's secret fields and marks it unusable.
func (c *Client) Clear() {
	privBytes := c.priv.Bytes()
	zero(privBytes[:])
	zero(c.nonce[:])
	c.priv = curve.Scalar{}
	c.pub = curve.Point{}
	c.nonce = [32]byte{}
	c.initialized = false
}

// Handshake processes a client request and returns the 128-byte server
// response EP‖SN‖PROOF, the session key, or ErrFailed. s must be
// initialized.
func (s *Server) Handshake(request [ClientRequestSize]byte) ([ServerResponseSize]byte, [SessionKeySize]byte, error) {
	if !s.initialized {
		return [ServerResponseSize]byte{}, [SessionKeySize]byte{}, ErrFailed
	}

	var cpBytes [64]byte
	copy(cpBytes[:], request[:64])
	var cn [32]byte
	copy(cn[:], request[64:])

	cp, err := curve.PointFromBytes(cpBytes)
	if err != nil {
		return [ServerResponseSize]byte{}, [SessionKeySize]byte{}, fail(err)
	}

	var ep curve.Point
	var sn [32]byte
	var sessionKey [32]byte
	var proof [32]byte

	step := func() error {
		var eDraw [64]byte
		if err := s.rng.Random(eDraw[:]); err != nil {
			return err
		}
		defer zero(eDraw[:])
		e, err := curve.ModQ(eDraw)
		if err != nil || e.IsZero() {
			return errInvalid
		}
		if err := s.rng.Random(sn[:]); err != nil {
			return err
		}
		ep, err = curve.MulGen(e, false)
		if err != nil {
			return err
		}

		epBytes := ep.Bytes()
		spBytes := s.pub.Bytes()
		transcript := blake2b512(cpBytes[:], cn[:], epBytes[:], spBytes[:], sn[:])
		h, err := curve.ModQ(transcript)
		if err != nil {
			return err
		}
		if h.IsZero() {
			return errInvalid
		}

		d := curve.MulModQ(h, s.priv, curve.Zero())
		t, err := curve.Simul(e, cp, d, cp)
		if err != nil {
			return err
		}
		if t.XIsZero() {
			return errInvalid
		}

		tBytes := t.Bytes()
		km := blake2b512(tBytes[:], transcript[:])
		copy(sessionKey[:], km[:32])
		copy(proof[:], km[32:])
		return nil
	}
	if err := retry(step); err != nil {
		return [ServerResponseSize]byte{}, [SessionKeySize]byte{}, err
	}

	var out [ServerResponseSize]byte
	epBytes := ep.Bytes()
	copy(out[:64], epBytes[:])
	copy(out[64:96], sn[:])
	copy(out[96:], proof[:])
	return out, sessionKey, nil
}

// Finish processes a server response against the client's own request and
// returns the shared session key, or ErrFailed. The Client must not have
// been used for Finish before.
func (c *Client) Finish(sp [64]byte, response [ServerResponseSize]byte) ([SessionKeySize]byte, error) {
	if !c.initialized || c.used {
		return [SessionKeySize]byte{}, ErrFailed
	}
	c.used = true

	var epBytes [64]byte
	copy(epBytes[:], response[:64])
	var sn [32]byte
	copy(sn[:], response[64:96])
	var wantProof [32]byte
	copy(wantProof[:], response[96:])

	ep, err := curve.PointFromBytes(epBytes)
	if err != nil {
		return [SessionKeySize]byte{}, fail(err)
	}
	sppt, err := curve.PointFromBytes(sp)
	if err != nil {
		return [SessionKeySize]byte{}, fail(err)
	}

	cpBytes := c.pub.Bytes()
	transcript := blake2b512(cpBytes[:], c.nonce[:], epBytes[:], sp[:], sn[:])
	h, err := curve.ModQ(transcript)
	if err != nil || h.IsZero() {
		return [SessionKeySize]byte{}, fail(errInvalid)
	}

	d := curve.MulModQ(h, c.priv, curve.Zero())
	if d.IsZero() {
		return [SessionKeySize]byte{}, fail(errInvalid)
	}

	t, err := curve.Simul(c.priv, ep, d, sppt)
	if err != nil {
		return [SessionKeySize]byte{}, fail(err)
	}
	if t.XIsZero() {
		return [SessionKeySize]byte{}, fail(errInvalid)
	}

	tBytes := t.Bytes()
	km := blake2b512(tBytes[:], transcript[:])
	var sessionKey [32]byte
	copy(sessionKey[:], km[:32])
	gotProof := km[32:]

	if !constEqual(gotProof, wantProof[:]) {
		zero(sessionKey[:])
		return [SessionKeySize]byte{}, fail(errInvalid)
	}
	return sessionKey, nil
}
