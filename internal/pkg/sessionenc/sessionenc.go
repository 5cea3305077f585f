// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.
//
// Package sessionenc provides authenticated encryption of application
// traffic keyed by a snowpake handshake's session key. It is demo
// infrastructure, not part of the protocol engine itself: the engine's job
// ends at producing a 32-byte session key, and what a caller does with it
// is deliberately out of the engine's scope.
package sessionenc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

func hasher() hash.Hash {
	return sha256.New()
}

// Encrypt authenticated-encrypts plaintext under key using AES-128-CBC
// encrypt-then-HMAC-SHA256. key must be at least 16 bytes; a snowpake
// session key (32 bytes) is split by HKDF into independent CBC and HMAC
// sub-keys, so passing it directly is the expected use. The output is
// IV ‖ ciphertext ‖ authtag.
func Encrypt(randr io.Reader, key []byte, plaintext []byte) ([]byte, error) {
	if len(key) < 16 {
		return nil, fmt.Errorf("sessionenc: key too short, got %d bytes, want at least 16", len(key))
	}
	kdfr := hkdf.New(hasher, key, nil, []byte("snowpake-sessionenc"))
	cbcKey := make([]byte, 16)
	hmacKey := make([]byte, 16)
	if _, err := io.ReadFull(kdfr, cbcKey); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(kdfr, hmacKey); err != nil {
		return nil, err
	}

	ciph, err := aes.NewCipher(cbcKey)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, ciph.BlockSize())
	if _, err := io.ReadFull(randr, iv); err != nil {
		return nil, err
	}

	padded := addPadding(ciph.BlockSize(), plaintext)
	out := make([]byte, ciph.BlockSize()+len(padded)+hasher().Size())
	copy(out, iv)
	cipher.NewCBCEncrypter(ciph, iv).CryptBlocks(out[ciph.BlockSize():ciph.BlockSize()+len(padded)], padded)

	mac := hmac.New(hasher, hmacKey)
	if _, err := mac.Write(out[:ciph.BlockSize()+len(padded)]); err != nil {
		return nil, err
	}
	copy(out[ciph.BlockSize()+len(padded):], mac.Sum(nil))
	return out, nil
}

// ErrAuthtagMismatch is returned by Decrypt when the authentication tag
// does not match.
var ErrAuthtagMismatch = fmt.Errorf("sessionenc: authtag mismatch")

// Decrypt authenticated-decrypts input produced by Encrypt under key.
func Decrypt(key []byte, input []byte) ([]byte, error) {
	if len(key) < 16 {
		return nil, fmt.Errorf("sessionenc: key too short, got %d bytes, want at least 16", len(key))
	}
	const blockSize = 16
	if len(input) < 3*blockSize || len(input)%blockSize != 0 {
		return nil, fmt.Errorf("sessionenc: malformed input")
	}

	iv := input[:blockSize]
	ciphertext := input[blockSize : len(input)-hasher().Size()]
	authtag := input[len(input)-hasher().Size():]

	kdfr := hkdf.New(hasher, key, nil, []byte("snowpake-sessionenc"))
	cbcKey := make([]byte, 16)
	hmacKey := make([]byte, 16)
	if _, err := io.ReadFull(kdfr, cbcKey); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(kdfr, hmacKey); err != nil {
		return nil, err
	}

	mac := hmac.New(hasher, hmacKey)
	if _, err := mac.Write(iv); err != nil {
		return nil, err
	}
	if _, err := mac.Write(ciphertext); err != nil {
		return nil, err
	}
	if !hmac.Equal(mac.Sum(nil), authtag) {
		return nil, ErrAuthtagMismatch
	}

	ciph, err := aes.NewCipher(cbcKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(ciph, iv).CryptBlocks(plaintext, ciphertext)
	return removePadding(ciph.BlockSize(), plaintext)
}

// addPadding pads input to a multiple of blockSize using the scheme from
// RFC 5652 §6.3.
func addPadding(blockSize int, input []byte) []byte {
	out := make([]byte, blockSize*(len(input)/blockSize+1))
	copy(out, input)
	b := byte(blockSize - len(input)%blockSize)
	for i := len(input); i < len(out); i++ {
		out[i] = b
	}
	return out
}

// removePadding strips and validates the padding added by addPadding.
func removePadding(blockSize int, input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%blockSize != 0 {
		return nil, fmt.Errorf("sessionenc: invalid padded length")
	}
	b := int(input[len(input)-1])
	if b == 0 || b > blockSize || b > len(input) {
		return nil, fmt.Errorf("sessionenc: invalid padding")
	}
	return input[:len(input)-b], nil
}
