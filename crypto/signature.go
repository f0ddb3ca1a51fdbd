// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package crypto

import (
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// SignatureSize is the size in bytes of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// PublicKeySize is the size in bytes of an Ed25519 public key.
const PublicKeySize = ed25519.PublicKeySize

// Signature is a raw Ed25519 signature over a block hash.
type Signature [SignatureSize]byte

// PublicKey is a raw Ed25519 verifying key.
type PublicKey [PublicKeySize]byte

// ErrBadSignature is returned when a signature fails to verify.
var ErrBadSignature = fmt.Errorf("invalid signature")

// Verify reports whether sig is a valid Ed25519 signature over message
// under pub. message is typically the block's content hash.
func (pub PublicKey) Verify(message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:])
}

// SignatureAlgorithm signs and verifies Ed25519 signatures for a single
// keypair, used by tests and the epoch-signer configuration.
type SignatureAlgorithm struct {
	SeedPrivateKey ed25519.PrivateKey
	PublicKey      PublicKey
}

// GenerateSignatureAlgorithm derives a SignatureAlgorithm from a 32-byte
// seed, deterministically.
func GenerateSignatureAlgorithm(seed [32]byte) SignatureAlgorithm {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	var pk PublicKey
	copy(pk[:], pub)
	return SignatureAlgorithm{SeedPrivateKey: priv, PublicKey: pk}
}

// Sign signs message and returns the raw signature.
func (s SignatureAlgorithm) Sign(message []byte) Signature {
	raw := ed25519.Sign(s.SeedPrivateKey, message)
	var sig Signature
	copy(sig[:], raw)
	return sig
}
