// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// RememberTokenBytes is the entropy of a session token. 32 bytes encode to
// 64 hex characters, which are URL-safe as required by the session carrier.
const RememberTokenBytes = 32

// GenerateRememberToken creates a secure random session token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is handed to the client; only the hash is stored on
// the user record, so a leaked database dump does not leak live sessions.
func GenerateRememberToken() (token, hash string, err error) {
	buf := make([]byte, RememberTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", RememberTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	hash = HashRememberToken(token)

	return token, hash, nil
}

// HashRememberToken computes the SHA-256 hash of a session token.
func HashRememberToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyRememberToken checks if the plaintext token matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
// Returns (true, nil) on match, (false, nil) on mismatch, or (false, error) on invalid input.
func VerifyRememberToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("TOKEN_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashRememberToken(token)
	// Both are hex-encoded SHA-256 hashes (64 chars), use constant-time compare
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}
