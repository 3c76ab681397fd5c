// Package oauth implements the OAuth login and refresh flows: PKCE
// authorization-code, device-code, and refresh flows for every OAuth-kind
// provider in the binding table.
//
// Built on golang.org/x/oauth2 for token-exchange plumbing and
// golang-jwt/jwt/v5 for unverified claim extraction from the OpenAI Codex
// access token (see DESIGN.md for the dependency grounding).
package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// newPKCEVerifier generates a 32-byte, base64url-no-padding PKCE code
// verifier.
func newPKCEVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// pkceChallengeS256 derives the S256 code challenge for a verifier.
func pkceChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// newState generates a random 16-byte, base64url-no-padding CSRF state
// value.
func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
