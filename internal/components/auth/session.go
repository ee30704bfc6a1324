package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Session tokens are opaque: 32 random bytes, hex-encoded for the client.
// Only the SHA-256 hash is stored server-side, so a leaked session store
// does not leak usable credentials.
const sessionTokenBytes = 32

// GenerateSessionToken creates a secure random token and its stored hash.
// The plaintext token goes to the client; the hash goes to the database.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, sessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", err
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)
	return token, hash, nil
}

// HashSessionToken computes the hex-encoded SHA-256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken reports whether the plaintext token matches the stored
// hash, in constant time.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
