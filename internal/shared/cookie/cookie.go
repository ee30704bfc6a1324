package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const cookieName string = "session"

var (
	ErrValueTooLong = errors.New("cookie value too long")
	ErrInvalidValue = errors.New("invalid cookie value")
)

// encrypt creates a tamper-proof session cookie by encrypting the session token
// along with the cookie name using AES-GCM. Including the cookie name prevents
// cookie substitution attacks where an attacker tries to move cookies between
// different cookie names.
func encrypt(token string, secret []byte, cookieName string) (*string, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Create a unique nonce containing 12 random bytes.
	nonce := make([]byte, aesGCM.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	if err != nil {
		return nil, err
	}

	// The plaintext is in the format "session:{token}". The : character is
	// invalid in cookie names and therefore can't appear in them, which makes
	// it a safe separator.
	plaintext := fmt.Sprintf("%s:%s", cookieName, token)

	// Passing the nonce as the first parameter appends the encrypted data to
	// the nonce, so the encoded value is "{nonce}{encrypted plaintext}".
	encryptedValue := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)

	res := base64.URLEncoding.EncodeToString(encryptedValue)
	return &res, nil
}

// decrypt validates and extracts the session token from a cookie value.
// It verifies both the encrypted content and that the embedded cookie name
// matches expectations, preventing substitution attacks and tampering.
func decrypt(encryptedToken string, secret []byte, expectedCookieName string) (string, error) {
	value, err := base64.URLEncoding.DecodeString(encryptedToken)
	if err != nil {
		return "", ErrInvalidValue
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()

	// Avoid a potential 'index out of range' panic: the encrypted value must
	// be at least as long as the nonce.
	if len(value) < nonceSize {
		return "", ErrInvalidValue
	}

	nonce := value[:nonceSize]
	ciphertext := value[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidValue
	}

	// The plaintext value is in the format "{cookie name}:{token}".
	actualName, token, ok := strings.Cut(string(plaintext), ":")
	if !ok {
		return "", ErrInvalidValue
	}

	if actualName != expectedCookieName {
		return "", ErrInvalidValue
	}

	if token == "" {
		return "", ErrInvalidValue
	}
	return token, nil
}

// GetToken reads the session cookie from the request and returns the
// decrypted session token.
func GetToken(r *http.Request, secret []byte) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", err
	}

	return decrypt(cookie.Value, secret, cookieName)
}

// SetToken encrypts the session token and writes it as an HttpOnly cookie.
// The cookie is invisible to client-side script and expires with the session.
func SetToken(w http.ResponseWriter, token string, secret []byte, ttl time.Duration) error {
	encryptedValue, err := encrypt(token, secret, cookieName)
	if err != nil {
		return err
	}

	if len(*encryptedValue) > 4096 {
		return ErrValueTooLong
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    *encryptedValue,
		HttpOnly: true,
		// Send cookie to all routes in the app
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
	return nil
}

// Clear expires the session cookie. Clearing an absent cookie is harmless,
// which keeps logout idempotent.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
