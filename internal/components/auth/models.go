package auth

import "time"

type (
	// User is the persisted credential record. The password hash never leaves
	// the service layer.
	User struct {
		ID           string    `bson:"_id" json:"id"`
		Username     string    `bson:"username" json:"username"`
		Email        string    `bson:"email" json:"email"`
		PasswordHash string    `bson:"password_hash" json:"-"` // Never serialize password hash
		CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	}

	// Session is a persisted session record. Only the SHA-256 hash of the
	// token is stored; the plaintext token lives in the client's cookie.
	Session struct {
		TokenHash string    `bson:"_id"`
		UserID    string    `bson:"user_id"`
		ExpiresAt time.Time `bson:"expires_at"`
		CreatedAt time.Time `bson:"created_at"`
	}

	SignupIn struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginIn struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	// UserOut is the public view of a user record, safe to return to clients.
	UserOut struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	UserResponse struct {
		User UserOut `json:"user"`
	}

	// ErrorResponse is the JSON error body. Field is set for validation and
	// conflict errors so the UI can attach the message to a form control.
	ErrorResponse struct {
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	}
)

// PublicView strips secrets from a user record.
func (u *User) PublicView() *UserOut {
	return &UserOut{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// Expired reports whether the session is past its expiry at time t.
func (s *Session) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}
