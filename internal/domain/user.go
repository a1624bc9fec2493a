package domain

import "time"

// UserProfile is the identity extracted from a validated Supabase token
type UserProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"email_verified"`
}

// SignUpRequest is a new account registration body
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignInRequest is an email/password login body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the token pair issued by the auth backend
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthUser is the auth backend's view of an account. The backend owns ids and
// credentials; this service only references them.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignInResponse bundles the session with its user
type SignInResponse struct {
	Session Session  `json:"session"`
	User    AuthUser `json:"user"`
}

// PasswordResetRequest asks the auth backend to email a recovery link
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordUpdateRequest sets a new password for the recovery token's user
type PasswordUpdateRequest struct {
	Password string `json:"password"`
}
