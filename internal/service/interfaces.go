package service

import (
	"context"

	"top10weather/internal/domain"
)

// AuthService defines the interface for authentication operations. Credential
// storage and hashing are delegated entirely to the Supabase auth backend;
// this service only proxies and validates.
type AuthService interface {
	// SignUp registers a new account with the auth backend
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthUser, error)

	// SignIn exchanges email/password for a session
	SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SignInResponse, error)

	// SignOut revokes the session behind the given access token
	SignOut(ctx context.Context, accessToken string) error

	// RequestPasswordReset asks the backend to email a recovery link
	RequestPasswordReset(ctx context.Context, email string) error

	// UpdatePassword sets a new password for the recovery token's user
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error

	// ValidateToken verifies a bearer token and returns the user profile
	ValidateToken(ctx context.Context, token string) (*domain.UserProfile, error)
}

// WeatherService fetches current conditions for a coordinate
type WeatherService interface {
	// CurrentConditions returns the weather snapshot and the provider's
	// "City, Region" display name for (lat, lon)
	CurrentConditions(ctx context.Context, lat, lon float64) (*domain.WeatherSnapshot, string, error)
}

// LocationService resolves the current voting day for a location string
type LocationService interface {
	// ResolveVotingDay geocodes "City, Region" free text, maps the coordinate
	// to its IANA timezone, and returns today's date there as YYYY-MM-DD
	ResolveVotingDay(ctx context.Context, locationText string) (string, error)
}

// Services aggregates the externally backed service interfaces
type Services struct {
	Auth     AuthService
	Weather  WeatherService
	Location LocationService
}
