package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"top10weather/internal/domain"
	"top10weather/internal/service"
	"top10weather/pkg/errors"
	"top10weather/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service proxies account operations to the Supabase auth API (GoTrue) and
// validates the JWTs it issues. Credentials never touch this process beyond
// pass-through.
type Service struct {
	baseURL    string
	anonKey    string
	jwtSecret  string
	resetURL   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewService creates a new auth service
func NewService(baseURL, anonKey, jwtSecret, resetURL string, logger *logger.Logger) service.AuthService {
	return &Service{
		baseURL:   strings.TrimRight(baseURL, "/"),
		anonKey:   anonKey,
		jwtSecret: jwtSecret,
		resetURL:  resetURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// gotrueUser is the auth backend's account representation
type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

// gotrueSession is the token grant response
type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         gotrueUser `json:"user"`
}

// SignUp registers a new account
func (s *Service) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthUser, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, errors.NewValidationError("email, password, and name are required", nil)
	}

	payload := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
		"data":     map[string]string{"name": req.Name},
	}

	var user gotrueUser
	if err := s.call(ctx, "POST", "/auth/v1/signup", "", payload, &user); err != nil {
		return nil, err
	}

	s.logger.WithField("email", req.Email).Info("User signed up")

	return &domain.AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.UserMetadata.Name,
	}, nil
}

// SignIn exchanges email/password for a session
func (s *Service) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SignInResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errors.NewValidationError("email and password are required", nil)
	}

	payload := map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}

	var session gotrueSession
	if err := s.call(ctx, "POST", "/auth/v1/token?grant_type=password", "", payload, &session); err != nil {
		return nil, err
	}

	return &domain.SignInResponse{
		Session: domain.Session{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			TokenType:    session.TokenType,
			ExpiresAt:    time.Now().Add(time.Duration(session.ExpiresIn) * time.Second),
		},
		User: domain.AuthUser{
			ID:    session.User.ID,
			Email: session.User.Email,
			Name:  session.User.UserMetadata.Name,
		},
	}, nil
}

// SignOut revokes the session behind the access token
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	return s.call(ctx, "POST", "/auth/v1/logout", accessToken, nil, nil)
}

// RequestPasswordReset asks the backend to email a recovery link. The link
// carries a single access_token query parameter on the configured redirect URL.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return errors.NewValidationError("email is required", nil)
	}

	path := fmt.Sprintf("/auth/v1/recover?redirect_to=%s", url.QueryEscape(s.resetURL))
	return s.call(ctx, "POST", path, "", map[string]string{"email": email}, nil)
}

// UpdatePassword sets a new password for the recovery token's user
func (s *Service) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if newPassword == "" {
		return errors.NewValidationError("password is required", nil)
	}

	return s.call(ctx, "PUT", "/auth/v1/user", accessToken, map[string]string{"password": newPassword}, nil)
}

// ValidateToken verifies a Supabase JWT with the project secret and returns
// the user profile from its claims
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.UserProfile, error) {
	if s.jwtSecret == "" {
		s.logger.Error("SUPABASE_JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		s.logger.WithError(err).Error("Failed to validate JWT token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewAuthenticationError("Invalid token claims")
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
	}

	profile := &domain.UserProfile{
		Sub:           getStringClaim(claims, "sub"),
		Email:         getStringClaim(claims, "email"),
		EmailVerified: getBoolClaim(claims, "email_verified"),
	}

	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		profile.Name = getStringClaim(userMeta, "name")
	}

	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}

	return profile, nil
}

// call performs one auth API request. bearerToken overrides the anon key when
// set (user-scoped operations). out may be nil for fire-and-forget calls.
func (s *Service) call(ctx context.Context, method, path, bearerToken string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+s.anonKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.NewExternalError("auth backend unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return errors.NewExternalError(fmt.Sprintf("auth backend returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		s.logger.WithFields(map[string]interface{}{
			"status_code": resp.StatusCode,
			"path":        path,
		}).Warn("Auth backend rejected request")
		return errors.NewAuthenticationError(extractAuthError(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse auth response: %w", err)
		}
	}

	return nil
}

// extractAuthError pulls a human-readable message out of a GoTrue error body
func extractAuthError(body []byte) string {
	var parsed struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			return parsed.Message
		case parsed.Msg != "":
			return parsed.Msg
		case parsed.ErrorDescription != "":
			return parsed.ErrorDescription
		}
	}
	return "authentication failed"
}

func getStringClaim(claims map[string]interface{}, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}

func getBoolClaim(claims map[string]interface{}, key string) bool {
	if value, ok := claims[key].(bool); ok {
		return value
	}
	return false
}
