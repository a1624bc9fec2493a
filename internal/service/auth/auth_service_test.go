package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"top10weather/internal/domain"
	"top10weather/pkg/logger"
)

const testJWTSecret = "test-jwt-secret"

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful signup", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "new@example.com", body["email"])
			data, _ := body["data"].(map[string]interface{})
			assert.Equal(t, "New User", data["name"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"uuid-1","email":"new@example.com","user_metadata":{"name":"New User"}}`))
		}))
		defer server.Close()

		svc := NewService(server.URL, "anon-key", testJWTSecret, "https://example.com/reset", testLogger())

		user, err := svc.SignUp(ctx, &domain.SignUpRequest{
			Email:    "new@example.com",
			Password: "secret123",
			Name:     "New User",
		})

		require.NoError(t, err)
		assert.Equal(t, "uuid-1", user.ID)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, "New User", user.Name)
	})

	t.Run("Missing fields", func(t *testing.T) {
		svc := NewService("http://unused", "anon-key", testJWTSecret, "", testLogger())

		_, err := svc.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.com"})
		assert.Error(t, err)
	})

	t.Run("Backend rejection surfaces the message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"msg":"User already registered"}`))
		}))
		defer server.Close()

		svc := NewService(server.URL, "anon-key", testJWTSecret, "", testLogger())

		_, err := svc.SignUp(ctx, &domain.SignUpRequest{
			Email:    "dupe@example.com",
			Password: "secret123",
			Name:     "Dupe",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "User already registered")
	})
}

func TestService_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful signin", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"access_token": "at-123",
				"refresh_token": "rt-456",
				"token_type": "bearer",
				"expires_in": 3600,
				"user": {"id":"uuid-1","email":"user@example.com","user_metadata":{"name":"Test User"}}
			}`))
		}))
		defer server.Close()

		svc := NewService(server.URL, "anon-key", testJWTSecret, "", testLogger())

		resp, err := svc.SignIn(ctx, &domain.SignInRequest{
			Email:    "user@example.com",
			Password: "secret123",
		})

		require.NoError(t, err)
		assert.Equal(t, "at-123", resp.Session.AccessToken)
		assert.Equal(t, "rt-456", resp.Session.RefreshToken)
		assert.Equal(t, "bearer", resp.Session.TokenType)
		assert.True(t, resp.Session.ExpiresAt.After(time.Now()))
		assert.Equal(t, "uuid-1", resp.User.ID)
		assert.Equal(t, "Test User", resp.User.Name)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error_description":"Invalid login credentials"}`))
		}))
		defer server.Close()

		svc := NewService(server.URL, "anon-key", testJWTSecret, "", testLogger())

		_, err := svc.SignIn(ctx, &domain.SignInRequest{
			Email:    "user@example.com",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid login credentials")
	})
}

func TestService_SignOut(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	svc := NewService(server.URL, "anon-key", testJWTSecret, "", testLogger())

	err := svc.SignOut(ctx, "at-123")
	assert.NoError(t, err)
}

func TestService_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "https://top10weather.com/reset-password", r.URL.Query().Get("redirect_to"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])

		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := NewService(server.URL, "anon-key", testJWTSecret, "https://top10weather.com/reset-password", testLogger())

	err := svc.RequestPasswordReset(ctx, "user@example.com")
	assert.NoError(t, err)

	err = svc.RequestPasswordReset(ctx, "")
	assert.Error(t, err)
}

func TestService_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer recovery-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new-secret", body["password"])

		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := NewService(server.URL, "anon-key", testJWTSecret, "", testLogger())

	err := svc.UpdatePassword(ctx, "recovery-token", "new-secret")
	assert.NoError(t, err)

	err = svc.UpdatePassword(ctx, "recovery-token", "")
	assert.Error(t, err)
}

func TestService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	svc := NewService("http://unused", "anon-key", testJWTSecret, "", testLogger())

	t.Run("Valid token", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub":            "user-123",
			"email":          "user@example.com",
			"email_verified": true,
			"user_metadata":  map[string]interface{}{"name": "Test User"},
			"exp":            time.Now().Add(time.Hour).Unix(),
		})

		profile, err := svc.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", profile.Sub)
		assert.Equal(t, "user@example.com", profile.Email)
		assert.Equal(t, "Test User", profile.Name)
		assert.True(t, profile.EmailVerified)
	})

	t.Run("Expired token", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := svc.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Wrong signature", func(t *testing.T) {
		other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := other.SignedString([]byte("a-different-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, signed)
		assert.Error(t, err)
	})

	t.Run("Missing subject claim", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"email": "user@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		_, err := svc.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, "not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("Secret not configured", func(t *testing.T) {
		unconfigured := NewService("http://unused", "anon-key", "", "", testLogger())

		token := signTestToken(t, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := unconfigured.ValidateToken(ctx, token)
		assert.Error(t, err)
	})
}
