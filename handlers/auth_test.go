package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	// short password rejected before the provider sees it
	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "short", "confirmPassword": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, env.provider.accounts)

	// mismatched confirmation rejected before the provider sees it
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "secret123", "confirmPassword": "secret124",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, env.provider.accounts)
}

func TestRegisterCreatesProfileAndSendsVerification(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "secret123", "confirmPassword": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	require.Equal(t, 1, env.provider.oobSent["ada@example.com"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Ada", user["name"])
	require.Contains(t, user["avatarUrl"], "dicebear")
}

func TestLoginUnverifiedResendsAndRejects(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	})
	env.provider.oobSent["ada@example.com"] = 0

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 1, env.provider.oobSent["ada@example.com"])
}

func TestLoginVerified(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	})
	env.provider.verified["ada@example.com"] = true

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	})
	env.provider.verified["ada@example.com"] = true

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "nope",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	})
	env.provider.verified["ada@example.com"] = true

	login := decodeBody(t, env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct",
	}))
	refresh := login["refreshToken"].(string)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decodeBody(t, w)["accessToken"])

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// refresh token is dead after logout
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// verification picked up on refresh: register (unverified), verify upstream,
// refresh mints a token that passes the verified-only routes.
func TestVerificationPickedUpOnRefresh(t *testing.T) {
	env := newTestEnv(t)
	reg := decodeBody(t, env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	}))
	unverifiedToken := reg["accessToken"].(string)

	// writes rejected while unverified
	w := env.doJSON(t, http.MethodPost, "/api/v1/posts", unverifiedToken, map[string]string{
		"title": "Hello", "content": "body",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	env.provider.verified["ada@example.com"] = true
	ref := decodeBody(t, env.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": reg["refreshToken"].(string),
	}))
	verifiedToken := ref["accessToken"].(string)

	w = env.doJSON(t, http.MethodPost, "/api/v1/posts", verifiedToken, map[string]string{
		"title": "Hello", "content": "body",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)
	reg := decodeBody(t, env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com",
		"password": "correct1", "confirmPassword": "correct1",
	}))
	env.provider.oobSent["ada@example.com"] = 0

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/resend-verification", "", map[string]string{
		"refreshToken": reg["refreshToken"].(string),
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, env.provider.oobSent["ada@example.com"])

	// already-verified accounts don't get another email
	env.provider.verified["ada@example.com"] = true
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/resend-verification", "", map[string]string{
		"refreshToken": reg["refreshToken"].(string),
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, env.provider.oobSent["ada@example.com"])
}
