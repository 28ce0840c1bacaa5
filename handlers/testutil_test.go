package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/identity"
	"github.com/inkfeed/inkfeed/internal/images"
	"github.com/inkfeed/inkfeed/internal/posts"
	"github.com/inkfeed/inkfeed/internal/profiles"
	"github.com/inkfeed/inkfeed/internal/sessions"
	"github.com/inkfeed/inkfeed/internal/tokens"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

const testJWTSecret = "handler-test-secret-32-bytes-long"

// stubProvider is an in-memory identity.Provider keyed by email.
type stubProvider struct {
	accounts map[string]*identity.Session // email -> session template
	verified map[string]bool
	oobSent  map[string]int
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		accounts: map[string]*identity.Session{},
		verified: map[string]bool{},
		oobSent:  map[string]int{},
	}
}

func (p *stubProvider) sessionFor(email string) *identity.Session {
	tpl := p.accounts[email]
	cp := *tpl
	cp.EmailVerified = p.verified[email]
	return &cp
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	if _, ok := p.accounts[email]; ok {
		return nil, blog.Validationf("email already registered")
	}
	p.accounts[email] = &identity.Session{
		UID:          "uid-" + email[:strings.Index(email, "@")],
		Email:        email,
		IDToken:      "id-" + email,
		RefreshToken: "pr-" + email,
	}
	return p.sessionFor(email), nil
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if _, ok := p.accounts[email]; !ok || password != "correct" {
		return nil, blog.ErrUnauthenticated
	}
	return p.sessionFor(email), nil
}

func (p *stubProvider) SignOut(ctx context.Context, s *identity.Session) error { return nil }

func (p *stubProvider) SendVerificationEmail(ctx context.Context, s *identity.Session) error {
	p.oobSent[s.Email]++
	return nil
}

func (p *stubProvider) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	for email, tpl := range p.accounts {
		if tpl.RefreshToken == refreshToken {
			return p.sessionFor(email), nil
		}
	}
	return nil, blog.ErrUnauthenticated
}

func (p *stubProvider) Lookup(ctx context.Context, s *identity.Session) (*identity.Session, error) {
	return p.sessionFor(s.Email), nil
}

// fakeCDN records uploads and returns a deterministic URL.
type fakeCDN struct {
	uploads int
}

func (f *fakeCDN) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.uploads++
	return "https://cdn.test/avatars/fixed.png", nil
}

type testEnv struct {
	router      *gin.Engine
	cfg         *config.Config
	provider    *stubProvider
	cdn         *fakeCDN
	postsRepo   *posts.MemoryRepository
	postsSvc    *posts.Service
	profilesSvc *profiles.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.JWT.Secret = testJWTSecret
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	cfg.Feed.PageSize = 5

	postsRepo := posts.NewMemoryRepository()
	postsSvc := posts.NewService(postsRepo)
	profilesSvc := profiles.NewService(profiles.NewMemoryRepository(), postsRepo)
	sessSvc := sessions.NewService(sessions.NewMemoryRepository())
	provider := newStubProvider()
	cdn := &fakeCDN{}

	r := gin.New()
	api := r.Group("/api/v1")
	NewAuthHandler(cfg, provider, profilesSvc, sessSvc).Register(api)

	authed := api.Group("", middleware.AuthMiddleware(tokens.NewVerifier(cfg.JWT.Secret)))
	NewPostsHandler(postsSvc, profilesSvc, cfg.Feed.PageSize).Register(authed)
	NewProfileHandler(profilesSvc, images.NewClient(cdn)).Register(authed)
	NewUploadsHandler(images.NewClient(cdn)).Register(authed)

	return &testEnv{
		router:      r,
		cfg:         cfg,
		provider:    provider,
		cdn:         cdn,
		postsRepo:   postsRepo,
		postsSvc:    postsSvc,
		profilesSvc: profilesSvc,
	}
}

// accessToken mints a token the middleware accepts.
func (e *testEnv) accessToken(t *testing.T, uid, email, name string, verified bool) string {
	t.Helper()
	tok, err := tokens.GenerateAccessToken(e.cfg.JWT.Secret, &identity.Session{
		UID: uid, Email: email, DisplayName: name, EmailVerified: verified,
	}, time.Minute)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doMultipart(t *testing.T, path, token, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "upload.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
