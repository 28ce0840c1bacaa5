package identity

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

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/pkg/logger"
)

// HTTPProvider talks to an identity-toolkit style REST API: JSON POSTs to
// accounts:signUp / accounts:signInWithPassword / accounts:sendOobCode /
// accounts:lookup under a base URL, plus a form POST to a token endpoint for
// refresh. The API key rides as a query parameter on every call.
type HTTPProvider struct {
	baseURL  string
	tokenURL string
	apiKey   string
	client   *http.Client
}

func NewHTTPProvider(cfg config.IdentityConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL: cfg.TokenURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	EmailVerified bool   `json:"emailVerified"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HTTPProvider) endpoint(name string) string {
	return p.baseURL + "/accounts:" + name + "?key=" + url.QueryEscape(p.apiKey)
}

// post sends a JSON body and decodes the response into out, translating
// provider error codes into the local taxonomy. The raw provider message is
// logged, never returned to callers.
func (p *HTTPProvider) post(ctx context.Context, endpoint string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Errorf("identity provider request failed: %v", err)
		return blog.Upstreamf("identity provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var pe providerError
		_ = json.Unmarshal(raw, &pe)
		return p.mapError(resp.StatusCode, pe.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *HTTPProvider) mapError(status int, code string) error {
	switch {
	case strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(code, "USER_DISABLED"),
		strings.HasPrefix(code, "INVALID_ID_TOKEN"),
		strings.HasPrefix(code, "TOKEN_EXPIRED"):
		return fmt.Errorf("%w: invalid credentials", blog.ErrUnauthenticated)
	case strings.HasPrefix(code, "EMAIL_EXISTS"):
		return blog.Validationf("email already registered")
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return blog.Validationf("password too weak")
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS"):
		return blog.Upstreamf("too many attempts")
	}
	logger.Errorf("identity provider returned %d (%s)", status, code)
	return blog.Upstreamf("identity provider returned %d", status)
}

func sessionFromAccount(a *accountResponse) *Session {
	return &Session{
		UID:           a.LocalID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		DisplayName:   a.DisplayName,
		IDToken:       a.IDToken,
		RefreshToken:  a.RefreshToken,
	}
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var out accountResponse
	body := map[string]interface{}{"email": email, "password": password, "returnSecureToken": true}
	if err := p.post(ctx, p.endpoint("signUp"), body, &out); err != nil {
		return nil, err
	}
	// a fresh account is always unverified
	s := sessionFromAccount(&out)
	s.EmailVerified = false
	return s, nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out accountResponse
	body := map[string]interface{}{"email": email, "password": password, "returnSecureToken": true}
	if err := p.post(ctx, p.endpoint("signInWithPassword"), body, &out); err != nil {
		return nil, err
	}
	s := sessionFromAccount(&out)
	// the sign-in payload doesn't carry emailVerified; fetch it
	return p.Lookup(ctx, s)
}

// SignOut discards tokens client-side; the provider keeps no server session
// for password sign-ins.
func (p *HTTPProvider) SignOut(ctx context.Context, s *Session) error {
	return nil
}

func (p *HTTPProvider) SendVerificationEmail(ctx context.Context, s *Session) error {
	body := map[string]interface{}{"requestType": "VERIFY_EMAIL", "idToken": s.IDToken}
	return p.post(ctx, p.endpoint("sendOobCode"), body, nil)
}

func (p *HTTPProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := p.tokenURL + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Errorf("identity token refresh failed: %v", err)
		return nil, blog.Upstreamf("identity provider unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var pe providerError
		_ = json.Unmarshal(raw, &pe)
		return nil, p.mapError(resp.StatusCode, pe.Error.Message)
	}

	var out struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	s := &Session{UID: out.UserID, IDToken: out.IDToken, RefreshToken: out.RefreshToken}
	return p.Lookup(ctx, s)
}

func (p *HTTPProvider) Lookup(ctx context.Context, s *Session) (*Session, error) {
	var out struct {
		Users []accountResponse `json:"users"`
	}
	body := map[string]interface{}{"idToken": s.IDToken}
	if err := p.post(ctx, p.endpoint("lookup"), body, &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("%w: account no longer exists", blog.ErrUnauthenticated)
	}
	u := out.Users[0]
	cp := *s
	if u.LocalID != "" {
		cp.UID = u.LocalID
	}
	if u.Email != "" {
		cp.Email = u.Email
	}
	cp.EmailVerified = u.EmailVerified
	cp.DisplayName = u.DisplayName
	return &cp, nil
}
