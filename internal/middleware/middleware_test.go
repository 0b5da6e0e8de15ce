package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/utils"
)

const secret = "test-secret"

func newEcho(t *testing.T) (*echo.Echo, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(log.New(&buf)))
	g := e.Group("/op", JWTAuth(secret), RequireRole(model.RoleOperator))
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, OperatorID(c))
	})
	return e, &buf
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "op-7", "moderator", role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthAndRole(t *testing.T) {
	e, logs := newEcho(t)
	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", bearer(t, "CUSTOMER"), http.StatusForbidden},
		{"operator", bearer(t, model.RoleOperator), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/op/whoami", nil)
			if tc.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "op-7", rec.Body.String())
			}
		})
	}
	assert.Contains(t, logs.String(), "/op/whoami")
	assert.Contains(t, logs.String(), "operator=op-7")
}

func TestMiddlewareWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	logger := log.New(&bytes.Buffer{})
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil, logger))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, logger))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	n, err := PurgeCache(t.Context(), nil, "boxes:cache")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
	_, _, _, ok = decodePayload(bs[:10])
	assert.False(t, ok)
}

func TestKeysSeparateResources(t *testing.T) {
	e := echo.New()
	keyFor := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/boxes/:id")
		return cacheKey(config.CacheConfig{Prefix: "boxes:cache"}, c)
	}
	a, b := keyFor("/v1/boxes/a"), keyFor("/v1/boxes/b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, keyFor("/v1/boxes/a"))
	assert.Regexp(t, `^boxes:cache:[0-9a-f]{40}$`, a)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/sessions")
	cfg := config.RateLimitConfig{Prefix: "boxes:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "boxes:rl:ip:10.0.0.1:route:POST /v1/sessions", rateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "boxes:rl:user:anon", rateKey(cfg, c))
}
