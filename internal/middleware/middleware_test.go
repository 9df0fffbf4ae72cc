package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/config"
	"github.com/iliyamo/gym-membership/internal/model"
	"github.com/iliyamo/gym-membership/internal/utils"
)

func serve(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.String(http.StatusOK, string(CurrentIdentity(c).Role))
	}, JWTAuth("secret"), RequireRole(model.RoleAdministrator))

	if rec := serve(e, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", rec.Code)
	}
	if rec := serve(e, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", rec.Code)
	}

	user, _ := utils.NewAccessToken("secret", 7, model.RoleUser, 5)
	if rec := serve(e, user.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status %d", rec.Code)
	}
	admin, _ := utils.NewAccessToken("secret", 1, model.RoleAdministrator, 5)
	rec := serve(e, admin.Token)
	if rec.Code != http.StatusOK || rec.Body.String() != string(model.RoleAdministrator) {
		t.Fatalf("admin: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	if rec := serve(e, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCacheEntryEncoding(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodeEntry(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodeEntry(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Fatalf("decode = %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodeEntry([]byte{0, 1}); ok {
		t.Fatal("short entry decoded")
	}
}

func TestCacheKeyIncludesPath(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	key := func(path string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath("/v1/classes/:id")
		return cacheKey(cfg, c)
	}
	if key("/v1/classes/1") == key("/v1/classes/2") {
		t.Fatal("distinct paths share a cache key")
	}
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	if !ok || res.allowed || res.retry.Milliseconds() != 1500 {
		t.Fatalf("result = %+v ok=%v", res, ok)
	}
	if _, ok := parseBucketResult("nope"); ok {
		t.Fatal("expected failure")
	}
}

func TestRateKeyUsesIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/classes", nil), httptest.NewRecorder())
	c.SetPath("/v1/classes")
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	if got := rateKey(cfg, c); got != "rl:user:anon" {
		t.Fatalf("anon key = %q", got)
	}
	SetIdentity(c, model.Identity{UserID: 9, Role: model.RoleUser})
	if got := rateKey(cfg, c); got != "rl:user:9" {
		t.Fatalf("user key = %q", got)
	}
}
