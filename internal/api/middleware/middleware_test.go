package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRateLimitStore struct {
	counts map[string]int
	err    error
}

func (f *fakeRateLimitStore) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.counts[key]++
	return f.counts[key] <= limit, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	store := &fakeRateLimitStore{counts: make(map[string]int)}
	r := newEngine(RateLimit(store, 2, time.Minute, zap.NewNop()))

	for i := 0; i < 2; i++ {
		if w := get(r, nil); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行, got %d", i+1, w.Code)
		}
	}
	w := get(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("超出限制应返回 429, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "10004") {
		t.Errorf("应返回错误码 10004, got %s", w.Body.String())
	}
}

func TestRateLimit_Degrades(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		r := newEngine(RateLimit(nil, 1, time.Minute, zap.NewNop()))
		for i := 0; i < 3; i++ {
			if w := get(r, nil); w.Code != http.StatusOK {
				t.Fatalf("未启用 Redis 时应放行, got %d", w.Code)
			}
		}
	})

	t.Run("store error", func(t *testing.T) {
		store := &fakeRateLimitStore{err: errors.New("connection refused")}
		r := newEngine(RateLimit(store, 1, time.Minute, zap.NewNop()))
		if w := get(r, nil); w.Code != http.StatusOK {
			t.Errorf("Redis 出错时应降级放行, got %d", w.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := get(r, nil)
	if rid := w.Header().Get("X-Request-ID"); len(rid) != 36 {
		t.Errorf("应生成 UUID, got %q", rid)
	}

	w = get(r, map[string]string{"X-Request-ID": "abc-123"})
	if rid := w.Header().Get("X-Request-ID"); rid != "abc-123" {
		t.Errorf("应沿用请求头中的 ID, got %q", rid)
	}

	w = get(r, map[string]string{"X-Request-ID": strings.Repeat("x", 100)})
	if rid := w.Header().Get("X-Request-ID"); len(rid) != 36 {
		t.Errorf("过长的 ID 应重新生成, got %q", rid)
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"https://rooms.example.by/"}))

	w := get(r, map[string]string{"Origin": "https://rooms.example.by"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://rooms.example.by" {
		t.Errorf("允许的来源应回显, got %q", got)
	}

	w = get(r, map[string]string{"Origin": "https://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Errorf("未允许的来源应被拒绝, got %d", w.Code)
	}

	r = newEngine(CORS(nil))
	w = get(r, map[string]string{"Origin": "https://any.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("未配置来源时应允许任意来源, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := get(newEngine(SecurityHeaders()), nil)
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("缺少 X-Content-Type-Options")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("缺少 X-Frame-Options")
	}
}
