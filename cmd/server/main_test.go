package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paigang/paigang/internal/config"
)

func corsTarget() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doCORS(cfg config.CORSConfig, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	corsMiddleware(cfg, corsTarget()).ServeHTTP(rec, req)
	return rec
}

func TestCORSMiddlewareDisabled(t *testing.T) {
	rec := doCORS(config.CORSConfig{Enabled: false, Origins: []string{"*"}}, http.MethodGet, "https://example.com")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("关闭CORS时不应设置来源头: %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("HTTP状态 = %d, 期望 200", rec.Code)
	}
}

func TestCORSMiddlewareWildcard(t *testing.T) {
	rec := doCORS(config.CORSConfig{Enabled: true, Origins: []string{"*"}}, http.MethodGet, "https://example.com")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("来源头 = %q, 期望 *", got)
	}
}

func TestCORSMiddlewareAllowedList(t *testing.T) {
	cfg := config.CORSConfig{Enabled: true, Origins: []string{"https://a.example.com"}}

	rec := doCORS(cfg, http.MethodGet, "https://a.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example.com" {
		t.Errorf("允许列表中的来源应被回显: %q", got)
	}

	rec = doCORS(cfg, http.MethodGet, "https://b.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("不在列表中的来源不应设置来源头: %q", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	rec := doCORS(config.CORSConfig{Enabled: true, Origins: []string{"*"}}, http.MethodOptions, "https://example.com")

	if rec.Code != http.StatusOK {
		t.Errorf("预检HTTP状态 = %d, 期望 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("预检响应应携带允许方法头")
	}
}
