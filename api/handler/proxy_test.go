package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/cache"
	"github.com/instagrid/instagrid/fetcher"
	"github.com/instagrid/instagrid/mediaproxy"
	"github.com/instagrid/instagrid/models"
)

type fixedFetcher struct{}

func (fixedFetcher) Get(_ context.Context, _ string, _ map[string]string) (*fetcher.Result, error) {
	return &fetcher.Result{Body: []byte("jpeg-bytes"), ContentType: "image/jpeg", StatusCode: 200}, nil
}

func getProxy(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	proxy := mediaproxy.New(cache.New(10, time.Minute), fixedFetcher{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)

	ProxyImage(proxy)(c)
	return w
}

func TestProxyImage_ServesMediaWithCacheHeader(t *testing.T) {
	w := getProxy(t, "/proxy-image?url=https%3A%2F%2Fscontent.cdninstagram.com%2Fa.jpg")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type not forwarded: %s", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400, immutable" {
		t.Errorf("unexpected cache header: %s", cc)
	}
	if w.Body.String() != "jpeg-bytes" {
		t.Errorf("body mangled: %s", w.Body.String())
	}
}

func TestProxyImage_MissingURL(t *testing.T) {
	w := getProxy(t, "/proxy-image")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestProxyImage_ForbiddenHost(t *testing.T) {
	w := getProxy(t, "/proxy-image?url=https%3A%2F%2Fevil.example.com%2Fx.jpg")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeNoLinkedAccount, http.StatusBadRequest},
		{models.ErrCodeTokenUnavailable, http.StatusBadRequest},
		{models.ErrCodeAuthFailed, http.StatusUnauthorized},
		{models.ErrCodeSessionExpired, http.StatusUnauthorized},
		{models.ErrCodeForbiddenHost, http.StatusForbidden},
		{models.ErrCodeAccountNotFound, http.StatusNotFound},
		{models.ErrCodeProfilePrivate, http.StatusUnprocessableEntity},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeUpstream, http.StatusBadGateway},
		{models.ErrCodeExtractionExhausted, http.StatusBadGateway},
		{models.ErrCodeBrowserCrash, http.StatusInternalServerError},
		{models.ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		got := mapErrorToStatus(&models.FeedError{Code: tt.code})
		if got != tt.want {
			t.Errorf("mapErrorToStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
