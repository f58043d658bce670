package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/models"
	"github.com/instagrid/instagrid/store"
)

// stubScraper satisfies ProfileScraper without a browser.
type stubScraper struct {
	loginPosts   []models.ScrapedPost
	loginCookies []models.Cookie
	loginErr     error

	publicPosts []models.ScrapedPost
	publicErr   error

	refreshPosts   []models.ScrapedPost
	refreshCookies []models.Cookie
	refreshErr     error

	gotCookies []models.Cookie
}

func (s *stubScraper) Login(_ context.Context, _, _ string) ([]models.ScrapedPost, []models.Cookie, error) {
	return s.loginPosts, s.loginCookies, s.loginErr
}

func (s *stubScraper) PublicProfile(_ context.Context, _ string) ([]models.ScrapedPost, error) {
	return s.publicPosts, s.publicErr
}

func (s *stubScraper) Refresh(_ context.Context, _ string, cookies []models.Cookie) ([]models.ScrapedPost, []models.Cookie, error) {
	s.gotCookies = cookies
	return s.refreshPosts, s.refreshCookies, s.refreshErr
}

func postJSON(t *testing.T, h gin.HandlerFunc, body string) (*httptest.ResponseRecorder, models.ScrapeResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h(c)

	var resp models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}
	return w, resp
}

func TestLogin_StoresSessionAndReturnsOpaqueID(t *testing.T) {
	sessions := store.NewSessionStore()
	sc := &stubScraper{
		loginPosts:   []models.ScrapedPost{{ImageURL: "https://cdn/a.jpg", PostURL: "https://ig/p/a/"}},
		loginCookies: []models.Cookie{{Name: "sessionid", Value: "secret-cookie"}},
	}

	w, resp := postJSON(t, Login(sc, sessions), `{"username":"alice","password":"pw"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.SessionID == "" {
		t.Fatalf("expected success with a session id: %+v", resp)
	}
	if strings.Contains(w.Body.String(), "secret-cookie") {
		t.Error("cookies must never appear in the response body")
	}

	sess, ok := sessions.Get(resp.SessionID)
	if !ok {
		t.Fatal("session not stored server-side")
	}
	if len(sess.Cookies) != 1 || sess.Cookies[0].Value != "secret-cookie" {
		t.Errorf("stored session lost its cookies: %+v", sess.Cookies)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	sessions := store.NewSessionStore()
	sc := &stubScraper{
		loginErr: models.NewFeedError(models.ErrCodeAuthFailed, "login failed", nil),
	}

	w, resp := postJSON(t, Login(sc, sessions), `{"username":"alice","password":"wrong"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp.Success || resp.Code != models.ErrCodeAuthFailed {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	w, resp := postJSON(t, Login(&stubScraper{}, store.NewSessionStore()), `{"username":"alice"}`)
	if w.Code != http.StatusBadRequest || resp.Code != models.ErrCodeInvalidInput {
		t.Errorf("expected 400 INVALID_INPUT, got %d %+v", w.Code, resp)
	}
}

func TestPublicProfile_Success(t *testing.T) {
	sc := &stubScraper{
		publicPosts: []models.ScrapedPost{{ImageURL: "https://cdn/a.jpg", PostURL: "https://ig/p/a/"}},
	}

	w, resp := postJSON(t, PublicProfile(sc), `{"username":"natgeo"}`)

	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got %d %+v", w.Code, resp)
	}
	if len(resp.Posts) != 1 {
		t.Errorf("posts lost in transit: %+v", resp.Posts)
	}
}

func TestPublicProfile_PrivateAccount(t *testing.T) {
	sc := &stubScraper{
		publicErr: models.NewFeedError(models.ErrCodeProfilePrivate, "profile is private", nil),
	}

	w, resp := postJSON(t, PublicProfile(sc), `{"username":"someone"}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if resp.Success || resp.Code != models.ErrCodeProfilePrivate {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRefresh_UnknownSession(t *testing.T) {
	w, resp := postJSON(t, Refresh(&stubScraper{}, store.NewSessionStore()),
		`{"username":"alice","sessionId":"never-issued"}`)

	if w.Code != http.StatusUnauthorized || resp.Code != models.ErrCodeSessionExpired {
		t.Errorf("expected 401 SESSION_EXPIRED, got %d %+v", w.Code, resp)
	}
}

func TestRefresh_RotatesCookiesKeepsID(t *testing.T) {
	sessions := store.NewSessionStore()
	id := sessions.Put(models.Session{
		Username: "alice",
		Cookies:  []models.Cookie{{Name: "sessionid", Value: "old"}},
	})

	sc := &stubScraper{
		refreshPosts:   []models.ScrapedPost{{ImageURL: "https://cdn/a.jpg", PostURL: "https://ig/p/a/"}},
		refreshCookies: []models.Cookie{{Name: "sessionid", Value: "rotated"}},
	}

	w, resp := postJSON(t, Refresh(sc, sessions), `{"username":"alice","sessionId":"`+id+`"}`)

	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got %d %+v", w.Code, resp)
	}
	if resp.SessionID != id {
		t.Errorf("session id must stay stable across refreshes: %q vs %q", resp.SessionID, id)
	}
	if len(sc.gotCookies) != 1 || sc.gotCookies[0].Value != "old" {
		t.Errorf("scraper should receive the stored cookies: %+v", sc.gotCookies)
	}

	sess, _ := sessions.Get(id)
	if sess.Cookies[0].Value != "rotated" {
		t.Errorf("store should carry the rotated cookies: %+v", sess.Cookies)
	}
}

func TestRefresh_ExpiredSessionIsDeleted(t *testing.T) {
	sessions := store.NewSessionStore()
	id := sessions.Put(models.Session{Username: "alice"})

	sc := &stubScraper{
		refreshErr: models.NewFeedError(models.ErrCodeSessionExpired, "session no longer valid", nil),
	}

	w, _ := postJSON(t, Refresh(sc, sessions), `{"username":"alice","sessionId":"`+id+`"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if _, ok := sessions.Get(id); ok {
		t.Error("a session rejected upstream should be evicted")
	}
}
