package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ip-manager/internal/backoffice"
	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/session"
	"github.com/iliyamo/ip-manager/internal/utils"
)

const secret = "test-secret"

type fakeSessions struct {
	created   time.Time
	live      map[string]*session.Session
	loginErr  error
	loggedOut []string
	changed   []string
}

func (f *fakeSessions) login() (session.Session, error) {
	if f.loginErr != nil {
		return session.Session{}, f.loginErr
	}
	s := session.Session{ID: "sid-1", User: model.Profile{ID: "user-1", Username: "amal", Role: model.RoleAdmin}, CreatedAt: f.created}
	f.live["user-1"] = &s
	return s, nil
}

func (f *fakeSessions) LoginWithPassword(ctx context.Context, username, password string) (session.Session, error) {
	return f.login()
}

func (f *fakeSessions) LoginWithPin(ctx context.Context, pin string) (session.Session, error) {
	return f.login()
}

func (f *fakeSessions) RestoreUser(ctx context.Context, userID string) (*session.Session, error) {
	return f.live[userID], nil
}

func (f *fakeSessions) LogoutUser(ctx context.Context, userID string) error {
	f.loggedOut = append(f.loggedOut, userID)
	delete(f.live, userID)
	return nil
}

func (f *fakeSessions) ChangeCredentials(ctx context.Context, s *session.Session, newUsername, newPassword string) error {
	if s == nil {
		return session.ErrNotAuthenticated
	}
	f.changed = append(f.changed, newUsername)
	return nil
}

func call(h echo.HandlerFunc, method, target, body string, prep func(echo.Context)) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if prep != nil {
		prep(c)
	}
	_ = h(c)
	return rec
}

func TestLoginIssuesSessionBoundToken(t *testing.T) {
	created := time.Now().UTC().Truncate(time.Millisecond)
	fs := &fakeSessions{live: map[string]*session.Session{}, created: created}
	h := NewAuthHandler(secret, fs, nil)

	rec := call(h.Login, http.MethodPost, "/v1/auth/login", `{"username":"amal","password":"password123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Access struct {
			Token   string    `json:"token"`
			Expires time.Time `json:"expires"`
		} `json:"access"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Access.Expires.Equal(created.Add(session.TTL)) {
		t.Errorf("token expires %v, want session expiry", resp.Access.Expires)
	}
	claims, err := utils.ParseAccessToken(secret, resp.Access.Token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Subject != "user-1" {
		t.Errorf("claims %+v", claims)
	}
}

func TestLoginFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"missing fields", nil, `{"username":"amal"}`, http.StatusBadRequest},
		{"unknown user", session.ErrUserNotFound, `{"username":"x","password":"y"}`, http.StatusUnauthorized},
		{"wrong password", session.ErrInvalidCredential, `{"username":"amal","password":"y"}`, http.StatusUnauthorized},
		{"directory down", errors.New("dial tcp: refused"), `{"username":"amal","password":"y"}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		fs := &fakeSessions{live: map[string]*session.Session{}, loginErr: tc.err}
		rec := call(NewAuthHandler(secret, fs, nil).Login, http.MethodPost, "/", tc.body, nil)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	fs := &fakeSessions{live: map[string]*session.Session{}}
	if rec := call(NewAuthHandler(secret, fs, nil).Pin, http.MethodPost, "/", `{"pin":""}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty pin: status %d", rec.Code)
	}
}

func TestLogoutOnlyClearsMatchingSession(t *testing.T) {
	now := time.Now()
	fs := &fakeSessions{live: map[string]*session.Session{
		"user-1": {ID: "sid-2", User: model.Profile{ID: "user-1"}, CreatedAt: now},
	}}
	h := NewAuthHandler(secret, fs, nil)
	bearer := func(sid string) func(echo.Context) {
		tok, _ := utils.NewAccessToken(secret, sid, "user-1", "amal", model.RoleAdmin, now, now.Add(time.Hour))
		return func(c echo.Context) { c.Request().Header.Set("Authorization", "Bearer "+tok.Token) }
	}

	if rec := call(h.Logout, http.MethodPost, "/", "", bearer("sid-1")); rec.Code != http.StatusNoContent || len(fs.loggedOut) != 0 {
		t.Fatalf("stale token cleared the live session: %d %v", rec.Code, fs.loggedOut)
	}
	if rec := call(h.Logout, http.MethodPost, "/", "", bearer("sid-2")); rec.Code != http.StatusNoContent || len(fs.loggedOut) != 1 {
		t.Fatalf("logout: %d %v", rec.Code, fs.loggedOut)
	}
	if rec := call(h.Logout, http.MethodPost, "/", "", bearer("sid-2")); rec.Code != http.StatusNoContent || len(fs.loggedOut) != 1 {
		t.Errorf("second logout: %d %v", rec.Code, fs.loggedOut)
	}
}

func TestAccount(t *testing.T) {
	fs := &fakeSessions{live: map[string]*session.Session{}}
	h := NewAuthHandler(secret, fs, nil)
	withSession := func(c echo.Context) {
		c.Set(middleware.KeySession, &session.Session{ID: "sid-1", User: model.Profile{ID: "user-1"}, CreatedAt: time.Now()})
	}
	if rec := call(h.Account, http.MethodPut, "/", `{"username":"  "}`, withSession); rec.Code != http.StatusBadRequest {
		t.Errorf("blank username: %d", rec.Code)
	}
	if rec := call(h.Account, http.MethodPut, "/", `{"username":"amal2","password":"new"}`, withSession); rec.Code != http.StatusNoContent {
		t.Errorf("change: %d %s", rec.Code, rec.Body)
	}
	if len(fs.changed) != 1 || fs.changed[0] != "amal2" {
		t.Errorf("changes %v", fs.changed)
	}
	if rec := call(h.Account, http.MethodPut, "/", `{"username":"x"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no session: %d", rec.Code)
	}
}

// fakeBackoffice implements the methods the tests call; the rest panic
// through the nil embedded interface.
type fakeBackoffice struct {
	Backoffice
	saleErr   error
	lastSale  ledger.SaleRequest
	deleteErr error
	limit     int
}

func (f *fakeBackoffice) RecordSale(ctx context.Context, req ledger.SaleRequest) (ledger.Sale, error) {
	f.lastSale = req
	if f.saleErr != nil && !errors.Is(f.saleErr, ledger.ErrPartialWrite) {
		return ledger.Sale{}, f.saleErr
	}
	return ledger.Sale{Transaction: model.Transaction{ID: "TXN-1", Quantity: req.Quantity, SellingPrice: req.SellingPrice}}, f.saleErr
}

func (f *fakeBackoffice) DeleteItem(ctx context.Context, actor, id string) error { return f.deleteErr }

func (f *fakeBackoffice) CreateUser(ctx context.Context, actor string, in backoffice.NewUser) (model.Profile, error) {
	return model.Profile{}, fmt.Errorf("%w: username and password are required", backoffice.ErrInvalid)
}

func (f *fakeBackoffice) Activity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	f.limit = limit
	return nil, nil
}

func asUser(c echo.Context) {
	c.Set(middleware.KeySession, &session.Session{ID: "sid", User: model.Profile{ID: "user-1", Username: "amal"}, CreatedAt: time.Now()})
}

func TestRecordSaleResponses(t *testing.T) {
	body := `{"customer_name":"Sara","product_id":"IP-1","quantity":2,"selling_price":"10.00"}`

	bo := &fakeBackoffice{}
	rec := call(NewBackofficeHandler(bo, nil).RecordSale, http.MethodPost, "/", body, asUser)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if bo.lastSale.Actor != "amal" || !bo.lastSale.SellingPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("request %+v", bo.lastSale)
	}

	bo = &fakeBackoffice{saleErr: fmt.Errorf("%w: lock wait timeout", ledger.ErrPartialWrite)}
	rec = call(NewBackofficeHandler(bo, nil).RecordSale, http.MethodPost, "/", body, asUser)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"warning"`) {
		t.Errorf("partial write: %d %s", rec.Code, rec.Body)
	}

	bo = &fakeBackoffice{saleErr: fmt.Errorf("%w: insert transaction: refused", ledger.ErrStoreUnavailable)}
	rec = call(NewBackofficeHandler(bo, nil).RecordSale, http.MethodPost, "/", body, asUser)
	if rec.Code != http.StatusServiceUnavailable || strings.Contains(rec.Body.String(), "refused") {
		t.Errorf("store unavailable: %d %s", rec.Code, rec.Body)
	}
}

func TestErrorMapping(t *testing.T) {
	h := NewBackofficeHandler(&fakeBackoffice{deleteErr: repository.ErrNotFound}, nil)
	if rec := call(h.DeleteItem, http.MethodDelete, "/", "", asUser); rec.Code != http.StatusNotFound {
		t.Errorf("not found: %d", rec.Code)
	}
	h = NewBackofficeHandler(&fakeBackoffice{deleteErr: fmt.Errorf("wrap: %w", repository.ErrConflict)}, nil)
	if rec := call(h.DeleteItem, http.MethodDelete, "/", "", asUser); rec.Code != http.StatusConflict {
		t.Errorf("conflict: %d", rec.Code)
	}
	if rec := call(h.CreateUser, http.MethodPost, "/", `{"username":"x"}`, asUser); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid: %d", rec.Code)
	}
	if rec := call(h.CreateUser, http.MethodPost, "/", `{`, asUser); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}
}

func TestActivityLimit(t *testing.T) {
	bo := &fakeBackoffice{}
	h := NewBackofficeHandler(bo, nil)
	if rec := call(h.Activity, http.MethodGet, "/v1/activity?limit=20", "", asUser); rec.Code != http.StatusOK || bo.limit != 20 {
		t.Errorf("limit=20: %d %d", rec.Code, bo.limit)
	}
	if rec := call(h.Activity, http.MethodGet, "/v1/activity?limit=abc", "", asUser); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=abc: %d", rec.Code)
	}
}

func TestDeleteSelfRejected(t *testing.T) {
	h := NewBackofficeHandler(&fakeBackoffice{}, nil)
	rec := call(h.DeleteUser, http.MethodDelete, "/", "", func(c echo.Context) {
		asUser(c)
		c.SetParamNames("id")
		c.SetParamValues("user-1")
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d", rec.Code)
	}
}
