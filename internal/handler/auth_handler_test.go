package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancodigital/banca-api/internal/domain"
	"github.com/bancodigital/banca-api/internal/session"
)

// ---- mock implementations ----

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, accountNumber, pin string) (*domain.Account, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, accountNumber, pin string) (*domain.Account, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, accountNumber, pin)
	}
	return nil, fmt.Errorf("not configured")
}

type mockSessionWriter struct {
	putFn    func(ctx context.Context, id string, record *session.Record) error
	revokeFn func(ctx context.Context, id string) error
	puts     []string
	revokes  []string
}

func (m *mockSessionWriter) Put(ctx context.Context, id string, record *session.Record) error {
	m.puts = append(m.puts, id)
	if m.putFn != nil {
		return m.putFn(ctx, id, record)
	}
	return nil
}

func (m *mockSessionWriter) Revoke(ctx context.Context, id string) error {
	m.revokes = append(m.revokes, id)
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id)
	}
	return nil
}

// ---- helpers ----

var testSecret = []byte("test-secret")

func fakeSession(sessionID string, accountID, holderID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("sessionId", sessionID)
		c.Set("accountId", accountID)
		c.Set("holderId", holderID)
		c.Next()
	}
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:       3,
		HolderID: 7,
		Type:     domain.AccountTypeSavings,
		Number:   "12345678901234",
		CCI:      "12345678901234567890",
		Balance:  decimal.RequireFromString("1500.50"),
		Holder: &domain.Holder{
			ID: 7, Name: "Maria", FirstSurname: "Lopez", SecondSurname: "Diaz",
			DNI: "12345678", Email: "maria@example.com", Phone: "987654321",
		},
	}
}

func newAuthTestRouter(auth Authenticator, sessions SessionWriter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(auth, sessions, testSecret, 30*time.Minute)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/logout", fakeSession("sess-1", 3, 7), h.Logout)
	return r
}

// ---- tests ----

func TestLoginSuccess(t *testing.T) {
	sessions := &mockSessionWriter{}
	router := newAuthTestRouter(&mockAuthenticator{
		authenticateFn: func(_ context.Context, number, pin string) (*domain.Account, error) {
			assert.Equal(t, "12345678901234", number)
			assert.Equal(t, "1234", pin)
			return testAccount(), nil
		},
	}, sessions)

	w := doRequest(router, http.MethodPost, "/v1/auth/login", map[string]any{
		"accountNumber": "12345678901234",
		"pin":           "1234",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "12345678901234", resp.Account.AccountNumber)
	assert.Equal(t, "Maria", resp.Account.Holder.Name)
	require.Len(t, sessions.puts, 1)

	// The PIN must never appear in a response.
	assert.NotContains(t, w.Body.String(), `"pin"`)
}

func TestLoginBadCredentials(t *testing.T) {
	sessions := &mockSessionWriter{}
	router := newAuthTestRouter(&mockAuthenticator{
		authenticateFn: func(context.Context, string, string) (*domain.Account, error) {
			return nil, fmt.Errorf("no match: %w", domain.ErrAuthentication)
		},
	}, sessions)

	w := doRequest(router, http.MethodPost, "/v1/auth/login", map[string]any{
		"accountNumber": "99999999999999",
		"pin":           "0000",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sessions.puts)
}

func TestLoginRejectsMalformedAccountNumber(t *testing.T) {
	called := false
	router := newAuthTestRouter(&mockAuthenticator{
		authenticateFn: func(context.Context, string, string) (*domain.Account, error) {
			called = true
			return testAccount(), nil
		},
	}, &mockSessionWriter{})

	for _, body := range []map[string]any{
		{"accountNumber": "123", "pin": "1234"},
		{"accountNumber": "12345678901234", "pin": "12"},
		{"accountNumber": "1234567890123x", "pin": "1234"},
		{"pin": "1234"},
	} {
		w := doRequest(router, http.MethodPost, "/v1/auth/login", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.False(t, called, "service must not be reached with malformed input")
}

func TestLoginBackendFault(t *testing.T) {
	router := newAuthTestRouter(&mockAuthenticator{
		authenticateFn: func(context.Context, string, string) (*domain.Account, error) {
			return nil, fmt.Errorf("%w: boom", domain.ErrRemote)
		},
	}, &mockSessionWriter{})

	w := doRequest(router, http.MethodPost, "/v1/auth/login", map[string]any{
		"accountNumber": "12345678901234",
		"pin":           "1234",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestLoginSessionStoreFailure(t *testing.T) {
	router := newAuthTestRouter(&mockAuthenticator{
		authenticateFn: func(context.Context, string, string) (*domain.Account, error) {
			return testAccount(), nil
		},
	}, &mockSessionWriter{
		putFn: func(context.Context, string, *session.Record) error {
			return fmt.Errorf("redis down")
		},
	})

	w := doRequest(router, http.MethodPost, "/v1/auth/login", map[string]any{
		"accountNumber": "12345678901234",
		"pin":           "1234",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &mockSessionWriter{}
	router := newAuthTestRouter(&mockAuthenticator{}, sessions)

	w := doRequest(router, http.MethodPost, "/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"sess-1"}, sessions.revokes)
}
