package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/cryptox"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/auth"
	"github.com/dmitrijs2005/farmhand/internal/server/metrics"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmhand/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server  *HTTPServer
	metrics *metrics.Metrics
	codec   *auth.TokenCodec
	repo    *repomanager.MemoryRepositoryManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := auth.NewTokenCodec([]byte(strings.Repeat("s", 32)))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	m := repomanager.NewMemoryRepositoryManager()
	hasher := cryptox.NewBcryptHasher(bcrypt.MinCost)
	log := logging.Nop()
	verifier, err := services.NewCredentialVerifier(m.Users(), hasher, time.Second)
	if err != nil {
		t.Fatalf("NewCredentialVerifier: %v", err)
	}
	us := services.NewUserService(m, codec, verifier, hasher, time.Second, log)
	fs := services.NewFieldService(m, time.Second, log)

	mt := metrics.New()
	return &testEnv{
		server:  NewHTTPServer("127.0.0.1:0", log, us, fs, codec, m.Users(), time.Second, mt),
		metrics: mt,
		codec:   codec,
		repo:    m,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "email": email, "password": password}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %q", username, rec.Code, rec.Body.String())
	}
	return decodeToken(t, rec)
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token response %q: %v", rec.Body.String(), err)
	}
	tok, ok := resp["Token"]
	if !ok || tok == "" {
		t.Fatalf("no Token in %q", rec.Body.String())
	}
	return tok
}

// flipLast changes the final character of s to a different base64url char.
func flipLast(s string) string {
	last := s[len(s)-1]
	repl := byte('A')
	if last == 'A' {
		repl = 'B'
	}
	return s[:len(s)-1] + string(repl)
}
