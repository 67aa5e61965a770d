package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parley/internal/core/services"
	"parley/internal/infrastructure/middleware"
	"parley/internal/infrastructure/repositories/memory"
	"parley/internal/infrastructure/signal"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop().Sugar()

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))

	auth := services.NewAuthService("test-secret")
	router.Use(middleware.CurrentUser(auth))

	NewAuthHandler(memory.NewMemoryUserRepository(), auth, false).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == signal.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSignUpCreatesUserAndSession(t *testing.T) {
	router := newAuthRouter()

	w := doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"New@Test.dev","password":"pass"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "new@test.dev", body["email"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, w.Body.String(), "passwordHash")
	assert.NotContains(t, w.Body.String(), "pass.")

	cookie := sessionCookie(t, w)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	router := newAuthRouter()

	w := doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"dup@test.dev","password":"pass"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"DUP@test.dev","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email in use.")
}

func TestSignUpValidatesInput(t *testing.T) {
	router := newAuthRouter()

	w := doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"not-an-email","password":"pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email must be valid.")

	w = doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"ok@test.dev","password":"xy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be within 3-20 characters.")
}

func TestSignInVerifiesCredentials(t *testing.T) {
	router := newAuthRouter()
	doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"a@test.dev","password":"pass"}`)

	w := doJSON(router, http.MethodPost, "/api/users/signin", `{"email":"a@test.dev","password":"pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@test.dev")
	assert.NotEmpty(t, sessionCookie(t, w).Value)

	// Wrong password and unknown email look identical to the caller.
	w = doJSON(router, http.MethodPost, "/api/users/signin", `{"email":"a@test.dev","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")

	w = doJSON(router, http.MethodPost, "/api/users/signin", `{"email":"nobody@test.dev","password":"pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
}

func TestCurrentUserReportsSessionIdentity(t *testing.T) {
	router := newAuthRouter()

	w := doJSON(router, http.MethodGet, "/api/users/currentuser", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"currentUser":null}`, w.Body.String())

	signup := doJSON(router, http.MethodPost, "/api/users/signup", `{"email":"me@test.dev","password":"pass"}`)
	cookie := sessionCookie(t, signup)

	w = doJSON(router, http.MethodGet, "/api/users/currentuser", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CurrentUser *struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"currentUser"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.CurrentUser)
	assert.Equal(t, "me@test.dev", body.CurrentUser.Email)
	assert.NotEmpty(t, body.CurrentUser.ID)
}

func TestSignOutClearsSession(t *testing.T) {
	router := newAuthRouter()

	w := doJSON(router, http.MethodPost, "/api/users/signout", "")
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
