package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/internal/taskforge/store/drivers/sqlite"
	"github.com/brumalio/taskforge/pkg/jwtx"
)

const routerTestSecret = "0123456789abcdef0123456789abcdef"

// clientIP hands out a fresh source address per call so the per-IP limiter on
// the credential endpoints never interferes with unrelated assertions.
var clientIP atomic.Int64

func nextIP() string {
	n := clientIP.Add(1)
	return fmt.Sprintf("10.0.%d.%d", n/250, n%250)
}

type testEnv struct {
	router *Router
	store  *sqlite.Store
	tokens *service.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256([]byte(routerTestSecret))
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256([]byte(routerTestSecret))
	require.NoError(t, err)

	tokens := &service.TokenService{Signer: signer, Verifier: verifier}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, logger)
	router.UserService = &service.UserService{Store: st}
	router.TokenService = tokens
	router.TaskService = &service.TaskService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, tokens: tokens}
}

// do performs a request against the router. A non-nil body is JSON encoded; a
// non-empty token is sent as a bearer credential.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = nextIP() + ":12345"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, password string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var task map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates a user", func(t *testing.T) {
		env.register(t, "alice", "correct horse battery")
	})

	t.Run("duplicate answers a vague 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
			"username": "alice",
			"email":    "elsewhere@example.com",
			"password": "correct horse battery",
		}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "registration failed")
		require.NotContains(t, rec.Body.String(), "username",
			"the response must not confirm which field is taken")
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name string
			body map[string]string
		}{
			{"username too short", map[string]string{
				"username": "ab", "email": "a@example.com", "password": "longenough"}},
			{"username bad characters", map[string]string{
				"username": "bad name!", "email": "a@example.com", "password": "longenough"}},
			{"invalid email", map[string]string{
				"username": "charlie", "email": "not-an-email", "password": "longenough"}},
			{"password too short", map[string]string{
				"username": "charlie", "email": "a@example.com", "password": "short"}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := env.do(t, http.MethodPost, "/auth/register", tc.body, "")
				require.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{")))
		req.RemoteAddr = nextIP() + ":12345"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")

	t.Run("issues a token", func(t *testing.T) {
		token := env.login(t, "alice", "correct horse battery")

		claims, err := env.tokens.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.NotZero(t, claims.UID)
		require.WithinDuration(t,
			time.Now().Add(jwtx.DefaultAccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("sets no-store on the token response", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "alice", "password": "correct horse battery",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("wrong password and unknown user are identical", func(t *testing.T) {
		wrongPass := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "alice", "password": "wrong",
		}, "")
		unknownUser := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "mallory", "password": "wrong",
		}, "")

		require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
		require.JSONEq(t, wrongPass.Body.String(), unknownUser.Body.String(),
			"failure responses must not reveal whether the account exists")
	})
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	env := newTestEnv(t)

	// All attempts from one address; the strict profile allows five per minute
	ip := nextIP()
	attempt := func() int {
		body, _ := json.Marshal(map[string]string{"username": "alice", "password": "nope"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 5 {
		require.Equal(t, http.StatusUnauthorized, attempt(), "attempt %d", i+1)
	}
	require.Equal(t, http.StatusTooManyRequests, attempt())
}

func TestTasksRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing header", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks", nil, "garbage")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		foreignSigner, err := jwtx.NewSignerHS256([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		token, err := foreignSigner.Sign(
			jwtx.NewAccessClaims("alice", 1, time.Minute, time.Now().UTC()))
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/tasks", nil, token)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		signer, err := jwtx.NewSignerHS256([]byte(routerTestSecret))
		require.NoError(t, err)
		token, err := signer.Sign(
			jwtx.NewAccessClaims("alice", 1, time.Minute, time.Now().UTC().Add(-time.Hour)))
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/tasks", nil, token)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for a user that does not exist", func(t *testing.T) {
		token, err := env.tokens.Issue(domain.User{ID: 99999, Username: "ghost"})
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/tasks", nil, token)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenStopsWorkingWhenUserDeactivated(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	// Works while the account is active
	rec := env.do(t, http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	require.NoError(t, env.store.Users().SetUserActive(t.Context(), claims.UID, false))

	// The still-valid token is now refused because the middleware re-resolves
	// the subject against the live user store on every request.
	rec = env.do(t, http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskCRUDFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	// Create with explicit fields
	rec := env.do(t, http.MethodPost, "/tasks", map[string]any{
		"title":           "write report",
		"description":     "quarterly numbers",
		"cognitive_load":  3,
		"priority":        2,
		"state":           1,
		"is_fragmentable": true,
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decodeTask(t, rec)
	taskID := int64(task["task_id"].(float64))
	require.NotZero(t, taskID)
	require.Equal(t, "write report", task["title"])
	require.Equal(t, "quarterly numbers", *jsonString(task["description"]))
	require.Equal(t, float64(3), task["cognitive_load"])
	require.Equal(t, float64(2), task["priority"])
	require.Equal(t, true, task["is_fragmentable"])

	// Fetch it back
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	// Patch only the state; everything else stays
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/tasks/%d", taskID),
		map[string]any{"state": 2}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeTask(t, rec)
	require.Equal(t, float64(2), patched["state"])
	require.Equal(t, "write report", patched["title"])

	// Delete
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", taskID), nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Gone now
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", taskID), nil, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonString(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func TestTaskCreationDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	rec := env.do(t, http.MethodPost, "/tasks", map[string]any{"title": "bare minimum"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decodeTask(t, rec)
	require.Equal(t, float64(1), task["cognitive_load"])
	require.Equal(t, float64(1), task["priority"])
	require.Equal(t, float64(1), task["state"])
	require.Equal(t, false, task["is_fragmentable"])
	require.Nil(t, task["description"], "unset description serializes as null")
}

func TestTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"priority": 2}},
		{"short description", map[string]any{"title": "x", "description": "ab"}},
		{"priority out of range", map[string]any{"title": "x", "priority": 4}},
		{"state out of range", map[string]any{"title": "x", "state": 0}},
		{"cognitive load out of range", map[string]any{"title": "x", "cognitive_load": 9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/tasks", tc.body, token)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTaskDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	rec := env.do(t, http.MethodPost, "/tasks", map[string]any{"title": "report"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Creating again under the same title is a bad request
	rec = env.do(t, http.MethodPost, "/tasks", map[string]any{"title": "report"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "already exists")

	// Renaming another task onto it is a conflict
	rec = env.do(t, http.MethodPost, "/tasks", map[string]any{"title": "other"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	otherID := int64(decodeTask(t, rec)["task_id"].(float64))

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/tasks/%d", otherID),
		map[string]any{"title": "report"}, token)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTaskOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	env.register(t, "bob", "correct horse battery")
	aliceToken := env.login(t, "alice", "correct horse battery")
	bobToken := env.login(t, "bob", "correct horse battery")

	rec := env.do(t, http.MethodPost, "/tasks", map[string]any{"title": "alice secret"}, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	taskID := int64(decodeTask(t, rec)["task_id"].(float64))

	missingID := taskID + 1000

	// Bob's answers for alice's task are byte-identical to a nonexistent id
	for _, tc := range []struct {
		name   string
		method string
		body   any
	}{
		{"get", http.MethodGet, nil},
		{"patch", http.MethodPatch, map[string]any{"state": 2}},
		{"delete", http.MethodDelete, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			foreign := env.do(t, tc.method, fmt.Sprintf("/tasks/%d", taskID), tc.body, bobToken)
			missing := env.do(t, tc.method, fmt.Sprintf("/tasks/%d", missingID), tc.body, bobToken)

			require.Equal(t, http.StatusNotFound, foreign.Code)
			require.Equal(t, http.StatusNotFound, missing.Code)
			require.Equal(t, missing.Body.String(), foreign.Body.String())
		})
	}

	// Bob's list never contains alice's task
	rec = env.do(t, http.MethodGet, "/tasks", nil, bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "alice secret")

	// And alice still has her task, untouched
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), nil, aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decodeTask(t, rec)["state"])
}

func TestTaskListOrdering(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	for _, task := range []map[string]any{
		{"title": "low", "priority": 1},
		{"title": "high", "priority": 3},
		{"title": "medium", "priority": 2},
	} {
		rec := env.do(t, http.MethodPost, "/tasks", task, token)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	require.Equal(t, "high", tasks[0]["title"])
	require.Equal(t, "medium", tasks[1]["title"])
	require.Equal(t, "low", tasks[2]["title"])
}

func TestTaskListEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	rec := env.do(t, http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestTaskIDParsing(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "correct horse battery")
	token := env.login(t, "alice", "correct horse battery")

	for _, id := range []string{"abc", "0", "-1", "1.5"} {
		rec := env.do(t, http.MethodGet, "/tasks/"+id, nil, token)
		require.Equal(t, http.StatusNotFound, rec.Code, "id %q", id)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}
