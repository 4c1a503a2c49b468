package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gradepulse/internal/store"
)

func newTestRouter(t *testing.T, passwordHash string) (http.Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	r := NewRouter(RouterConfig{
		Store:             st,
		AdminPasswordHash: passwordHash,
	})
	return r, st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["store"])

	rec = doJSON(t, router, http.MethodGet, "/api/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChannelLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodGet, "/api/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Channels []channelResponse `json:"channels"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Zero(t, list.Count)

	rec = doJSON(t, router, http.MethodPost, "/api/channels", map[string]interface{}{
		"id":   int64(-100555),
		"name": "grade-reports",
		"link": "t.me/gradereports",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, int64(-100555), list.Channels[0].ID)
	assert.True(t, list.Channels[0].Active, "active defaults to true")
}

func TestAddChannelValidation(t *testing.T) {
	router, _ := newTestRouter(t, "")

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing id", map[string]interface{}{"name": "grades"}, "id"},
		{"missing name", map[string]interface{}{"id": int64(-1)}, "name"},
		{"whitespace name", map[string]interface{}{"id": int64(-1), "name": "   "}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/channels", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Error struct {
					ErrorCode string `json:"error_code"`
					Details   struct {
						Field string `json:"field"`
					} `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "VALIDATION_FAILED", body.Error.ErrorCode)
			assert.Equal(t, tt.field, body.Error.Details.Field, "field name must come from the json tag")
		})
	}
}

func TestPutSettingRequiresValue(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPut, "/api/settings/"+store.SettingWelcomeMessage,
		map[string]string{"value": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRequiresPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	router, _ := newTestRouter(t, string(hash))

	rec := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsLifecycle(t *testing.T) {
	router, st := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPut, "/api/settings/"+store.SettingWelcomeMessage,
		map[string]string{"value": "Hello students!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	value, err := st.GetSetting(context.Background(), store.SettingWelcomeMessage)
	require.NoError(t, err)
	assert.Equal(t, "Hello students!", value)

	rec = doJSON(t, router, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "Hello students!", settings[store.SettingWelcomeMessage])
}

func TestPutSettingRejectsUnknownKey(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPut, "/api/settings/secret_key",
		map[string]string{"value": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			ErrorCode string `json:"error_code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SETTING_NOT_FOUND", body.Error.ErrorCode)
}

func TestPutSettingValidatesTemplate(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPut, "/api/settings/"+store.SettingResultTemplate,
		map[string]string{"value": "Grade: {grde}"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown placeholder must be rejected")

	rec = doJSON(t, router, http.MethodPut, "/api/settings/"+store.SettingResultTemplate,
		map[string]string{"value": "{subject}: {grade} (rank {rank}, {percentile}%)"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuthGuardsManagementRoutes(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	router, _ := newTestRouter(t, string(hash))

	// management routes rejected without a session
	rec := doJSON(t, router, http.MethodGet, "/api/channels", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// health stays open
	rec = doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// wrong password
	rec = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// correct password issues a session cookie
	rec = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{"password": "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)

	res := rec.Result()
	defer res.Body.Close()
	cookies := res.Cookies()
	require.NotEmpty(t, cookies)

	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "gradepulse_session" {
			session = c
		}
	}
	require.NotNil(t, session)

	rec = doJSON(t, router, http.MethodGet, "/api/channels", nil, session)
	assert.Equal(t, http.StatusOK, rec.Code)

	// logout invalidates the session
	rec = doJSON(t, router, http.MethodPost, "/api/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/channels", nil, session)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDisabledWhenNoHash(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
