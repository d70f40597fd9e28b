package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/services"
	"github.com/brandforge-app/brandforge/internal/testutil"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

func newProfileRouter(t *testing.T) (*chi.Mux, *testutil.FakeDB) {
	t.Helper()
	db := testutil.NewFakeDB()
	svc := services.NewProfileService(db, nil)
	ledger := versioning.NewLedger(db, nil, logger.NewNop())
	h := NewProfileHandler(svc, ledger)

	r := chi.NewRouter()
	r.Post("/api/profiles", h.Create)
	r.Get("/api/profiles/{profileID}", h.Get)
	r.Get("/api/profiles/{profileID}/history", h.History)
	r.Put("/api/profiles/{profileID}/fields/{field}", h.UpdateField)
	r.Get("/api/profiles/{profileID}/fields/{field}/history", h.FieldHistory)
	r.Post("/api/profiles/{profileID}/fields/{field}/revert", h.RevertField)
	return r, db
}

// asUser injects the authenticated user the way the JWT middleware does.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "user_id", userID))
}

func doJSON(t *testing.T, router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req = asUser(req, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedProfile(t *testing.T, db *testutil.FakeDB) string {
	t.Helper()
	p := &models.BrandProfile{ID: "p1", UserID: "u1", Name: "Acme"}
	require.NoError(t, db.CreateProfile(context.Background(), p))
	return p.ID
}

func TestUpdateFieldEndpoint(t *testing.T) {
	router, db := newProfileRouter(t)
	id := seedProfile(t, db)

	w := doJSON(t, router, http.MethodPut, "/api/profiles/"+id+"/fields/brandName", "u1",
		map[string]any{"value": "Acme Robotics", "reason": "founder rename"})
	require.Equal(t, http.StatusOK, w.Code)

	var v models.FieldVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, "Acme Robotics", v.NewValue)
	assert.Equal(t, "manual", v.ChangeSource)
}

func TestUpdateFieldEndpointErrors(t *testing.T) {
	router, db := newProfileRouter(t)
	id := seedProfile(t, db)

	// Unknown field -> 400.
	w := doJSON(t, router, http.MethodPut, "/api/profiles/"+id+"/fields/notAField", "u1",
		map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Foreign profile -> 404.
	w = doJSON(t, router, http.MethodPut, "/api/profiles/"+id+"/fields/brandName", "intruder",
		map[string]any{"value": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// No authenticated user -> 401.
	w = doJSON(t, router, http.MethodPut, "/api/profiles/"+id+"/fields/brandName", "",
		map[string]any{"value": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHistoryAndRevertEndpoints(t *testing.T) {
	router, db := newProfileRouter(t)
	id := seedProfile(t, db)

	for _, v := range []string{"One", "Two"} {
		w := doJSON(t, router, http.MethodPut, "/api/profiles/"+id+"/fields/tagline", "u1",
			map[string]any{"value": v})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/profiles/"+id+"/fields/tagline/history", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist []models.FieldVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist, 2)
	assert.Equal(t, "One", hist[0].NewValue)

	w = doJSON(t, router, http.MethodPost, "/api/profiles/"+id+"/fields/tagline/revert", "u1",
		map[string]any{"version_id": hist[0].ID})
	require.Equal(t, http.StatusOK, w.Code)
	var rv models.FieldVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rv))
	assert.Equal(t, 3, rv.VersionNumber)
	assert.Equal(t, "One", rv.NewValue)

	// The activity feed shows the revert first.
	w = doJSON(t, router, http.MethodGet, "/api/profiles/"+id+"/history", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.FieldVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "Reverted to version 1", all[0].ChangeReason)
}

func TestCreateAndGetProfileEndpoints(t *testing.T) {
	router, _ := newProfileRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/profiles", "u1", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code)
	var p models.BrandProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "welcome", p.OnboardingStep)

	w = doJSON(t, router, http.MethodGet, "/api/profiles/"+p.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/profiles/"+p.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
