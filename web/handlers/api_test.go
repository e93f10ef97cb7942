package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/persona/internal/engine"
	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/pkg/types"
)

// newTestHandlers builds handlers over fresh in-memory stores.
func newTestHandlers(t *testing.T) (*APIHandlers, *store.MemoryStore) {
	t.Helper()
	backend := kv.NewMemStore()
	profile := store.NewProfileStore(backend)
	memories := store.NewMemoryStore(backend)
	config := store.NewConfigStore(backend)
	assembler := engine.NewAssembler(profile, memories, config)
	return NewAPIHandlers(profile, memories, config, assembler), memories
}

// newTestMux registers the API routes the way the server does.
func newTestMux(h *APIHandlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/profile", h.UpdateProfile)
	mux.HandleFunc("POST /api/profile/reset", h.ResetProfile)
	mux.HandleFunc("GET /api/memories", h.ListMemories)
	mux.HandleFunc("POST /api/memories", h.CreateMemory)
	mux.HandleFunc("GET /api/memories/stats", h.GetMemoryStats)
	mux.HandleFunc("GET /api/memories/{id}", h.GetMemory)
	mux.HandleFunc("PUT /api/memories/{id}", h.UpdateMemory)
	mux.HandleFunc("DELETE /api/memories/{id}", h.DeleteMemory)
	mux.HandleFunc("POST /api/memories/{id}/toggle", h.ToggleMemory)
	mux.HandleFunc("GET /api/config", h.GetMemoryConfig)
	mux.HandleFunc("PUT /api/config", h.UpdateMemoryConfig)
	mux.HandleFunc("GET /api/context/preview", h.PreviewSelection)
	mux.HandleFunc("POST /api/context", h.BuildContext)
	mux.HandleFunc("GET /api/snapshot/export", h.ExportSnapshot)
	mux.HandleFunc("POST /api/snapshot/import", h.ImportSnapshot)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProfileRoundTrip(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	profession := "后端工程师"
	rec := doJSON(t, mux, http.MethodPut, "/api/profile", types.ProfileUpdate{Profession: &profession})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "后端工程师", profile.Profession)
}

func TestProfileReset(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	profession := "dev"
	doJSON(t, mux, http.MethodPut, "/api/profile", types.ProfileUpdate{Profession: &profession})

	rec := doJSON(t, mux, http.MethodPost, "/api/profile/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Empty(t, profile.Profession)
}

func TestCreateAndGetMemory(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/memories", CreateMemoryRequest{
		Content:    "用户偏好简短回复",
		Category:   types.CategoryPreference,
		Tags:       []string{"style"},
		Importance: 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)

	rec = doJSON(t, mux, http.MethodGet, "/api/memories/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMemoryEmptyContent(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/memories", CreateMemoryRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMemoryNotFound(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	content := "x"
	rec := doJSON(t, mux, http.MethodPut, "/api/memories/nope", types.FragmentUpdate{Content: &content})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMemory(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	f, err := memories.Add(types.Fragment{Content: "temp"})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodDelete, "/api/memories/"+f.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/memories/"+f.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleMemory(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	f, err := memories.Add(types.Fragment{Content: "toggleable"})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodPost, "/api/memories/"+f.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled types.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.False(t, toggled.Enabled)
}

func TestListMemoriesSearch(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	_, err := memories.Add(types.Fragment{Content: "likes Go generics"})
	require.NoError(t, err)
	_, err = memories.Add(types.Fragment{Content: "prefers tabs"})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/api/memories?q=generics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []types.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "likes Go generics", results[0].Content)
}

func TestMemoryStats(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	_, err := memories.Add(types.Fragment{Content: "a", Importance: 5})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/api/memories/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.MemoryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Enabled)
}

func TestConfigUpdateNormalizes(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	rec := doJSON(t, mux, http.MethodPut, "/api/config", types.MemoryConfig{
		InjectionStrategy: types.StrategyAll,
		MaxTokens:         -100,
		MaxMemories:       5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg types.MemoryConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, types.DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, 5, cfg.MaxMemories)
}

func TestPreviewDoesNotRecordUsage(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	f, err := memories.Add(types.Fragment{Content: "always on", Importance: 5})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/api/context/preview?message=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var selected []types.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &selected))
	require.Len(t, selected, 1)

	got, err := memories.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)
}

func TestBuildContextRecordsUsage(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	f, err := memories.Add(types.Fragment{Content: "remembered fact", Importance: 5})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodPost, "/api/context", ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Context, "remembered fact")
	assert.Contains(t, resp.Context, "# 个性化上下文")

	got, err := memories.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)
}

func TestSnapshotExportImport(t *testing.T) {
	h, memories := newTestHandlers(t)
	mux := newTestMux(h)

	_, err := memories.Add(types.Fragment{Content: "exported fact"})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/api/snapshot/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "persona-snapshot.json")
	exported := rec.Body.Bytes()

	// Import into a fresh instance.
	h2, memories2 := newTestHandlers(t)
	mux2 := newTestMux(h2)

	req := httptest.NewRequest(http.MethodPost, "/api/snapshot/import", bytes.NewReader(exported))
	rec2 := httptest.NewRecorder()
	mux2.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	assert.Len(t, memories2.List(), 1)
}

func TestSnapshotImportMalformed(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := newTestMux(h)

	req := httptest.NewRequest(http.MethodPost, "/api/snapshot/import", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
