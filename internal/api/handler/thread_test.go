package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/toasahi/ramen-agent/internal/api/response"
	"github.com/toasahi/ramen-agent/internal/domain"
)

func newThreadRouter(directory domain.ThreadDirectory) http.Handler {
	h := NewThreadHandler(directory)
	r := chi.NewRouter()
	r.Get("/threads", h.List)
	r.Post("/threads", h.Create)
	r.Get("/threads/{threadID}", h.Get)
	r.Patch("/threads/{threadID}", h.Update)
	r.Delete("/threads/{threadID}", h.Delete)
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestThreadHandler_List(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("List", mock.Anything, domain.ListFilter{OrderBy: "createdAt", SortDirection: "ASC"}).
		Return([]domain.ThreadSummary{{ID: "t1", Title: "昨日の相談"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/threads?orderBy=createdAt&sortDirection=ASC", nil)
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	directory.AssertExpectations(t)
}

func TestThreadHandler_CreateGeneratesIDWhenMissing(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("Create", mock.Anything, mock.MatchedBy(func(id string) bool { return id != "" }), "").
		Return(domain.ThreadSummary{ID: "remote-1"}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/threads", strings.NewReader(`{}`))
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	directory.AssertExpectations(t)
}

func TestThreadHandler_CreateKeepsCallerID(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("Create", mock.Anything, "local-1", "豚骨の話").
		Return(domain.ThreadSummary{ID: "local-1"}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/threads",
		strings.NewReader(`{"threadId":"local-1","title":"豚骨の話"}`))
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	directory.AssertExpectations(t)
}

func TestThreadHandler_GetMissingThread(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("FetchOne", mock.Anything, "gone").
		Return(domain.ThreadSummary{}, domain.ErrNotFound)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/threads/gone", nil)
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
}

func TestThreadHandler_UpdateRenamesAndArchives(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("Rename", mock.Anything, "t1", "新しい名前").Return(nil).Once()
	directory.On("SetArchived", mock.Anything, "t1", true).Return(nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/threads/t1",
		strings.NewReader(`{"title":"新しい名前","archived":true}`))
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	directory.AssertExpectations(t)
}

func TestThreadHandler_UpdateIsPartial(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("SetArchived", mock.Anything, "t1", false).Return(nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/threads/t1",
		strings.NewReader(`{"archived":false}`))
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	directory.AssertNumberOfCalls(t, "Rename", 0)
}

func TestThreadHandler_Delete(t *testing.T) {
	directory := new(MockThreadDirectory)
	directory.On("Delete", mock.Anything, "t1").Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/threads/t1", nil)
	newThreadRouter(directory).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
