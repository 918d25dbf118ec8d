package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/approval"
	"timeclock/internal/approval/handler"
	approvalsvc "timeclock/internal/approval/service"
	approvalstore "timeclock/internal/approval/store"
	id "timeclock/pkg/domain"
	authmw "timeclock/pkg/platform/middleware/auth"
	"timeclock/pkg/testutil"
)

type fixture struct {
	router chi.Router
	svc    *approvalsvc.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := approvalsvc.New(approvalstore.NewMemoryRequestStore())

	r := chi.NewRouter()
	handler.New(svc, logger).Register(r)
	return &fixture{router: r, svc: svc}
}

func (f *fixture) enqueue(t *testing.T, userID id.UserID) approval.Request {
	t.Helper()
	req, err := f.svc.Enqueue(context.Background(), approvalsvc.EnqueueRequest{
		ID:            id.NewApprovalID(),
		SourceEventID: id.NewEventID(),
		UserID:        userID,
		RequestType:   approval.TypeTemporaryWorkplace,
		Reason:        "client site",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) asManager(req *http.Request) *http.Request {
	return testutil.WithRole(req, id.NewUserID(), authmw.RoleManager)
}

func TestHandleList(t *testing.T) {
	f := newFixture(t)
	userID := id.NewUserID()
	f.enqueue(t, userID)
	f.enqueue(t, id.NewUserID())

	t.Run("returns all requests", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodGet, "/approvals", nil))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Requests []handler.RequestResponse `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Requests, 2)
	})

	t.Run("filters by user", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodGet, "/approvals?user_id="+userID.String(), nil))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Requests []handler.RequestResponse `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Requests, 1)
		assert.Equal(t, userID.String(), resp.Requests[0].UserID)
	})

	t.Run("rejects malformed status filter", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodGet, "/approvals?status=bogus", nil))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleDecide(t *testing.T) {
	f := newFixture(t)
	pending := f.enqueue(t, id.NewUserID())

	t.Run("approves a pending request", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodPost,
			"/approvals/"+pending.ID.String()+"/decision", strings.NewReader(`{"approve":true}`)))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp handler.RequestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(approval.StatusApproved), resp.Status)
		assert.NotEmpty(t, resp.ManagerID)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodPost,
			"/approvals/"+pending.ID.String()+"/decision", strings.NewReader(`{"approve":false}`)))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		req := f.asManager(httptest.NewRequest(http.MethodPost,
			"/approvals/"+id.NewApprovalID().String()+"/decision", strings.NewReader(`{"approve":true}`)))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleBulkDecide(t *testing.T) {
	f := newFixture(t)
	first := f.enqueue(t, id.NewUserID())
	second := f.enqueue(t, id.NewUserID())
	ghost := id.NewApprovalID()

	body, err := json.Marshal(map[string]any{
		"ids":     []string{first.ID.String(), ghost.String(), second.ID.String()},
		"approve": true,
	})
	require.NoError(t, err)

	req := f.asManager(httptest.NewRequest(http.MethodPost, "/approvals/bulk-decision", strings.NewReader(string(body))))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.BulkDecideResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{first.ID.String(), second.ID.String()}, resp.Succeeded)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, ghost.String(), resp.Failed[0].ID)
}
