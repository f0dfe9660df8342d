package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect2uni/internal/application"
	"connect2uni/internal/directory"
	"connect2uni/internal/notification"
	"connect2uni/internal/platform/middleware"
	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/tx"
)

type noopNotifier struct{}

func (noopNotifier) Dispatch(context.Context, uuid.UUID, notification.Type, string) error {
	return nil
}

// harness runs the handler against the real service over memory stores, with
// an actor-injecting middleware standing in for JWT auth.
type harness struct {
	router     chi.Router
	dir        *directory.MemoryStore
	student    uuid.UUID
	agency     uuid.UUID
	university uuid.UUID
	course     domain.CourseID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dir:        directory.NewMemoryStore(),
		student:    uuid.New(),
		agency:     uuid.New(),
		university: uuid.New(),
		course:     domain.CourseID(uuid.New()),
	}

	h.dir.PutStudent(&directory.Student{
		ID: domain.StudentID(h.student), FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
	})
	h.dir.PutAgency(&directory.Agency{
		ID: domain.AgencyID(h.agency), Name: "Head Office", IsDefault: true,
	})
	h.dir.PutUniversity(&directory.University{
		ID: domain.UniversityID(h.university), Name: "Northfield University",
	})
	h.dir.PutCourse(&directory.Course{
		ID: h.course, University: domain.UniversityID(h.university),
		Name: "MSc Computing", Status: directory.CourseActive,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(application.NewMemoryStore(), h.dir, tx.NewShardedRunner(),
		noopNotifier{}, nil, nil, logger, nil, 3)
	handler := New(svc, logger)

	h.router = chi.NewRouter()
	h.router.Route("/student", func(r chi.Router) {
		r.Use(h.injectActor(domain.RoleStudent, h.student))
		handler.RegisterStudent(r)
	})
	h.router.Route("/agency", func(r chi.Router) {
		r.Use(h.injectActor(domain.RoleAgency, h.agency))
		handler.RegisterAgency(r)
	})
	h.router.Route("/university", func(r chi.Router) {
		r.Use(h.injectActor(domain.RoleUniversity, h.university))
		handler.RegisterUniversity(r)
	})
	return h
}

func (h *harness) injectActor(role domain.Role, id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithActor(r.Context(), domain.Actor{Role: role, ID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) applyOK(t *testing.T) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/student/applications", applyRequest{
		CourseID: h.course.String(),
		Grades:   "AAB",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp applicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func TestApplyEndpoint(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/student/applications", applyRequest{
		CourseID:  h.course.String(),
		Grades:    "AAB",
		Documents: []string{"transcript.pdf"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp applicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Processing", resp.Status)
	assert.Equal(t, h.course.String(), resp.Course)
	assert.Equal(t, h.university.String(), resp.University)

	// duplicate application for the same course
	w = h.do(t, http.MethodPost, "/student/applications", applyRequest{CourseID: h.course.String()})
	assert.Equal(t, http.StatusConflict, w.Code)

	// malformed course id
	w = h.do(t, http.MethodPost, "/student/applications", applyRequest{CourseID: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentListAndGet(t *testing.T) {
	h := newHarness(t)
	id := h.applyOK(t)

	w := h.do(t, http.MethodGet, "/student/applications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []applicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	w = h.do(t, http.MethodGet, "/student/applications/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/student/applications?status=Accepted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)

	w = h.do(t, http.MethodGet, "/student/applications?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecisionFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	id := h.applyOK(t)

	// agency sees it pending
	w := h.do(t, http.MethodGet, "/agency/applications?stage=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pool []placementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pool))
	require.Len(t, pool, 1)
	assert.Equal(t, id, pool[0].ApplicationID)

	// forward to the university
	w = h.do(t, http.MethodPost, "/agency/applications/"+id+"/send", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// university decides
	w = h.do(t, http.MethodPost, "/university/applications/"+id+"/accept", acceptRequest{
		OfferLetterURL: "https://cdn.example.com/offer.pdf",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// second decision conflicts
	w = h.do(t, http.MethodPost, "/university/applications/"+id+"/accept", acceptRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	// student sees the outcome
	w = h.do(t, http.MethodGet, "/student/applications/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp applicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Accepted", resp.Status)
	assert.Contains(t, resp.ExtraDocuments, "https://cdn.example.com/offer.pdf")
}

func TestRejectRequiresReason(t *testing.T) {
	h := newHarness(t)
	id := h.applyOK(t)

	w := h.do(t, http.MethodPost, "/agency/applications/"+id+"/reject", rejectRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/agency/applications/"+id+"/reject", rejectRequest{Reason: "ineligible"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWithdrawEndpoint(t *testing.T) {
	h := newHarness(t)
	id := h.applyOK(t)

	w := h.do(t, http.MethodPost, "/student/applications/"+id+"/withdraw", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodPost, "/student/applications/"+id+"/withdraw", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
