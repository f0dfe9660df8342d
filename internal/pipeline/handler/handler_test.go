package handler

import (
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
	"go.uber.org/mock/gomock"

	"connect2uni/internal/pipeline"
	"connect2uni/internal/pipeline/handler/mocks"
	"connect2uni/internal/platform/middleware"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger), mockService
}

func asActor(r *http.Request, role domain.Role, id uuid.UUID) *http.Request {
	ctx := middleware.WithActor(r.Context(), domain.Actor{Role: role, ID: id})
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleFileRequest(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	studentID := uuid.New()

	mockService.EXPECT().
		FileRequest(gomock.Any(), domain.ApplicationID(appID), domain.StudentID(studentID)).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/solicitor-requests/"+appID.String(), nil)
	req = asActor(req, domain.RoleStudent, studentID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleFileRequest(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleFileRequest_InvalidID(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/solicitor-requests/not-a-uuid", nil)
	req = asActor(req, domain.RoleStudent, uuid.New())
	req = withURLParam(req, "applicationID", "not-a-uuid")

	w := httptest.NewRecorder()
	handler.HandleFileRequest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFileRequest_Conflict(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	studentID := uuid.New()

	mockService.EXPECT().
		FileRequest(gomock.Any(), domain.ApplicationID(appID), domain.StudentID(studentID)).
		Return(dErrors.New(dErrors.CodeConflict, "solicitor request already filed for this application"))

	req := httptest.NewRequest(http.MethodPost, "/solicitor-requests/"+appID.String(), nil)
	req = asActor(req, domain.RoleStudent, studentID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleFileRequest(w, req)

	assert.Contains(t, w.Body.String(), "already filed")
	testutil.AssertStatusAndError(t, w, http.StatusConflict, "conflict")
}

func TestHandleStatus(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	studentID := uuid.New()
	solicitorID := domain.SolicitorID(uuid.New())

	mockService.EXPECT().
		Status(gomock.Any(), domain.ApplicationID(appID), domain.StudentID(studentID)).
		Return(&pipeline.StatusResult{
			State:      pipeline.StateAssigned,
			IsAssigned: true,
			Solicitor:  &solicitorID,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/solicitor-requests/"+appID.String()+"/status", nil)
	req = asActor(req, domain.RoleStudent, studentID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted_assigned", resp["state"])
	assert.Equal(t, true, resp["is_assigned"])
}

func TestHandleAssignToAssociate(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	agencyID := uuid.New()
	associateID := uuid.New()

	mockService.EXPECT().
		AssignToAssociate(gomock.Any(), domain.ApplicationID(appID),
			domain.AssociateID(associateID), domain.AgencyID(agencyID)).
		Return(nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/solicitor-requests/"+appID.String()+"/assign",
		assignAssociateRequest{AssociateID: associateID.String()})
	req = asActor(req, domain.RoleAgency, agencyID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleAssignToAssociate(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandleAssignToSolicitor_Forbidden(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	associateID := uuid.New()
	solicitorID := uuid.New()

	mockService.EXPECT().
		AssignToSolicitor(gomock.Any(), domain.ApplicationID(appID),
			domain.SolicitorID(solicitorID), domain.AssociateID(associateID)).
		Return(dErrors.New(dErrors.CodeForbidden, "solicitor was created by another associate"))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/solicitor-requests/"+appID.String()+"/assign",
		assignSolicitorRequest{SolicitorID: solicitorID.String()})
	req = asActor(req, domain.RoleAssociate, associateID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleAssignToSolicitor(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleApprove(t *testing.T) {
	handler, mockService := newTestHandler(t)
	appID := uuid.New()
	solicitorID := uuid.New()

	mockService.EXPECT().
		Approve(gomock.Any(), domain.ApplicationID(appID), domain.SolicitorID(solicitorID)).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/solicitor-requests/"+appID.String()+"/approve", nil)
	req = asActor(req, domain.RoleSolicitor, solicitorID)
	req = withURLParam(req, "applicationID", appID.String())

	w := httptest.NewRecorder()
	handler.HandleApprove(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandlePool(t *testing.T) {
	handler, mockService := newTestHandler(t)
	agencyID := uuid.New()
	appID := domain.ApplicationID(uuid.New())

	mockService.EXPECT().
		ListPool(gomock.Any(), pipeline.StageAgency, agencyID).
		Return([]*pipeline.Token{{ApplicationID: appID, Stage: pipeline.StageAgency, HolderID: agencyID}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/solicitor-requests", nil)
	req = asActor(req, domain.RoleAgency, agencyID)

	w := httptest.NewRecorder()
	handler.HandleAgencyPool(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, appID.String(), resp[0]["application_id"])
	assert.Equal(t, "agency", resp[0]["stage"])
}
