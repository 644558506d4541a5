package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

type groupServiceMock struct {
	listResp      []models.GroupDetail
	getResp       *models.GroupDetail
	getErr        error
	createResp    *models.GroupDetail
	createErr     error
	updateErr     error
	deleteErr     error
	available     []models.AvailableStudent
	availableErr  error
	lastCreateReq service.CreateGroupRequest
	lastFilter    models.GroupFilter
	lastAvailable models.AvailableStudentFilter
	createCalled  bool
}

func (m *groupServiceMock) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error) {
	m.lastFilter = filter
	return m.listResp, nil
}

func (m *groupServiceMock) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	return m.getResp, m.getErr
}

func (m *groupServiceMock) Create(ctx context.Context, req service.CreateGroupRequest) (*models.GroupDetail, error) {
	m.createCalled = true
	m.lastCreateReq = req
	return m.createResp, m.createErr
}

func (m *groupServiceMock) Update(ctx context.Context, id string, req service.UpdateGroupRequest) (*models.GroupDetail, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.getResp, nil
}

func (m *groupServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *groupServiceMock) AvailableStudents(ctx context.Context, groupID string, filter models.AvailableStudentFilter) ([]models.AvailableStudent, error) {
	m.lastAvailable = filter
	return m.available, m.availableErr
}

func TestGroupHandlerCreateAcceptsMixedMemberRefs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		createResp: &models.GroupDetail{Group: models.Group{ID: "grp-1", Name: "Team Rocket"}},
	}
	handler := NewGroupHandler(mockSvc)

	body := `{
		"name": "Team Rocket",
		"guide": "guide-1",
		"project_title": "Tracker",
		"project_description": "Tracks things",
		"project_technology": "Go",
		"year": 2026,
		"members": ["enr-1", {"enrollment": "BCA2026002"}, {"enrollmentNumber": "BCA2026003"}]
	}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, mockSvc.createCalled)

	members := mockSvc.lastCreateReq.Members
	require.Len(t, members, 3)
	assert.Equal(t, "enr-1", members[0].ID)
	assert.Equal(t, "BCA2026002", members[1].EnrollmentNumber)
	assert.Equal(t, "BCA2026003", members[2].EnrollmentNumber)
}

func TestGroupHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGroupHandler(&groupServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{"members": [42]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupHandlerCreateConflictPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, "one or more students are already assigned to a group"),
	}
	handler := NewGroupHandler(mockSvc)

	body := `{"name":"G","guide":"g1","project_title":"T","project_description":"D","project_technology":"Go","year":2026,"members":["e1","e2","e3"]}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrConflict.Code, envelope.Error.Code)
}

func TestGroupHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{}
	handler := NewGroupHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/groups?year=2026&guideId=guide-1", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2026, mockSvc.lastFilter.Year)
	assert.Equal(t, "guide-1", mockSvc.lastFilter.GuideID)
}

func TestGroupHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "group not found")}
	handler := NewGroupHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/groups/ghost", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupHandlerAvailableStudentsParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &groupServiceMock{
		available: []models.AvailableStudent{{EnrollmentNumber: "BCA2026009", Name: "Free"}},
	}
	handler := NewGroupHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/groups/grp-1/students/available?course=BCA&semester=6&year=2026", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "grp-1"}}

	handler.AvailableStudents(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AvailableStudentFilter{Course: "BCA", Semester: 6, Year: 2026}, mockSvc.lastAvailable)
}
