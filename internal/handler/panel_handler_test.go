package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type fakePanelSrv struct {
	hit           bool
	err           error
	registration  string
	career        string
	onlyWithSeats bool
	slip          []byte
	slipName      string
}

func (f *fakePanelSrv) record(registration, career string) dto.PanelHeader {
	f.registration = registration
	f.career = career
	return dto.PanelHeader{Registration: registration, CareerCode: career}
}

func (f *fakePanelSrv) EnrollmentDates(_ context.Context, registration, career string) (*dto.EnrollmentDatesResponse, bool, error) {
	return &dto.EnrollmentDatesResponse{Header: f.record(registration, career), Status: dto.PeriodStatusOpen}, f.hit, f.err
}

func (f *fakePanelSrv) Holds(_ context.Context, registration, career string) (*dto.HoldsResponse, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.HoldsResponse{Header: f.record(registration, career), Blocked: true, Reasons: []string{"Deuda"}}, f.hit, nil
}

func (f *fakePanelSrv) AvailableCourses(_ context.Context, registration, career string, onlyWithSeats bool) (*dto.AvailableCoursesResponse, bool, error) {
	f.onlyWithSeats = onlyWithSeats
	return &dto.AvailableCoursesResponse{Header: f.record(registration, career), Courses: []dto.AvailableCourse{{OfferingID: 101}}}, f.hit, f.err
}

func (f *fakePanelSrv) EnabledPeriod(_ context.Context, registration, career string) (*dto.EnabledPeriodResponse, bool, error) {
	return &dto.EnabledPeriodResponse{Header: f.record(registration, career), PeriodCode: "1/2025"}, f.hit, f.err
}

func (f *fakePanelSrv) CurrentEnrollment(_ context.Context, registration, career string) (*dto.CurrentEnrollmentResponse, bool, error) {
	return &dto.CurrentEnrollmentResponse{Header: f.record(registration, career)}, f.hit, f.err
}

func (f *fakePanelSrv) Panel(_ context.Context, registration, career string) (*dto.PanelResponse, bool, error) {
	return &dto.PanelResponse{Header: f.record(registration, career), Status: dto.StudentStatusActive}, f.hit, f.err
}

func (f *fakePanelSrv) EnrollmentSlip(_ context.Context, registration, career string) ([]byte, string, error) {
	f.record(registration, career)
	return f.slip, f.slipName, f.err
}

func newPanelRouter(srv *fakePanelSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPanelHandler(srv)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	students := router.Group("/students/:registration")
	students.GET("/enrollment-dates", h.EnrollmentDates)
	students.GET("/holds", h.Holds)
	students.GET("/available-courses", h.AvailableCourses)
	students.GET("/enabled-period", h.EnabledPeriod)
	students.GET("/enrollment", h.CurrentEnrollment)
	students.GET("/enrollment/slip", h.EnrollmentSlip)
	students.GET("/panel", h.Panel)
	return router
}

func TestPanelHandlerSectionsCarryCacheMeta(t *testing.T) {
	srv := &fakePanelSrv{hit: true}
	router := newPanelRouter(srv)

	for _, path := range []string{"enrollment-dates", "holds", "available-courses", "enabled-period", "enrollment", "panel"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/2150826/"+path+"?career=187-3", nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		var envelope responseEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, true, envelope.Meta["cache_hit"], path)
		header := envelope.Data["header"].(map[string]interface{})
		assert.Equal(t, "2150826", header["registration"], path)
		assert.Equal(t, "187-3", srv.career, path)
	}
}

func TestPanelHandlerAvailableCoursesFlag(t *testing.T) {
	srv := &fakePanelSrv{}
	router := newPanelRouter(srv)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/2150826/available-courses?onlyWithSeats=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.onlyWithSeats)
	assert.Empty(t, srv.career)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/2150826/available-courses?onlyWithSeats=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPanelHandlerMapsErrors(t *testing.T) {
	srv := &fakePanelSrv{err: appErrors.Clonef(appErrors.ErrStudentNotFound, "student with registration %s not found", "0000000")}
	router := newPanelRouter(srv)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/0000000/holds", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "STUDENT_NOT_FOUND", envelope.Error["code"])
	assert.Nil(t, envelope.Data)
}

func TestPanelHandlerEnrollmentSlip(t *testing.T) {
	srv := &fakePanelSrv{slip: []byte("%PDF-1.3"), slipName: "slip-INS-1-2025-ABCD1234.pdf"}
	router := newPanelRouter(srv)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/2150826/enrollment/slip", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="slip-INS-1-2025-ABCD1234.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}
