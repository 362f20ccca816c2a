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

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type fakePeriodReports struct {
	code  string
	drift []models.SeatDrift
	err   error
}

func (f *fakePeriodReports) ExportOfferings(_ context.Context, code string) ([]byte, string, error) {
	f.code = code
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("offering_id\n101\n"), "offerings-1-2025.csv", nil
}

func (f *fakePeriodReports) SeatAudit(_ context.Context, code string) ([]models.SeatDrift, error) {
	f.code = code
	return f.drift, f.err
}

func newPeriodRouter(reports *fakePeriodReports) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPeriodHandler(reports)
	router := gin.New()
	router.UseRawPath = true
	router.GET("/periods/:code/offerings/export", h.ExportOfferings)
	router.GET("/periods/:code/seat-audit", h.SeatAudit)
	return router
}

func TestPeriodHandlerExportDecodesCode(t *testing.T) {
	reports := &fakePeriodReports{}
	router := newPeriodRouter(reports)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/1%2F2025/offerings/export", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1/2025", reports.code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "offerings-1-2025.csv")
}

func TestPeriodHandlerActiveAlias(t *testing.T) {
	reports := &fakePeriodReports{}
	router := newPeriodRouter(reports)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/active/seat-audit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", reports.code)
	var envelope struct {
		Data []models.SeatDrift     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data)
	assert.Equal(t, true, envelope.Meta["balanced"])
}

func TestPeriodHandlerSeatAuditReportsDrift(t *testing.T) {
	reports := &fakePeriodReports{drift: []models.SeatDrift{{OfferingID: 101, SeatsTaken: 5, Selections: 4}}}
	router := newPeriodRouter(reports)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/active/seat-audit", nil))

	var envelope struct {
		Data []models.SeatDrift     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, false, envelope.Meta["balanced"])
}

func TestPeriodHandlerUnknownPeriod(t *testing.T) {
	router := newPeriodRouter(&fakePeriodReports{err: appErrors.Clonef(appErrors.ErrPeriodNotFound, "academic period %s not found", "9/1999")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/9%2F1999/offerings/export", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
