package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
)

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.items {
		if strings.HasPrefix(key, prefix) {
			delete(r.items, key)
		}
	}
	return nil
}

type panelFixture struct {
	mu          sync.Mutex
	student     *models.Student
	careers     []models.StudentCareer
	period      *models.AcademicPeriod
	holds       models.HoldStatus
	offerings   []models.OfferingDetail
	enrollment  *models.EnrollmentDetail
	drift       []models.SeatDrift
	filters     []models.OfferingFilter
	studentHits int
}

func newPanelFixture() *panelFixture {
	confirmedAt := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	return &panelFixture{
		student: &models.Student{Registration: "2150826", FirstName: "Ana", PaternalName: "Rojas", MaternalName: "Vaca"},
		careers: []models.StudentCareer{
			{ID: 9, Registration: "2150826", CareerID: 4, CareerCode: "187-3", CareerName: "Ingenieria Informatica", PlanID: 7, PlanCode: "187-3-2019", CurrentSemester: 3, Modality: models.ModalityOnSite, Active: true},
			{ID: 12, Registration: "2150826", CareerID: 5, CareerCode: "188-1", CareerName: "Ingenieria de Sistemas", PlanID: 8, CurrentSemester: 1, Modality: models.ModalityVirtual, Active: true},
		},
		period: &models.AcademicPeriod{ID: 3, Code: "1/2025", Name: "Primer semestre 2025", Active: true, EnrollmentOpen: true},
		offerings: []models.OfferingDetail{
			{Offering: models.Offering{ID: 101, PeriodID: 3, GroupCode: "SA", Capacity: 40, SeatsTaken: 38, Schedule: "LU-MI 07:00"}, CourseCode: "INF-110", CourseName: "Introduccion a la informatica", Credits: 5, CareerCode: "187-3", Semester: 3},
			{Offering: models.Offering{ID: 104, PeriodID: 3, GroupCode: "SB", Capacity: 40, SeatsTaken: 40}, CourseCode: "LIN-300", CourseName: "Ingles tecnico", Credits: 3, CareerCode: "187-3", Semester: 3},
		},
		enrollment: &models.EnrollmentDetail{
			Enrollment: models.Enrollment{ID: "enr-1", StudentCareerID: 9, PeriodID: 3, Status: models.EnrollmentStatusConfirmed, ConfirmedAt: &confirmedAt, ReceiptNumber: "INS-1/2025-ABCD1234"},
			PeriodCode: "1/2025",
			Offerings: []models.SelectedOfferingDetail{
				{SelectedOffering: models.SelectedOffering{EnrollmentID: "enr-1", OfferingID: 101, GroupCode: "SA"}, CourseCode: "INF-110", CourseName: "Introduccion a la informatica", Credits: 5},
				{SelectedOffering: models.SelectedOffering{EnrollmentID: "enr-1", OfferingID: 102, GroupCode: "SA"}, CourseCode: "MAT-101", CourseName: "Calculo I", Credits: 4},
			},
		},
	}
}

func (f *panelFixture) FindByRegistration(ctx context.Context, registration string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.studentHits++
	if f.student == nil || f.student.Registration != registration {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

func (f *panelFixture) FindActiveCareer(ctx context.Context, registration, careerCode string) (*models.StudentCareer, error) {
	for _, career := range f.careers {
		if career.CareerCode == careerCode {
			c := career
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *panelFixture) ListActiveCareers(ctx context.Context, registration string) ([]models.StudentCareer, error) {
	return f.careers, nil
}

func (f *panelFixture) Resolve(ctx context.Context, code string) (*models.AcademicPeriod, error) {
	if code != "" && (f.period == nil || code != f.period.Code) {
		return nil, appErrors.Clonef(appErrors.ErrPeriodNotFound, "academic period %s not found", code)
	}
	if f.period == nil {
		return nil, appErrors.ErrNoActivePeriod
	}
	return f.period, nil
}

func (f *panelFixture) Check(ctx context.Context, studentCareerID int64) (*models.HoldStatus, error) {
	status := f.holds
	return &status, nil
}

func (f *panelFixture) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if !filter.OnlyWithSeats {
		return f.offerings, nil
	}
	var out []models.OfferingDetail
	for _, o := range f.offerings {
		if !o.Full() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *panelFixture) SeatDrift(ctx context.Context, periodID int64) ([]models.SeatDrift, error) {
	return f.drift, nil
}

func (f *panelFixture) FindByStudentCareerAndPeriod(ctx context.Context, studentCareerID, periodID int64) (*models.EnrollmentDetail, error) {
	if f.enrollment == nil || f.enrollment.StudentCareerID != studentCareerID {
		return nil, sql.ErrNoRows
	}
	return f.enrollment, nil
}

func (f *panelFixture) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

type rendererStub struct {
	data export.Dataset
}

func (r *rendererStub) Render(data export.Dataset) ([]byte, error) {
	r.data = data
	return []byte("%PDF-stub"), nil
}

func newPanelService(f *panelFixture, cache *CacheService, pdf documentRenderer) *PanelService {
	return NewPanelService(PanelServiceParams{
		Students:    f,
		Periods:     f,
		Holds:       f,
		Offerings:   f,
		Enrollments: f,
		Cache:       cache,
		PDF:         pdf,
	})
}

func TestPanelServiceComposesPanel(t *testing.T) {
	fixture := newPanelFixture()
	svc := newPanelService(fixture, nil, nil)

	panel, hit, err := svc.Panel(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Ana Rojas Vaca", panel.Header.FullName)
	assert.Equal(t, "Presencial", panel.Header.Modality)
	assert.Equal(t, "UAGRM", panel.Header.University)
	assert.Equal(t, dto.StudentStatusActive, panel.Status)
	require.NotNil(t, panel.Period)
	assert.Equal(t, "1/2025", panel.Period.Code)
	require.NotNil(t, panel.Enrollment)
	assert.Equal(t, 9, panel.Enrollment.TotalCredits)
	assert.Len(t, panel.AvailableCourses, 2)
	assert.Equal(t, dto.PanelOptions{EnrollmentDates: true, Slip: true, Holds: false, Enrollment: true}, panel.Options)

	require.Len(t, fixture.filters, 1)
	assert.Equal(t, models.OfferingFilter{PeriodID: 3, CareerID: 4, PlanID: 7, Semester: 3}, fixture.filters[0])
}

func TestPanelServiceBlockedStudent(t *testing.T) {
	fixture := newPanelFixture()
	fixture.holds = models.HoldStatus{
		Blocked: true,
		Reasons: []string{"Deuda de matricula"},
		Holds:   []models.Hold{{ID: 1, Type: models.HoldTypeFinancial, Reason: "Deuda de matricula", Active: true}},
	}
	svc := newPanelService(fixture, nil, nil)

	panel, _, err := svc.Panel(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.Equal(t, dto.StudentStatusBlocked, panel.Status)
	assert.True(t, panel.Options.Holds)
	assert.False(t, panel.Options.Enrollment)
	require.Len(t, panel.Holds, 1)
	assert.Equal(t, "FINANCIERO", panel.Holds[0].Type)
}

func TestPanelServiceWithoutActivePeriod(t *testing.T) {
	fixture := newPanelFixture()
	fixture.period = nil
	svc := newPanelService(fixture, nil, nil)

	panel, _, err := svc.Panel(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.Nil(t, panel.Period)
	assert.Nil(t, panel.Enrollment)
	assert.Empty(t, panel.AvailableCourses)
	assert.Equal(t, dto.PanelOptions{}, panel.Options)

	dates, _, err := svc.EnrollmentDates(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.Equal(t, dto.PeriodStatusClosed, dates.Status)

	enabled, _, err := svc.EnabledPeriod(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.Empty(t, enabled.PeriodCode)
	assert.Equal(t, dto.PeriodStatusClosed, enabled.Status)

	_, _, err = svc.EnrollmentSlip(context.Background(), "2150826", "187-3")
	assert.ErrorIs(t, err, appErrors.ErrNoActivePeriod)
}

func TestPanelServiceDefaultsToFirstActiveCareer(t *testing.T) {
	fixture := newPanelFixture()
	svc := newPanelService(fixture, nil, nil)

	resp, _, err := svc.Holds(context.Background(), "2150826", "")
	require.NoError(t, err)
	assert.Equal(t, "187-3", resp.Header.CareerCode)
	assert.Equal(t, []dto.HoldItem{}, resp.Holds)

	other, _, err := svc.Holds(context.Background(), "2150826", "188-1")
	require.NoError(t, err)
	assert.Equal(t, "Virtual", other.Header.Modality)
}

func TestPanelServiceSubjectErrors(t *testing.T) {
	svc := newPanelService(newPanelFixture(), nil, nil)

	_, _, err := svc.Panel(context.Background(), "0000000", "")
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)

	_, _, err = svc.Panel(context.Background(), "2150826", "999-9")
	assert.ErrorIs(t, err, appErrors.ErrCareerNotActive)

	_, _, err = svc.Panel(context.Background(), "  ", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPanelServiceAvailableCoursesOnlyWithSeats(t *testing.T) {
	fixture := newPanelFixture()
	svc := newPanelService(fixture, nil, nil)

	resp, _, err := svc.AvailableCourses(context.Background(), "2150826", "187-3", true)
	require.NoError(t, err)
	assert.Equal(t, "1/2025", resp.PeriodCode)
	require.Len(t, resp.Courses, 1)
	assert.Equal(t, "INF-110", resp.Courses[0].CourseCode)
	assert.Equal(t, 2, resp.Courses[0].SeatsFree)
	assert.True(t, fixture.filters[0].OnlyWithSeats)
}

func TestPanelServiceCachesAndInvalidates(t *testing.T) {
	fixture := newPanelFixture()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := newPanelService(fixture, cache, nil)
	ctx := context.Background()

	_, hit, err := svc.AvailableCourses(ctx, "2150826", "187-3", false)
	require.NoError(t, err)
	assert.False(t, hit)

	resp, hit, err := svc.AvailableCourses(ctx, "2150826", "187-3", false)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, resp.Courses, 2)
	assert.Equal(t, 1, fixture.listCalls())
	assert.Equal(t, 1, fixture.studentHits)

	require.NoError(t, cache.Invalidate(ctx, OfferingCachePattern("1/2025")))
	_, hit, err = svc.AvailableCourses(ctx, "2150826", "187-3", false)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fixture.listCalls())

	_, _, err = svc.CurrentEnrollment(ctx, "2150826", "187-3")
	require.NoError(t, err)
	_, hit, err = svc.CurrentEnrollment(ctx, "2150826", "187-3")
	require.NoError(t, err)
	assert.True(t, hit)

	require.NoError(t, cache.Invalidate(ctx, PanelCachePattern("2150826")))
	_, hit, err = svc.CurrentEnrollment(ctx, "2150826", "187-3")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fixture.studentHits)
}

func TestPanelServiceEnrollmentSlip(t *testing.T) {
	fixture := newPanelFixture()
	pdf := &rendererStub{}
	svc := newPanelService(fixture, nil, pdf)

	content, filename, err := svc.EnrollmentSlip(context.Background(), "2150826", "187-3")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stub"), content)
	assert.Equal(t, "slip-INS-1-2025-ABCD1234.pdf", filename)
	assert.Len(t, pdf.data.Rows, 2)
	assert.Contains(t, pdf.data.Footer, export.Field{Label: "Total credits", Value: "9"})
	assert.Contains(t, pdf.data.Fields, export.Field{Label: "Confirmed at", Value: "2025-02-10 09:30"})

	fixture.enrollment.Status = models.EnrollmentStatusPending
	_, _, err = svc.EnrollmentSlip(context.Background(), "2150826", "187-3")
	assert.ErrorIs(t, err, appErrors.ErrEnrollmentNotFound)

	fixture.enrollment = nil
	_, _, err = svc.EnrollmentSlip(context.Background(), "2150826", "187-3")
	assert.ErrorIs(t, err, appErrors.ErrEnrollmentNotFound)
}

func TestPanelServiceExportOfferings(t *testing.T) {
	svc := newPanelService(newPanelFixture(), nil, nil)

	content, filename, err := svc.ExportOfferings(context.Background(), "1/2025")
	require.NoError(t, err)
	assert.Equal(t, "offerings-1-2025.csv", filename)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "offering_id,course_code,course_name,career_code,semester,group,capacity,seats_taken,seats_free", lines[0])
	assert.Equal(t, "104,LIN-300,Ingles tecnico,187-3,3,SB,40,40,0", lines[2])

	_, _, err = svc.ExportOfferings(context.Background(), "9/1999")
	assert.ErrorIs(t, err, appErrors.ErrPeriodNotFound)
}

func TestPanelServiceSeatAudit(t *testing.T) {
	fixture := newPanelFixture()
	fixture.drift = []models.SeatDrift{{OfferingID: 101, CourseCode: "INF-110", SeatsTaken: 38, Selections: 37}}
	svc := newPanelService(fixture, nil, nil)

	drift, err := svc.SeatAudit(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, fixture.drift, drift)
}
