package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
)

const defaultCareerKey = "-"

type panelStudentReader interface {
	FindByRegistration(ctx context.Context, registration string) (*models.Student, error)
	FindActiveCareer(ctx context.Context, registration, careerCode string) (*models.StudentCareer, error)
	ListActiveCareers(ctx context.Context, registration string) ([]models.StudentCareer, error)
}

type panelPeriodResolver interface {
	Resolve(ctx context.Context, code string) (*models.AcademicPeriod, error)
}

type panelHoldReader interface {
	Check(ctx context.Context, studentCareerID int64) (*models.HoldStatus, error)
}

type panelOfferingReader interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, error)
	SeatDrift(ctx context.Context, periodID int64) ([]models.SeatDrift, error)
}

type panelEnrollmentReader interface {
	FindByStudentCareerAndPeriod(ctx context.Context, studentCareerID, periodID int64) (*models.EnrollmentDetail, error)
}

type documentRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// PanelCachePattern matches every cached panel entry of a student.
func PanelCachePattern(registration string) string {
	return fmt.Sprintf("panel:%s:*", registration)
}

// OfferingCachePattern matches every cached offering listing of a period.
func OfferingCachePattern(periodCode string) string {
	return fmt.Sprintf("offerings:%s:*", periodCode)
}

// PanelServiceConfig tunes the panel.
type PanelServiceConfig struct {
	University string
	CacheTTL   time.Duration
}

// PanelServiceParams groups constructor dependencies.
type PanelServiceParams struct {
	Students    panelStudentReader
	Periods     panelPeriodResolver
	Holds       panelHoldReader
	Offerings   panelOfferingReader
	Enrollments panelEnrollmentReader
	Cache       *CacheService
	PDF         documentRenderer
	CSV         documentRenderer
	Logger      *zap.Logger
	Config      PanelServiceConfig
}

// PanelService serves the read-only student dashboard.
type PanelService struct {
	students    panelStudentReader
	periods     panelPeriodResolver
	holds       panelHoldReader
	offerings   panelOfferingReader
	enrollments panelEnrollmentReader
	cache       *CacheService
	pdf         documentRenderer
	csv         documentRenderer
	logger      *zap.Logger
	cfg         PanelServiceConfig
}

// NewPanelService constructs a PanelService with defaults applied.
func NewPanelService(params PanelServiceParams) *PanelService {
	cfg := params.Config
	if cfg.University == "" {
		cfg.University = "UAGRM"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if params.PDF == nil {
		params.PDF = export.NewPDFExporter()
	}
	if params.CSV == nil {
		params.CSV = export.NewCSVExporter()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelService{
		students:    params.Students,
		periods:     params.Periods,
		holds:       params.Holds,
		offerings:   params.Offerings,
		enrollments: params.Enrollments,
		cache:       params.Cache,
		pdf:         params.PDF,
		csv:         params.CSV,
		logger:      logger,
		cfg:         cfg,
	}
}

// panelSubject is the resolved student career a panel request is about.
type panelSubject struct {
	Header          dto.PanelHeader `json:"header"`
	StudentCareerID int64           `json:"studentCareerId"`
	CareerID        int64           `json:"careerId"`
	PlanID          int64           `json:"planId"`
	Semester        int             `json:"semester"`

	requested string
}

func (p *panelSubject) key(section string) string {
	return fmt.Sprintf("panel:%s:%s:%s", p.Header.Registration, p.requested, section)
}

// EnrollmentDates returns the enrollment window of the active period.
func (s *PanelService) EnrollmentDates(ctx context.Context, registration, careerCode string) (*dto.EnrollmentDatesResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	var resp dto.EnrollmentDatesResponse
	hit, err := s.cached(ctx, subject.key("enrollment-dates"), &resp, func() error {
		period, err := s.activePeriod(ctx)
		if err != nil {
			return err
		}
		status := dto.PeriodStatusClosed
		if period != nil && period.EnrollmentOpen {
			status = dto.PeriodStatusOpen
		}
		resp = dto.EnrollmentDatesResponse{Header: subject.Header, Period: periodSummary(period), Status: status}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

// Holds returns the active holds of the student career.
func (s *PanelService) Holds(ctx context.Context, registration, careerCode string) (*dto.HoldsResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	var resp dto.HoldsResponse
	hit, err := s.cached(ctx, subject.key("holds"), &resp, func() error {
		status, err := s.holds.Check(ctx, subject.StudentCareerID)
		if err != nil {
			return err
		}
		resp = dto.HoldsResponse{Header: subject.Header, Blocked: status.Blocked, Reasons: status.Reasons, Holds: holdItems(status.Holds)}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

// AvailableCourses lists the offerings of the active period for the student's career, plan and semester.
func (s *PanelService) AvailableCourses(ctx context.Context, registration, careerCode string, onlyWithSeats bool) (*dto.AvailableCoursesResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	period, err := s.activePeriod(ctx)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.AvailableCoursesResponse{Header: subject.Header, Semester: subject.Semester, Courses: []dto.AvailableCourse{}}
	if period == nil {
		return resp, false, nil
	}
	courses, hit, err := s.availableCourses(ctx, subject, period, onlyWithSeats)
	if err != nil {
		return nil, false, err
	}
	resp.PeriodCode = period.Code
	resp.Courses = courses
	return resp, hit, nil
}

// EnabledPeriod reports the active period code and whether one is open.
func (s *PanelService) EnabledPeriod(ctx context.Context, registration, careerCode string) (*dto.EnabledPeriodResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	var resp dto.EnabledPeriodResponse
	hit, err := s.cached(ctx, subject.key("enabled-period"), &resp, func() error {
		period, err := s.activePeriod(ctx)
		if err != nil {
			return err
		}
		resp = dto.EnabledPeriodResponse{Header: subject.Header, Status: dto.PeriodStatusClosed}
		if period != nil {
			resp.PeriodCode = period.Code
			resp.Status = dto.PeriodStatusOpen
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

// CurrentEnrollment returns the enrollment of the student career in the active period, if any.
func (s *PanelService) CurrentEnrollment(ctx context.Context, registration, careerCode string) (*dto.CurrentEnrollmentResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	var resp dto.CurrentEnrollmentResponse
	hit, err := s.cached(ctx, subject.key("enrollment"), &resp, func() error {
		period, err := s.activePeriod(ctx)
		if err != nil {
			return err
		}
		view, err := s.enrollmentView(ctx, subject, period)
		if err != nil {
			return err
		}
		resp = dto.CurrentEnrollmentResponse{Header: subject.Header, Enrollment: view}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

// Panel composes every section, loading them concurrently.
func (s *PanelService) Panel(ctx context.Context, registration, careerCode string) (*dto.PanelResponse, bool, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, false, err
	}
	var resp dto.PanelResponse
	hit, err := s.cached(ctx, subject.key("panel"), &resp, func() error {
		period, err := s.activePeriod(ctx)
		if err != nil {
			return err
		}

		var (
			status  *models.HoldStatus
			view    *dto.EnrollmentView
			courses = []dto.AvailableCourse{}
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			status, err = s.holds.Check(gctx, subject.StudentCareerID)
			return err
		})
		g.Go(func() error {
			var err error
			view, err = s.enrollmentView(gctx, subject, period)
			return err
		})
		if period != nil {
			g.Go(func() error {
				var err error
				courses, _, err = s.availableCourses(gctx, subject, period, false)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		open := period != nil && period.EnrollmentOpen
		resp = dto.PanelResponse{
			Header:           subject.Header,
			Status:           dto.StudentStatusActive,
			Period:           periodSummary(period),
			Holds:            holdItems(status.Holds),
			Enrollment:       view,
			AvailableCourses: courses,
			Options: dto.PanelOptions{
				EnrollmentDates: open,
				Slip:            view != nil && view.ReceiptNumber != "",
				Holds:           status.Blocked,
				Enrollment:      open && !status.Blocked,
			},
		}
		if status.Blocked {
			resp.Status = dto.StudentStatusBlocked
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &resp, hit, nil
}

// EnrollmentSlip renders the PDF slip of the confirmed enrollment in the active period.
func (s *PanelService) EnrollmentSlip(ctx context.Context, registration, careerCode string) ([]byte, string, error) {
	subject, err := s.subject(ctx, registration, careerCode)
	if err != nil {
		return nil, "", err
	}
	period, err := s.periods.Resolve(ctx, "")
	if err != nil {
		return nil, "", err
	}
	view, err := s.enrollmentView(ctx, subject, period)
	if err != nil {
		return nil, "", err
	}
	if view == nil || view.Status != string(models.EnrollmentStatusConfirmed) {
		return nil, "", appErrors.Clonef(appErrors.ErrEnrollmentNotFound,
			"no confirmed enrollment for %s in period %s", subject.Header.Registration, period.Code)
	}

	confirmedAt := ""
	if view.ConfirmedAt != nil {
		confirmedAt = view.ConfirmedAt.Format("2006-01-02 15:04")
	}
	data := export.Dataset{
		Title: "Enrollment slip",
		Fields: []export.Field{
			{Label: "University", Value: subject.Header.University},
			{Label: "Registration", Value: subject.Header.Registration},
			{Label: "Student", Value: subject.Header.FullName},
			{Label: "Career", Value: subject.Header.CareerCode + " " + subject.Header.CareerName},
			{Label: "Modality", Value: subject.Header.Modality},
			{Label: "Period", Value: period.Code},
			{Label: "Receipt", Value: view.ReceiptNumber},
			{Label: "Confirmed at", Value: confirmedAt},
		},
		Columns: []export.Column{
			{Key: "code", Label: "Code", Width: 1.2},
			{Key: "name", Label: "Course", Width: 3},
			{Key: "group", Label: "Group", Width: 0.8},
			{Key: "credits", Label: "Credits", Width: 0.8},
			{Key: "schedule", Label: "Schedule", Width: 2.2},
		},
		Footer: []export.Field{
			{Label: "Total courses", Value: strconv.Itoa(len(view.Courses))},
			{Label: "Total credits", Value: strconv.Itoa(view.TotalCredits)},
		},
	}
	for _, course := range view.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"code":     course.CourseCode,
			"name":     course.CourseName,
			"group":    course.Group,
			"credits":  strconv.Itoa(course.Credits),
			"schedule": course.Schedule,
		})
	}
	content, err := s.pdf.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render enrollment slip")
	}
	return content, fmt.Sprintf("slip-%s.pdf", fileSafe(view.ReceiptNumber)), nil
}

// ExportOfferings renders the seat occupancy of every offering in a period as CSV.
// An empty code selects the active period.
func (s *PanelService) ExportOfferings(ctx context.Context, periodCode string) ([]byte, string, error) {
	period, err := s.periods.Resolve(ctx, periodCode)
	if err != nil {
		return nil, "", err
	}
	offerings, err := s.offerings.List(ctx, models.OfferingFilter{PeriodID: period.ID})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	data := export.Dataset{Columns: []export.Column{
		{Key: "offering_id"}, {Key: "course_code"}, {Key: "course_name"}, {Key: "career_code"},
		{Key: "semester"}, {Key: "group"}, {Key: "capacity"}, {Key: "seats_taken"}, {Key: "seats_free"},
	}}
	for _, o := range offerings {
		data.Rows = append(data.Rows, map[string]string{
			"offering_id": strconv.FormatInt(o.ID, 10),
			"course_code": o.CourseCode,
			"course_name": o.CourseName,
			"career_code": o.CareerCode,
			"semester":    strconv.Itoa(o.Semester),
			"group":       o.GroupCode,
			"capacity":    strconv.Itoa(o.Capacity),
			"seats_taken": strconv.Itoa(o.SeatsTaken),
			"seats_free":  strconv.Itoa(o.SeatsFree()),
		})
	}
	content, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render offerings export")
	}
	return content, fmt.Sprintf("offerings-%s.csv", fileSafe(period.Code)), nil
}

// SeatAudit lists offerings whose seat counter disagrees with their stored selections.
func (s *PanelService) SeatAudit(ctx context.Context, periodCode string) ([]models.SeatDrift, error) {
	period, err := s.periods.Resolve(ctx, periodCode)
	if err != nil {
		return nil, err
	}
	drift, err := s.offerings.SeatDrift(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to audit seats")
	}
	if len(drift) > 0 {
		s.logger.Warn("seat counters out of balance", zap.String("period", period.Code), zap.Int("offerings", len(drift)))
	}
	return drift, nil
}

func (s *PanelService) subject(ctx context.Context, registration, careerCode string) (*panelSubject, error) {
	registration = strings.TrimSpace(registration)
	careerCode = strings.TrimSpace(careerCode)
	if registration == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration is required")
	}
	requested := careerCode
	if requested == "" {
		requested = defaultCareerKey
	}

	subject := &panelSubject{requested: requested}
	cacheKey := fmt.Sprintf("panel:%s:%s:subject", registration, requested)
	if s.cache.Get(ctx, cacheKey, subject) {
		subject.requested = requested
		return subject, nil
	}

	student, err := s.students.FindByRegistration(ctx, registration)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clonef(appErrors.ErrStudentNotFound, "student with registration %s not found", registration)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var career *models.StudentCareer
	if careerCode != "" {
		career, err = s.students.FindActiveCareer(ctx, registration, careerCode)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clonef(appErrors.ErrCareerNotActive, "student is not active in career %s", careerCode)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student career")
		}
	} else {
		careers, err := s.students.ListActiveCareers(ctx, registration)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student careers")
		}
		if len(careers) == 0 {
			return nil, appErrors.Clonef(appErrors.ErrCareerNotActive, "student %s has no active career", registration)
		}
		career = &careers[0]
	}

	subject.Header = dto.PanelHeader{
		University:    s.cfg.University,
		Registration:  student.Registration,
		FullName:      student.FullName(),
		CareerCode:    career.CareerCode,
		CareerName:    career.CareerName,
		PlanCode:      career.PlanCode,
		Modality:      career.Modality.Label(),
		Semester:      career.CurrentSemester,
		ProgramFormat: "Semestral",
	}
	subject.StudentCareerID = career.ID
	subject.CareerID = career.CareerID
	subject.PlanID = career.PlanID
	subject.Semester = career.CurrentSemester
	s.cache.Set(ctx, cacheKey, subject, s.cfg.CacheTTL)
	return subject, nil
}

// activePeriod resolves the active period; no active period is not an error for the panel.
func (s *PanelService) activePeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.periods.Resolve(ctx, "")
	if err != nil {
		if errors.Is(err, appErrors.ErrNoActivePeriod) {
			return nil, nil
		}
		return nil, err
	}
	return period, nil
}

func (s *PanelService) availableCourses(ctx context.Context, subject *panelSubject, period *models.AcademicPeriod, onlyWithSeats bool) ([]dto.AvailableCourse, bool, error) {
	key := fmt.Sprintf("offerings:%s:%d:%d:%d:%t", period.Code, subject.CareerID, subject.PlanID, subject.Semester, onlyWithSeats)
	courses := []dto.AvailableCourse{}
	hit, err := s.cached(ctx, key, &courses, func() error {
		offerings, err := s.offerings.List(ctx, models.OfferingFilter{
			PeriodID:      period.ID,
			CareerID:      subject.CareerID,
			PlanID:        subject.PlanID,
			Semester:      subject.Semester,
			OnlyWithSeats: onlyWithSeats,
		})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
		}
		for _, o := range offerings {
			courses = append(courses, dto.AvailableCourse{
				OfferingID: o.ID,
				CourseCode: o.CourseCode,
				CourseName: o.CourseName,
				Credits:    o.Credits,
				Group:      o.GroupCode,
				Schedule:   o.Schedule,
				Instructor: o.Instructor,
				Capacity:   o.Capacity,
				SeatsFree:  o.SeatsFree(),
			})
		}
		return nil
	})
	return courses, hit, err
}

func (s *PanelService) enrollmentView(ctx context.Context, subject *panelSubject, period *models.AcademicPeriod) (*dto.EnrollmentView, error) {
	if period == nil {
		return nil, nil
	}
	detail, err := s.enrollments.FindByStudentCareerAndPeriod(ctx, subject.StudentCareerID, period.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	view := &dto.EnrollmentView{
		ID:            detail.ID,
		PeriodCode:    detail.PeriodCode,
		Status:        string(detail.Status),
		AssignedDate:  detail.AssignedDate,
		ConfirmedAt:   detail.ConfirmedAt,
		ReceiptNumber: detail.ReceiptNumber,
		Courses:       make([]dto.EnrolledCourse, 0, len(detail.Offerings)),
	}
	for _, o := range detail.Offerings {
		view.Courses = append(view.Courses, dto.EnrolledCourse{
			OfferingID: o.OfferingID,
			CourseCode: o.CourseCode,
			CourseName: o.CourseName,
			Credits:    o.Credits,
			Group:      o.GroupCode,
			Schedule:   o.Schedule,
			Instructor: o.Instructor,
		})
		view.TotalCredits += o.Credits
	}
	return view, nil
}

// cached loads key into dest, or runs compose to fill dest and stores the result.
func (s *PanelService) cached(ctx context.Context, key string, dest interface{}, compose func() error) (bool, error) {
	if s.cache.Get(ctx, key, dest) {
		return true, nil
	}
	if err := compose(); err != nil {
		return false, err
	}
	s.cache.Set(ctx, key, dest, s.cfg.CacheTTL)
	return false, nil
}

func periodSummary(period *models.AcademicPeriod) *dto.PeriodSummary {
	if period == nil {
		return nil
	}
	return &dto.PeriodSummary{
		Code:           period.Code,
		Name:           period.Name,
		StartDate:      period.StartDate,
		EndDate:        period.EndDate,
		EnrollmentOpen: period.EnrollmentOpen,
	}
}

func holdItems(holds []models.Hold) []dto.HoldItem {
	items := make([]dto.HoldItem, 0, len(holds))
	for _, h := range holds {
		items = append(items, dto.HoldItem{
			Type:                 string(h.Type),
			Reason:               h.Reason,
			BlockedOn:            h.BlockedOn,
			EstimatedReleaseDate: h.EstimatedReleaseDate,
		})
	}
	return items
}

func fileSafe(value string) string {
	return strings.NewReplacer("/", "-", " ", "_", "\\", "-").Replace(value)
}
