package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/pkg/database"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

// EventEnrollmentConfirmed is the job type published after a committed confirmation.
const EventEnrollmentConfirmed = "enrollment.confirmed"

const resultCodeOK = "OK"

type studentReader interface {
	FindByRegistration(ctx context.Context, registration string) (*models.Student, error)
	FindActiveCareer(ctx context.Context, registration, careerCode string) (*models.StudentCareer, error)
}

type enrollmentPeriodResolver interface {
	ResolveForEnrollment(ctx context.Context) (*models.AcademicPeriod, error)
}

type holdGate interface {
	Check(ctx context.Context, studentCareerID int64) (*models.HoldStatus, error)
}

type offeringReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.OfferingDetail, error)
}

type heldOfferingReader interface {
	HeldOfferingIDs(ctx context.Context, studentCareerID, periodID int64) ([]int64, error)
}

type confirmationStore interface {
	Confirm(ctx context.Context, params repository.ConfirmParams) (*repository.ConfirmOutcome, error)
}

type eventPublisher interface {
	Enqueue(job jobs.Job) error
}

// ConfirmationServiceParams groups the collaborators of the confirmation engine.
type ConfirmationServiceParams struct {
	Students    studentReader
	Periods     enrollmentPeriodResolver
	Holds       holdGate
	Offerings   offeringReader
	Enrollments heldOfferingReader
	Store       confirmationStore
	Events      eventPublisher
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	TxTimeout   time.Duration
}

// ConfirmationService is the enrollment confirmation engine. Every precondition is checked before
// any mutation, and the selection replacement runs in a single transaction.
type ConfirmationService struct {
	students    studentReader
	periods     enrollmentPeriodResolver
	holds       holdGate
	offerings   offeringReader
	enrollments heldOfferingReader
	store       confirmationStore
	events      eventPublisher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	tracer      trace.Tracer
	txTimeout   time.Duration
	now         func() time.Time
}

// NewConfirmationService builds the engine.
func NewConfirmationService(deps ConfirmationServiceParams) *ConfirmationService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ConfirmationService{
		students:    deps.Students,
		periods:     deps.Periods,
		holds:       deps.Holds,
		offerings:   deps.Offerings,
		enrollments: deps.Enrollments,
		store:       deps.Store,
		events:      deps.Events,
		metrics:     deps.Metrics,
		validator:   deps.Validator,
		logger:      deps.Logger,
		tracer:      otel.Tracer("github.com/noah-isme/enrollment-api/internal/service"),
		txTimeout:   deps.TxTimeout,
		now:         time.Now,
	}
}

type confirmation struct {
	student  *models.Student
	career   *models.StudentCareer
	period   *models.AcademicPeriod
	outcome  *repository.ConfirmOutcome
	enrolled int
}

// Confirm runs the confirmation and always returns a structured result.
func (s *ConfirmationService) Confirm(ctx context.Context, req dto.ConfirmEnrollmentRequest) dto.ConfirmationResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "enrollment.confirm", trace.WithAttributes(
		attribute.String("student.registration", req.Registration),
		attribute.String("career.code", req.CareerCode),
		attribute.Int("offerings.requested", len(req.OfferingIDs)),
	))
	defer span.End()

	done, err := s.safeConfirm(ctx, req)
	if err != nil {
		appErr := appErrors.FromError(err)
		span.SetAttributes(attribute.String("result.code", appErr.Code))
		if appErr.Status >= 500 {
			span.SetStatus(codes.Error, appErr.Message)
			s.logger.Error("enrollment confirmation failed",
				zap.String("registration", req.Registration),
				zap.String("career", req.CareerCode),
				zap.String("code", appErr.Code),
				zap.Error(appErr.Err))
		} else {
			s.logger.Info("enrollment confirmation rejected",
				zap.String("registration", req.Registration),
				zap.String("career", req.CareerCode),
				zap.String("code", appErr.Code),
				zap.String("reason", appErr.Message))
		}
		s.metrics.RecordConfirmation(appErr.Code, time.Since(start))
		return dto.ConfirmationResult{OK: false, Message: appErr.Message, Code: appErr.Code, Status: appErr.Status}
	}

	outcome := done.outcome
	span.SetAttributes(
		attribute.String("result.code", resultCodeOK),
		attribute.String("enrollment.id", outcome.Enrollment.ID),
		attribute.Int("seats.reserved", len(outcome.Reserved)),
		attribute.Int("seats.released", len(outcome.Released)),
	)
	s.metrics.RecordConfirmation(resultCodeOK, time.Since(start))
	s.metrics.RecordSeatMovements(len(outcome.Reserved), len(outcome.Released))
	s.logger.Info("enrollment confirmed",
		zap.String("registration", done.student.Registration),
		zap.String("career", done.career.CareerCode),
		zap.String("period", done.period.Code),
		zap.String("enrollment_id", outcome.Enrollment.ID),
		zap.Int64s("reserved", outcome.Reserved),
		zap.Int64s("released", outcome.Released))
	s.publish(done)

	return dto.ConfirmationResult{
		OK:            true,
		Message:       fmt.Sprintf("enrollment confirmed with %d course(s).", done.enrolled),
		EnrolledCount: done.enrolled,
		Code:          resultCodeOK,
		EnrollmentID:  outcome.Enrollment.ID,
		ReceiptNumber: outcome.Enrollment.ReceiptNumber,
		Status:        http.StatusOK,
	}
}

func (s *ConfirmationService) safeConfirm(ctx context.Context, req dto.ConfirmEnrollmentRequest) (done *confirmation, err error) {
	defer func() {
		if r := recover(); r != nil {
			done = nil
			err = appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm enrollment")
		}
	}()
	return s.confirm(ctx, req)
}

func (s *ConfirmationService) confirm(ctx context.Context, req dto.ConfirmEnrollmentRequest) (*confirmation, error) {
	req.Registration = strings.TrimSpace(req.Registration)
	req.CareerCode = strings.TrimSpace(req.CareerCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	student, err := s.students.FindByRegistration(ctx, req.Registration)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clonef(appErrors.ErrStudentNotFound, "student with registration %s not found", req.Registration)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	career, err := s.students.FindActiveCareer(ctx, req.Registration, req.CareerCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clonef(appErrors.ErrCareerNotActive, "student is not active in career %s", req.CareerCode)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student career")
	}

	period, err := s.periods.ResolveForEnrollment(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.holds.Check(ctx, career.ID)
	if err != nil {
		return nil, err
	}
	if status.Blocked {
		return nil, appErrors.Clonef(appErrors.ErrStudentBlocked, "student is blocked: %s", strings.Join(status.Reasons, "; "))
	}

	ids := uniqueSorted(req.OfferingIDs)
	offerings, err := s.offerings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}
	byID := make(map[int64]models.OfferingDetail, len(offerings))
	for _, offering := range offerings {
		byID[offering.ID] = offering
	}
	if missing := missingIDs(ids, byID); len(missing) > 0 {
		return nil, appErrors.Clonef(appErrors.ErrOfferingsNotFound, "some offerings were not found: %v", missing)
	}

	var foreign []int64
	for _, id := range ids {
		if byID[id].PeriodID != period.ID {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		return nil, appErrors.Clonef(appErrors.ErrOfferingsOutsidePeriod, "offerings %v do not belong to period %s", foreign, period.Code)
	}

	held, err := s.enrollments.HeldOfferingIDs(ctx, career.ID, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current selection")
	}
	heldSet := make(map[int64]struct{}, len(held))
	for _, id := range held {
		heldSet[id] = struct{}{}
	}
	var full []int64
	for _, id := range ids {
		if _, mine := heldSet[id]; mine {
			continue
		}
		if byID[id].Full() {
			full = append(full, id)
		}
	}
	if len(full) > 0 {
		return nil, appErrors.Clonef(appErrors.ErrNoSeatsAvailable, "no seats available in: %s", courseCodes(full, byID))
	}

	seats := make([]repository.SeatRequest, 0, len(ids))
	for _, id := range ids {
		seats = append(seats, repository.SeatRequest{OfferingID: id, GroupCode: byID[id].GroupCode})
	}

	txCtx := ctx
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	txStart := time.Now()
	outcome, err := s.store.Confirm(txCtx, repository.ConfirmParams{
		StudentCareerID: career.ID,
		PeriodID:        period.ID,
		Seats:           seats,
		ReceiptNumber:   receiptNumber(period.Code),
		Now:             s.now().UTC(),
	})
	s.metrics.ObserveDBQuery("enrollment_confirm_tx", time.Since(txStart))
	if err != nil {
		return nil, s.translateStoreError(err, ids, byID)
	}

	return &confirmation{student: student, career: career, period: period, outcome: outcome, enrolled: len(ids)}, nil
}

func (s *ConfirmationService) translateStoreError(err error, requested []int64, byID map[int64]models.OfferingDetail) error {
	var exhausted *repository.SeatsExhaustedError
	var vanished *repository.OfferingsMissingError
	switch {
	case errors.As(err, &exhausted):
		return appErrors.Clonef(appErrors.ErrNoSeatsAvailable, "no seats available in: %s", courseCodes(exhausted.OfferingIDs, byID))
	case errors.Is(err, repository.ErrCancelledEnrollment):
		return appErrors.ErrEnrollmentCancelled
	case errors.As(err, &vanished):
		return appErrors.Clonef(appErrors.ErrOfferingsNotFound, "some offerings were not found: %v", vanished.OfferingIDs)
	case database.IsCheckViolation(err):
		return appErrors.Clonef(appErrors.ErrNoSeatsAvailable, "no seats available in: %s", courseCodes(requested, byID))
	case database.IsConcurrencyConflict(err):
		return appErrors.Clonef(appErrors.ErrConcurrencyConflict,
			"a concurrent confirmation changed seats in: %s; please retry", courseCodes(requested, byID))
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrollment confirmation timed out")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm enrollment")
	}
}

func (s *ConfirmationService) publish(done *confirmation) {
	if s.events == nil {
		return
	}
	enrollment := done.outcome.Enrollment
	confirmedAt := s.now().UTC()
	if enrollment.ConfirmedAt != nil {
		confirmedAt = *enrollment.ConfirmedAt
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: EventEnrollmentConfirmed,
		Payload: dto.EnrollmentConfirmedEvent{
			EnrollmentID: enrollment.ID,
			Registration: done.student.Registration,
			CareerCode:   done.career.CareerCode,
			PeriodCode:   done.period.Code,
			Reserved:     done.outcome.Reserved,
			Released:     done.outcome.Released,
			ConfirmedAt:  confirmedAt,
		},
	}
	if err := s.events.Enqueue(job); err != nil {
		s.logger.Warn("failed to publish enrollment event", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingIDs(ids []int64, found map[int64]models.OfferingDetail) []int64 {
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// courseCodes lists the distinct course codes of the offerings in id order.
func courseCodes(ids []int64, byID map[int64]models.OfferingDetail) string {
	seen := make(map[string]struct{}, len(ids))
	list := make([]string, 0, len(ids))
	for _, id := range ids {
		code := byID[id].CourseCode
		if code == "" {
			code = fmt.Sprintf("#%d", id)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		list = append(list, code)
	}
	return strings.Join(list, ", ")
}

func receiptNumber(periodCode string) string {
	return fmt.Sprintf("INS-%s-%s", periodCode, strings.ToUpper(uuid.NewString()[:8]))
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid enrollment request"
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Registration":
		if fe.Tag() == "max" {
			return "registration must be at most " + fe.Param() + " characters"
		}
		return "registration is required"
	case "CareerCode":
		if fe.Tag() == "max" {
			return "career code must be at most " + fe.Param() + " characters"
		}
		return "career code is required"
	case "OfferingIDs":
		return "at least one offering must be selected"
	default:
		return "invalid enrollment request"
	}
}
