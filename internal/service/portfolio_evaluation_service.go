package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/observability"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

var (
	// ErrNotSubmitted indicates an evaluation attempt on a submission without a locked version.
	ErrNotSubmitted = errors.New("submission has not been submitted for review")
	// ErrVersionMismatch indicates the requested version does not belong to the submission.
	ErrVersionMismatch = errors.New("version does not belong to this submission")
	// ErrEvaluationNotFound indicates no evaluation exists for the version.
	ErrEvaluationNotFound = errors.New("evaluation not found")
)

// GradeNotifier delivers a grading notification to one student. Delivery is
// best-effort; failures never fail the evaluation.
type GradeNotifier interface {
	NotifyUser(ctx context.Context, userID uint, notifType, message string) error
}

// PortfolioEvaluationService grades locked submission versions against the
// fixed rubric.
type PortfolioEvaluationService interface {
	Evaluate(ctx context.Context, actor Actor, submissionID uint, req dto.PortfolioEvaluateRequest) (dto.PortfolioEvaluationResponse, error)
	GetLatest(ctx context.Context, actor Actor, submissionID uint) (dto.PortfolioEvaluationResponse, error)
}

type portfolioEvaluationService struct {
	evaluations repository.PortfolioEvaluationRepository
	submissions repository.PortfolioSubmissionRepository
	notifier    GradeNotifier
	validator   *validator.Validate
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewPortfolioEvaluationService wires the evaluation service. notifier may be
// nil, in which case grading is silent.
func NewPortfolioEvaluationService(
	evaluations repository.PortfolioEvaluationRepository,
	submissions repository.PortfolioSubmissionRepository,
	notifier GradeNotifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) PortfolioEvaluationService {
	return &portfolioEvaluationService{
		evaluations: evaluations,
		submissions: submissions,
		notifier:    notifier,
		validator:   validate,
		tracer:      otel.Tracer("portfolio-evaluation"),
		logger:      logger.With().Str("component", "portfolio_evaluation_service").Logger(),
	}
}

// Evaluate replaces the evaluation for the target version. The rubric is
// expanded to the full criterion set, the overall score is the clamped row
// sum, and evaluation plus submission update commit atomically. The student
// notification happens after commit and never fails the request.
func (s *portfolioEvaluationService) Evaluate(ctx context.Context, actor Actor, submissionID uint, req dto.PortfolioEvaluateRequest) (dto.PortfolioEvaluationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.evaluate",
		trace.WithAttributes(attribute.Int("submission.id", int(submissionID))))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.PortfolioEvaluationResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioEvaluationResponse{}, ErrSubmissionNotFound
		}
		return dto.PortfolioEvaluationResponse{}, fmt.Errorf("failed to load submission: %w", err)
	}

	versionID, err := s.resolveVersion(ctx, submission, req.VersionID)
	if err != nil {
		return dto.PortfolioEvaluationResponse{}, err
	}

	rows, total, err := buildRubricScores(req.Scores)
	if err != nil {
		return dto.PortfolioEvaluationResponse{}, err
	}

	evaluation := models.PortfolioEvaluation{
		VersionID:    versionID,
		OverallScore: total,
		Note:         req.OverallNote,
		Status:       req.Status,
		ReviewerID:   actor.UserID,
	}

	submission.Status = req.Status
	submission.OverallScore = &total
	submission.ReviewerID = &actor.UserID
	if req.Status == models.EvaluationStatusReturned {
		now := time.Now().UTC()
		submission.ReturnedAt = &now
	} else {
		submission.ReturnedAt = nil
	}

	if err := s.evaluations.ReplaceForVersion(ctx, &evaluation, rows, &submission); err != nil {
		return dto.PortfolioEvaluationResponse{}, fmt.Errorf("failed to store evaluation: %w", err)
	}

	observability.Evaluations().WithLabelValues(req.Status).Inc()
	span.SetAttributes(attribute.Int("evaluation.score", total))

	s.logger.Info().
		Uint("submission_id", submissionID).
		Uint("version_id", versionID).
		Str("status", req.Status).
		Int("overall_score", total).
		Msg("submission evaluated")

	s.notifyStudent(submission, req.Status, total)

	evaluation.Scores = rows

	return dto.NewPortfolioEvaluationResponse(evaluation), nil
}

func (s *portfolioEvaluationService) GetLatest(ctx context.Context, actor Actor, submissionID uint) (dto.PortfolioEvaluationResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioEvaluationResponse{}, ErrSubmissionNotFound
		}
		return dto.PortfolioEvaluationResponse{}, fmt.Errorf("failed to load submission: %w", err)
	}

	if !actor.isStaff() && submission.StudentID != actor.UserID {
		return dto.PortfolioEvaluationResponse{}, ErrNotOwner
	}

	if submission.LastVersionID == nil {
		return dto.PortfolioEvaluationResponse{}, ErrEvaluationNotFound
	}

	evaluation, err := s.evaluations.GetByVersionID(ctx, *submission.LastVersionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioEvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.PortfolioEvaluationResponse{}, fmt.Errorf("failed to load evaluation: %w", err)
	}

	return dto.NewPortfolioEvaluationResponse(evaluation), nil
}

// resolveVersion picks the version being graded: the explicit one when given
// (verified to belong to the submission), otherwise the submission's last
// locked version.
func (s *portfolioEvaluationService) resolveVersion(ctx context.Context, submission models.PortfolioSubmission, requested *uint) (uint, error) {
	if requested == nil {
		if submission.LastVersionID == nil {
			return 0, ErrNotSubmitted
		}
		return *submission.LastVersionID, nil
	}

	version, err := s.submissions.GetVersionByID(ctx, *requested)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrVersionNotFound
		}
		return 0, fmt.Errorf("failed to load version: %w", err)
	}

	if version.SubmissionID != submission.ID {
		return 0, ErrVersionMismatch
	}

	return version.ID, nil
}

func (s *portfolioEvaluationService) notifyStudent(submission models.PortfolioSubmission, status string, score int) {
	if s.notifier == nil {
		return
	}

	message := "Your portfolio submission was returned for revision."
	if status == models.EvaluationStatusGraded {
		message = fmt.Sprintf("Your portfolio submission was graded: %d/%d.", score, RubricMaxTotal)
	}

	studentID := submission.StudentID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.notifier.NotifyUser(ctx, studentID, "portfolio_evaluated", message); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to deliver grade notification")
		}
	}()
}
