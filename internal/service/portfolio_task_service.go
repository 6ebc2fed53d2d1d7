package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

var (
	// ErrTaskNotFound indicates the referenced portfolio task does not exist.
	ErrTaskNotFound = errors.New("portfolio task not found")
	// ErrDuplicateTask indicates a task with the same title already exists for the class level.
	ErrDuplicateTask = errors.New("a task with this title already exists for the class level")
	// ErrInvalidInstructions indicates the instructions document failed schema validation.
	ErrInvalidInstructions = errors.New("task instructions do not match the expected structure")
)

// taskInstructionsSchema constrains the structured instructions document
// attached to a task: an ordered list of steps plus an optional brief.
const taskInstructionsSchema = `{
	"type": "object",
	"properties": {
		"brief": {"type": "string"},
		"steps": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string", "minLength": 1},
					"body": {"type": "string"}
				},
				"required": ["title"]
			}
		},
		"resources": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"additionalProperties": false
}`

// PortfolioTaskService manages the task catalogue.
type PortfolioTaskService interface {
	List(ctx context.Context, classLevel *string, active *bool) ([]dto.PortfolioTaskResponse, error)
	Get(ctx context.Context, id uint) (dto.PortfolioTaskResponse, error)
	Create(ctx context.Context, req dto.PortfolioTaskCreateRequest) (dto.PortfolioTaskResponse, error)
	Update(ctx context.Context, id uint, req dto.PortfolioTaskUpdateRequest) (dto.PortfolioTaskResponse, error)
	Delete(ctx context.Context, id uint) error
}

type portfolioTaskService struct {
	tasks     repository.PortfolioTaskRepository
	validator *validator.Validate
	schema    *jsonschema.Schema
	logger    zerolog.Logger
}

// NewPortfolioTaskService wires the task service. The instructions schema is
// compiled once at construction; a compile failure is a programming error.
func NewPortfolioTaskService(tasks repository.PortfolioTaskRepository, validate *validator.Validate, logger zerolog.Logger) PortfolioTaskService {
	schema := jsonschema.MustCompileString("task_instructions.json", taskInstructionsSchema)

	return &portfolioTaskService{
		tasks:     tasks,
		validator: validate,
		schema:    schema,
		logger:    logger.With().Str("component", "portfolio_task_service").Logger(),
	}
}

func (s *portfolioTaskService) List(ctx context.Context, classLevel *string, active *bool) ([]dto.PortfolioTaskResponse, error) {
	tasks, err := s.tasks.List(ctx, repository.PortfolioTaskFilter{ClassLevel: classLevel, Active: active})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return dto.NewPortfolioTaskResponseSlice(tasks), nil
}

func (s *portfolioTaskService) Get(ctx context.Context, id uint) (dto.PortfolioTaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioTaskResponse{}, ErrTaskNotFound
		}
		return dto.PortfolioTaskResponse{}, fmt.Errorf("failed to load task: %w", err)
	}

	return dto.NewPortfolioTaskResponse(task), nil
}

func (s *portfolioTaskService) Create(ctx context.Context, req dto.PortfolioTaskCreateRequest) (dto.PortfolioTaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PortfolioTaskResponse{}, err
	}

	if err := s.validateInstructions(req.Instructions); err != nil {
		return dto.PortfolioTaskResponse{}, err
	}

	task := models.PortfolioTask{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ClassLevel:   strings.TrimSpace(req.ClassLevel),
		Tags:         strings.Join(req.Tags, ","),
		Instructions: datatypes.JSON(req.Instructions),
		Active:       true,
	}
	if req.Active != nil {
		task.Active = *req.Active
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		if isDuplicateKey(err) {
			return dto.PortfolioTaskResponse{}, ErrDuplicateTask
		}
		return dto.PortfolioTaskResponse{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info().Uint("task_id", task.ID).Str("class_level", task.ClassLevel).Msg("portfolio task created")

	return dto.NewPortfolioTaskResponse(task), nil
}

func (s *portfolioTaskService) Update(ctx context.Context, id uint, req dto.PortfolioTaskUpdateRequest) (dto.PortfolioTaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PortfolioTaskResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioTaskResponse{}, ErrTaskNotFound
		}
		return dto.PortfolioTaskResponse{}, fmt.Errorf("failed to load task: %w", err)
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.ClassLevel != nil {
		task.ClassLevel = strings.TrimSpace(*req.ClassLevel)
	}
	if req.Tags != nil {
		task.Tags = strings.Join(req.Tags, ",")
	}
	if req.Instructions != nil {
		if err := s.validateInstructions(req.Instructions); err != nil {
			return dto.PortfolioTaskResponse{}, err
		}
		task.Instructions = datatypes.JSON(req.Instructions)
	}
	if req.Active != nil {
		task.Active = *req.Active
	}

	if err := s.tasks.Update(ctx, &task); err != nil {
		if isDuplicateKey(err) {
			return dto.PortfolioTaskResponse{}, ErrDuplicateTask
		}
		return dto.PortfolioTaskResponse{}, fmt.Errorf("failed to update task: %w", err)
	}

	return dto.NewPortfolioTaskResponse(task), nil
}

func (s *portfolioTaskService) Delete(ctx context.Context, id uint) error {
	if _, err := s.tasks.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to load task: %w", err)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info().Uint("task_id", id).Msg("portfolio task deleted")

	return nil
}

func (s *portfolioTaskService) validateInstructions(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	var document interface{}
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructions, err)
	}

	if err := s.schema.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructions, err)
	}

	return nil
}

// isDuplicateKey matches unique-constraint violations across the drivers used
// in production (postgres) and tests (sqlite).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
