package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/repository"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProblemService coordinates problem reports.
type ProblemService struct {
	problems repository.ProblemRepository
	events   eventPublisher
}

// ProblemCreateInput describes a new report.
type ProblemCreateInput struct {
	Type        string
	Address     string
	Description string
}

// ProblemQuery describes listing parameters as received from clients.
type ProblemQuery struct {
	Status          string
	Type            string
	IsFromInspector *bool
	Search          string
	SortBy          string
	SortOrder       string
	Page            int
	Limit           int
}

// ProblemPage is one page of listing results.
type ProblemPage struct {
	Items []domain.Problem
	Total int
	Page  int
	Limit int
	Pages int
}

// NewProblemService constructs the service.
func NewProblemService(problems repository.ProblemRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProblemService {
	return &ProblemService{problems: problems, events: newEventPublisher(dispatcher, logger)}
}

// Create records a report from reporter. Reports filed by inspectors are flagged.
func (s *ProblemService) Create(ctx context.Context, reporter *domain.User, input ProblemCreateInput) (*domain.Problem, error) {
	problemType := domain.ProblemTypePothole
	if raw := strings.TrimSpace(input.Type); raw != "" {
		problemType = domain.ProblemType(strings.ToLower(raw))
		if !problemType.Valid() {
			return nil, apperrors.NewValidationError("invalid problem type", map[string]any{"type": input.Type})
		}
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, apperrors.NewValidationError("address is required", nil)
	}

	problem := &domain.Problem{
		Type:            problemType,
		Address:         address,
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.ProblemStatusNew,
		ReporterID:      reporter.ID,
		IsFromInspector: reporter.Role == domain.RoleInspector,
	}
	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.events.publish(ctx, events.New(events.EventProblemCreated, problem.ID, events.ActorOf(reporter),
		events.ProblemCreatedPayload{
			Type:            problem.Type,
			Address:         problem.Address,
			IsFromInspector: problem.IsFromInspector,
		}))
	return problem, nil
}

// List returns a filtered, sorted page of problems.
func (s *ProblemService) List(ctx context.Context, query ProblemQuery) (*ProblemPage, error) {
	filter := repository.ProblemFilter{
		IsFromInspector: query.IsFromInspector,
		Search:          query.Search,
		SortBy:          repository.SortByCreatedAt,
		Descending:      true,
	}

	if query.Status != "" {
		status := domain.ProblemStatus(strings.ToLower(query.Status))
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": query.Status})
		}
		filter.Status = &status
	}
	if query.Type != "" {
		problemType := domain.ProblemType(strings.ToLower(query.Type))
		if !problemType.Valid() {
			return nil, apperrors.NewValidationError("invalid problem type", map[string]any{"type": query.Type})
		}
		filter.Type = &problemType
	}
	if query.SortBy != "" {
		if !validSortColumn(query.SortBy) {
			return nil, apperrors.NewValidationError("invalid sort_by", map[string]any{
				"sort_by": query.SortBy,
				"allowed": repository.SortColumns,
			})
		}
		filter.SortBy = query.SortBy
	}
	switch strings.ToLower(query.SortOrder) {
	case "", "desc":
	case "asc":
		filter.Descending = false
	default:
		return nil, apperrors.NewValidationError("invalid sort_order", map[string]any{"sort_order": query.SortOrder})
	}

	page := query.Page
	if page == 0 {
		page = 1
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	if page < 1 {
		return nil, apperrors.NewValidationError("page must be at least 1", nil)
	}
	if limit < 1 || limit > maxPageSize {
		return nil, apperrors.NewValidationError("limit must be between 1 and 100", nil)
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	items, total, err := s.problems.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if items == nil {
		items = []domain.Problem{}
	}
	return &ProblemPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	}, nil
}

// Get returns a single problem.
func (s *ProblemService) Get(ctx context.Context, id string) (*domain.Problem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("problem", nil)
	}
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		return nil, problemLookupError(err)
	}
	return problem, nil
}

// UpdateStatus moves a problem to status.
func (s *ProblemService) UpdateStatus(ctx context.Context, actor *domain.User, id, status string) (*domain.Problem, error) {
	next := domain.ProblemStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.problems.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, problemLookupError(err)
	}

	if current.Status != updated.Status {
		s.events.publish(ctx, events.New(events.EventProblemStatusChanged, updated.ID, events.ActorOf(actor),
			events.ProblemStatusChangedPayload{OldStatus: current.Status, NewStatus: updated.Status}))
	}
	return updated, nil
}

// Delete removes a problem.
func (s *ProblemService) Delete(ctx context.Context, actor *domain.User, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.problems.Delete(ctx, id); err != nil {
		return problemLookupError(err)
	}
	s.events.publish(ctx, events.New(events.EventProblemDeleted, id, events.ActorOf(actor),
		events.ProblemDeletedPayload{Address: current.Address}))
	return nil
}

func validSortColumn(column string) bool {
	for _, allowed := range repository.SortColumns {
		if allowed == column {
			return true
		}
	}
	return false
}

func problemLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("problem", nil)
	}
	return apperrors.NewInternalError(err)
}
