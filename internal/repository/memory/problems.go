package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/repository"
)

// ProblemRepository stores problems in memory.
type ProblemRepository struct {
	mu       sync.RWMutex
	problems map[string]*domain.Problem
	now      func() time.Time
}

// NewProblemRepository returns an empty store.
func NewProblemRepository() *ProblemRepository {
	return &ProblemRepository{problems: make(map[string]*domain.Problem), now: time.Now}
}

var _ repository.ProblemRepository = (*ProblemRepository)(nil)

func (r *ProblemRepository) Create(_ context.Context, problem *domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	problem.ID = uuid.NewString()
	problem.CreatedAt = now
	problem.UpdatedAt = now
	stored := *problem
	r.problems[stored.ID] = &stored
	return nil
}

func (r *ProblemRepository) GetByID(_ context.Context, id string) (*domain.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	problem, ok := r.problems[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *problem
	return &out, nil
}

func (r *ProblemRepository) UpdateStatus(_ context.Context, id string, status domain.ProblemStatus) (*domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	problem, ok := r.problems[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	problem.Status = status
	problem.UpdatedAt = r.now().UTC()
	out := *problem
	return &out, nil
}

func (r *ProblemRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.problems[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.problems, id)
	return nil
}

func (r *ProblemRepository) List(_ context.Context, filter repository.ProblemFilter) ([]domain.Problem, int, error) {
	r.mu.RLock()
	matched := make([]domain.Problem, 0, len(r.problems))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, problem := range r.problems {
		if filter.Status != nil && problem.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && problem.Type != *filter.Type {
			continue
		}
		if filter.IsFromInspector != nil && problem.IsFromInspector != *filter.IsFromInspector {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(problem.Address), search) &&
			!strings.Contains(strings.ToLower(problem.Description), search) {
			continue
		}
		matched = append(matched, *problem)
	}
	r.mu.RUnlock()

	less := lessFor(filter.SortBy)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.Descending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Problem{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func lessFor(sortBy string) func(a, b domain.Problem) bool {
	switch sortBy {
	case repository.SortByUpdatedAt:
		return func(a, b domain.Problem) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case repository.SortByStatus:
		return func(a, b domain.Problem) bool { return a.Status < b.Status }
	case repository.SortByType:
		return func(a, b domain.Problem) bool { return a.Type < b.Type }
	case repository.SortByAddress:
		return func(a, b domain.Problem) bool { return a.Address < b.Address }
	default:
		return func(a, b domain.Problem) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
