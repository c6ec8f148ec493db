package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/roadguard/internal/domain"
)

// Sortable problem columns.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByStatus    = "status"
	SortByType      = "type"
	SortByAddress   = "address"
)

// SortColumns is the whitelist accepted by ProblemFilter.SortBy.
var SortColumns = []string{SortByCreatedAt, SortByUpdatedAt, SortByStatus, SortByType, SortByAddress}

// ProblemFilter captures listing parameters.
type ProblemFilter struct {
	Status          *domain.ProblemStatus
	Type            *domain.ProblemType
	IsFromInspector *bool
	Search          string
	SortBy          string
	Descending      bool
	Limit           int
	Offset          int
}

// ProblemRepository encapsulates problem persistence.
type ProblemRepository interface {
	Create(ctx context.Context, problem *domain.Problem) error
	GetByID(ctx context.Context, id string) (*domain.Problem, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProblemStatus) (*domain.Problem, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProblemFilter) ([]domain.Problem, int, error)
}

type problemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository instantiates repository.
func NewProblemRepository(pool *pgxpool.Pool) ProblemRepository {
	return &problemRepository{pool: pool}
}

const problemColumns = `id, type, address, description, status, reporter_id, is_from_inspector, created_at, updated_at`

func (r *problemRepository) Create(ctx context.Context, problem *domain.Problem) error {
	const query = `
        INSERT INTO problems (type, address, description, status, reporter_id, is_from_inspector)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		problem.Type,
		problem.Address,
		problem.Description,
		problem.Status,
		problem.ReporterID,
		problem.IsFromInspector,
	).Scan(&problem.ID, &problem.CreatedAt, &problem.UpdatedAt)
	return translate(err)
}

func (r *problemRepository) GetByID(ctx context.Context, id string) (*domain.Problem, error) {
	const query = `SELECT ` + problemColumns + ` FROM problems WHERE id=$1`
	return scanProblem(r.pool.QueryRow(ctx, query, id))
}

func (r *problemRepository) UpdateStatus(ctx context.Context, id string, status domain.ProblemStatus) (*domain.Problem, error) {
	const query = `UPDATE problems SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + problemColumns
	return scanProblem(r.pool.QueryRow(ctx, query, status, id))
}

func (r *problemRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *problemRepository) List(ctx context.Context, filter ProblemFilter) ([]domain.Problem, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.IsFromInspector != nil {
		args = append(args, *filter.IsFromInspector)
		clauses = append(clauses, fmt.Sprintf("is_from_inspector=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(address) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM problems WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM problems WHERE %s ORDER BY %s %s, id LIMIT %d OFFSET %d`,
		problemColumns, where, sortColumn(filter.SortBy), direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var problems []domain.Problem
	for rows.Next() {
		problem, err := scanProblem(rows)
		if err != nil {
			return nil, 0, err
		}
		problems = append(problems, *problem)
	}
	return problems, total, rows.Err()
}

func sortColumn(sortBy string) string {
	for _, col := range SortColumns {
		if col == sortBy {
			return col
		}
	}
	return SortByCreatedAt
}

func scanProblem(row pgx.Row) (*domain.Problem, error) {
	var problem domain.Problem
	if err := row.Scan(
		&problem.ID,
		&problem.Type,
		&problem.Address,
		&problem.Description,
		&problem.Status,
		&problem.ReporterID,
		&problem.IsFromInspector,
		&problem.CreatedAt,
		&problem.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &problem, nil
}
