package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"

	"github.com/launchpadhq/launchpad/internal/models"
)

var ErrNotFound = errors.New("opportunity not found")

// descPolicy strips markup from admin-submitted descriptions before they
// reach storage. Descriptions are served as plain text.
var descPolicy = bluemonday.StrictPolicy()

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Type           string
	IncludeExpired bool
	IncludeHidden  bool
	Limit          int
	Offset         int
}

const selectCols = `id, title, type, organization, description, deadline,
	apply_url, location, prize, tags, source`

func scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var id uuid.UUID
	err := scan(
		&id, &o.Title, &o.Type, &o.Organization, &o.Description, &o.Deadline,
		&o.ApplyURL, &o.Location, &o.Prize, &o.Tags, &o.Source,
	)
	if err != nil {
		return o, err
	}
	o.ID = id.String()
	o.Deadline = o.Deadline.UTC()
	return o, nil
}

// buildListClause assembles the WHERE clause for List. Split out so clause
// construction stays testable without a database.
func buildListClause(params ListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if !params.IncludeHidden {
		where += " AND is_active"
	}
	if !params.IncludeExpired {
		where += " AND deadline >= NOW()"
	}
	if params.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, params.Type)
		argIdx++
	}
	return where, args
}

// ListActive returns the curated feed the pipeline merges first: visible
// records with future deadlines, ascending by deadline.
func (s *Store) ListActive(ctx context.Context) ([]models.Opportunity, error) {
	return s.List(ctx, ListParams{})
}

func (s *Store) List(ctx context.Context, params ListParams) ([]models.Opportunity, error) {
	where, args := buildListClause(params)

	query := fmt.Sprintf("SELECT %s FROM opportunities %s ORDER BY deadline ASC", selectCols, where)
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning opportunity: %w", err)
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM opportunities WHERE id = $1", selectCols), id)
	o, err := scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// OpportunityInput is the admin write shape. Description HTML is stripped
// on the way in.
type OpportunityInput struct {
	Title        string                 `json:"title"`
	Type         models.OpportunityType `json:"type"`
	Organization string                 `json:"organization"`
	Description  string                 `json:"description"`
	Deadline     time.Time              `json:"deadline"`
	ApplyURL     string                 `json:"applyUrl"`
	Location     string                 `json:"location"`
	Prize        string                 `json:"prize"`
	Tags         []string               `json:"tags"`
}

func (in *OpportunityInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("invalid type %q", in.Type)
	}
	if in.Deadline.IsZero() {
		return errors.New("deadline is required")
	}
	return nil
}

func (in *OpportunityInput) normalized() *OpportunityInput {
	out := *in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(descPolicy.Sanitize(in.Description))
	if out.Location == "" {
		out.Location = "Virtual"
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out
}

func (s *Store) Create(ctx context.Context, in *OpportunityInput) (*models.Opportunity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n := in.normalized()

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO opportunities (title, type, organization, description, deadline, apply_url, location, prize, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, n.Title, n.Type, n.Organization, n.Description, n.Deadline, n.ApplyURL, n.Location, n.Prize, n.Tags).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting opportunity: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, in *OpportunityInput) (*models.Opportunity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n := in.normalized()

	tag, err := s.pool.Exec(ctx, `
		UPDATE opportunities
		SET title = $2, type = $3, organization = $4, description = $5,
			deadline = $6, apply_url = $7, location = $8, prize = $9, tags = $10,
			updated_at = NOW()
		WHERE id = $1
	`, id, n.Title, n.Type, n.Organization, n.Description, n.Deadline, n.ApplyURL, n.Location, n.Prize, n.Tags)
	if err != nil {
		return nil, fmt.Errorf("updating opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// SetActive hides or restores a record without deleting it.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE opportunities SET is_active = $2, updated_at = NOW() WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("toggling opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM opportunities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed inserts starter records, skipping any title that already exists.
// Returns the number inserted.
func (s *Store) Seed(ctx context.Context, inputs []OpportunityInput) (int, error) {
	inserted := 0
	for i := range inputs {
		in := &inputs[i]
		if err := in.validate(); err != nil {
			return inserted, fmt.Errorf("seed record %d: %w", i, err)
		}
		n := in.normalized()

		var exists bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM opportunities WHERE title = $1)", n.Title).Scan(&exists); err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		if _, err := s.pool.Exec(ctx, `
			INSERT INTO opportunities (title, type, organization, description, deadline, apply_url, location, prize, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, n.Title, n.Type, n.Organization, n.Description, n.Deadline, n.ApplyURL, n.Location, n.Prize, n.Tags); err != nil {
			return inserted, fmt.Errorf("seeding %q: %w", n.Title, err)
		}
		inserted++
	}
	return inserted, nil
}
