package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridian-fm/assetcond/internal/model"
)

// Pool abstracts pgxpool.Pool so the store can be unit-tested with
// pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id                    TEXT PRIMARY KEY,
	project_id            TEXT NOT NULL,
	building_id           TEXT NOT NULL DEFAULT '',
	system_code           TEXT NOT NULL DEFAULT '',
	component_code        TEXT NOT NULL,
	condition_label       TEXT NOT NULL DEFAULT '',
	age                   DOUBLE PRECISION NOT NULL DEFAULT 0,
	assessed_at           TIMESTAMPTZ NOT NULL,
	observations          TEXT NOT NULL DEFAULT '',
	estimated_repair_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	UNIQUE (project_id, component_code, assessed_at)
);

CREATE TABLE IF NOT EXISTS criteria (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	weight    DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS criteria_scores (
	project_id  TEXT NOT NULL,
	criteria_id TEXT NOT NULL REFERENCES criteria(id),
	score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	scored_by   TEXT NOT NULL DEFAULT '',
	scored_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, criteria_id)
);

CREATE INDEX IF NOT EXISTS idx_assessments_project ON assessments(project_id);
CREATE INDEX IF NOT EXISTS idx_assessments_component ON assessments(project_id, component_code);
CREATE INDEX IF NOT EXISTS idx_criteria_scores_project ON criteria_scores(project_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, a model.Assessment) (*model.Assessment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.AssessedAt.IsZero() {
		a.AssessedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO assessments (id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.ProjectID, a.BuildingID, a.SystemCode, a.ComponentCode,
		a.ConditionLabel, a.Age, a.AssessedAt, a.Observations, a.EstimatedRepairCost,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert assessment")
	}
	return &a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `
		SELECT id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost
		FROM assessments WHERE 1=1`

	var args []any
	argNum := 1
	add := func(clause, value string) {
		if value != "" {
			query += fmt.Sprintf(" AND %s = $%d", clause, argNum)
			args = append(args, value)
			argNum++
		}
	}
	add("project_id", filter.ProjectID)
	add("building_id", filter.BuildingID)
	add("system_code", filter.SystemCode)
	add("component_code", filter.ComponentCode)

	query += " ORDER BY assessed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	return scanAssessments(rows)
}

func (s *PostgresStore) ComponentHistory(ctx context.Context, projectID, componentCode string) ([]model.Assessment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost
		FROM assessments
		WHERE project_id = $1 AND component_code = $2
		ORDER BY assessed_at ASC, id ASC`,
		projectID, componentCode,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: component history")
	}
	defer rows.Close()

	return scanAssessments(rows)
}

func (s *PostgresStore) UpsertCriterion(ctx context.Context, c model.Criterion) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO criteria (id, name, weight, is_active) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, weight = EXCLUDED.weight, is_active = EXCLUDED.is_active`,
		c.ID, c.Name, c.Weight, c.IsActive,
	)
	return eris.Wrap(err, "postgres: upsert criterion")
}

func (s *PostgresStore) DeactivateCriterion(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE criteria SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: deactivate criterion")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: criterion %s not found", id)
	}
	return nil
}

func (s *PostgresStore) ListCriteria(ctx context.Context, activeOnly bool) ([]model.Criterion, error) {
	query := `SELECT id, name, weight, is_active FROM criteria`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list criteria")
	}
	defer rows.Close()

	var out []model.Criterion
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Weight, &c.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan criterion")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate criteria")
	}
	return out, nil
}

func (s *PostgresStore) UpsertScore(ctx context.Context, sc model.CriteriaScore) error {
	if sc.ScoredAt.IsZero() {
		sc.ScoredAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO criteria_scores (project_id, criteria_id, score, scored_by, scored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, criteria_id) DO UPDATE SET score = EXCLUDED.score, scored_by = EXCLUDED.scored_by, scored_at = EXCLUDED.scored_at`,
		sc.ProjectID, sc.CriteriaID, sc.Score, sc.ScoredBy, sc.ScoredAt,
	)
	return eris.Wrap(err, "postgres: upsert score")
}

func (s *PostgresStore) ListScores(ctx context.Context, projectID string) ([]model.CriteriaScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT project_id, criteria_id, score, scored_by, scored_at
		FROM criteria_scores WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: list scores")
	}
	defer rows.Close()

	return scanScores(rows)
}

func (s *PostgresStore) ListAllScores(ctx context.Context) ([]model.CriteriaScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT project_id, criteria_id, score, scored_by, scored_at
		FROM criteria_scores ORDER BY project_id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list all scores")
	}
	defer rows.Close()

	return scanScores(rows)
}

func scanAssessments(rows pgx.Rows) ([]model.Assessment, error) {
	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		err := rows.Scan(
			&a.ID, &a.ProjectID, &a.BuildingID, &a.SystemCode, &a.ComponentCode,
			&a.ConditionLabel, &a.Age, &a.AssessedAt, &a.Observations, &a.EstimatedRepairCost,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate assessments")
	}
	return out, nil
}

func scanScores(rows pgx.Rows) ([]model.CriteriaScore, error) {
	var out []model.CriteriaScore
	for rows.Next() {
		var sc model.CriteriaScore
		if err := rows.Scan(&sc.ProjectID, &sc.CriteriaID, &sc.Score, &sc.ScoredBy, &sc.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate scores")
	}
	return out, nil
}
