package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/meridian-fm/assetcond/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id                    TEXT PRIMARY KEY,
	project_id            TEXT NOT NULL,
	building_id           TEXT NOT NULL DEFAULT '',
	system_code           TEXT NOT NULL DEFAULT '',
	component_code        TEXT NOT NULL,
	condition_label       TEXT NOT NULL DEFAULT '',
	age                   REAL NOT NULL DEFAULT 0,
	assessed_at           DATETIME NOT NULL,
	observations          TEXT NOT NULL DEFAULT '',
	estimated_repair_cost REAL NOT NULL DEFAULT 0,
	UNIQUE (project_id, component_code, assessed_at)
);

CREATE TABLE IF NOT EXISTS criteria (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	weight    REAL NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS criteria_scores (
	project_id  TEXT NOT NULL,
	criteria_id TEXT NOT NULL REFERENCES criteria(id),
	score       REAL NOT NULL DEFAULT 0,
	scored_by   TEXT NOT NULL DEFAULT '',
	scored_at   DATETIME NOT NULL,
	PRIMARY KEY (project_id, criteria_id)
);

CREATE INDEX IF NOT EXISTS idx_assessments_project ON assessments(project_id);
CREATE INDEX IF NOT EXISTS idx_assessments_component ON assessments(project_id, component_code);
CREATE INDEX IF NOT EXISTS idx_criteria_scores_project ON criteria_scores(project_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a model.Assessment) (*model.Assessment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.AssessedAt.IsZero() {
		a.AssessedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.BuildingID, a.SystemCode, a.ComponentCode,
		a.ConditionLabel, a.Age, a.AssessedAt.UTC(), a.Observations, a.EstimatedRepairCost,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert assessment")
	}
	return &a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `
		SELECT id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost
		FROM assessments WHERE 1=1`

	var args []any
	add := func(column, value string) {
		if value != "" {
			query += fmt.Sprintf(" AND %s = ?", column)
			args = append(args, value)
		}
	}
	add("project_id", filter.ProjectID)
	add("building_id", filter.BuildingID)
	add("system_code", filter.SystemCode)
	add("component_code", filter.ComponentCode)

	query += " ORDER BY assessed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close()

	return scanSQLAssessments(rows)
}

func (s *SQLiteStore) ComponentHistory(ctx context.Context, projectID, componentCode string) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, building_id, system_code, component_code, condition_label, age, assessed_at, observations, estimated_repair_cost
		FROM assessments
		WHERE project_id = ? AND component_code = ?
		ORDER BY assessed_at ASC, id ASC`,
		projectID, componentCode,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: component history")
	}
	defer rows.Close()

	return scanSQLAssessments(rows)
}

func (s *SQLiteStore) UpsertCriterion(ctx context.Context, c model.Criterion) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria (id, name, weight, is_active) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, weight = excluded.weight, is_active = excluded.is_active`,
		c.ID, c.Name, c.Weight, c.IsActive,
	)
	return eris.Wrap(err, "sqlite: upsert criterion")
}

func (s *SQLiteStore) DeactivateCriterion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE criteria SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: deactivate criterion")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: criterion %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) ListCriteria(ctx context.Context, activeOnly bool) ([]model.Criterion, error) {
	query := `SELECT id, name, weight, is_active FROM criteria`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list criteria")
	}
	defer rows.Close()

	var out []model.Criterion
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Weight, &c.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan criterion")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate criteria")
}

func (s *SQLiteStore) UpsertScore(ctx context.Context, sc model.CriteriaScore) error {
	if sc.ScoredAt.IsZero() {
		sc.ScoredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria_scores (project_id, criteria_id, score, scored_by, scored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project_id, criteria_id) DO UPDATE SET score = excluded.score, scored_by = excluded.scored_by, scored_at = excluded.scored_at`,
		sc.ProjectID, sc.CriteriaID, sc.Score, sc.ScoredBy, sc.ScoredAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: upsert score")
}

func (s *SQLiteStore) ListScores(ctx context.Context, projectID string) ([]model.CriteriaScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, criteria_id, score, scored_by, scored_at
		FROM criteria_scores WHERE project_id = ?`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scores")
	}
	defer rows.Close()

	return scanSQLScores(rows)
}

func (s *SQLiteStore) ListAllScores(ctx context.Context) ([]model.CriteriaScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, criteria_id, score, scored_by, scored_at
		FROM criteria_scores ORDER BY project_id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list all scores")
	}
	defer rows.Close()

	return scanSQLScores(rows)
}

func scanSQLAssessments(rows *sql.Rows) ([]model.Assessment, error) {
	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		err := rows.Scan(
			&a.ID, &a.ProjectID, &a.BuildingID, &a.SystemCode, &a.ComponentCode,
			&a.ConditionLabel, &a.Age, &a.AssessedAt, &a.Observations, &a.EstimatedRepairCost,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate assessments")
}

func scanSQLScores(rows *sql.Rows) ([]model.CriteriaScore, error) {
	var out []model.CriteriaScore
	for rows.Next() {
		var sc model.CriteriaScore
		if err := rows.Scan(&sc.ProjectID, &sc.CriteriaID, &sc.Score, &sc.ScoredBy, &sc.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate scores")
}
