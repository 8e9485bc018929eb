package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/database"
)

// ReportRun is the persisted record of one completed report pipeline run.
// The enriched GeoJSON and rendered map are stored alongside so past runs
// can be re-served without re-running the pipeline.
type ReportRun struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SourceFiles []string  `json:"source_files"`
	Matched     int       `json:"matched"`
	Total       int       `json:"total"`
	MetricNames []string  `json:"metric_names"`
}

// ReportRepository defines the interface for report-run persistence.
type ReportRepository interface {
	// Insert stores a completed run with its enriched GeoJSON and rendered
	// map HTML.
	Insert(ctx context.Context, run *ReportRun, enrichedGeoJSON []byte, mapHTML string) error

	// GetRun fetches run metadata by id.
	// Returns nil, nil if no run exists (not an error).
	GetRun(ctx context.Context, id uuid.UUID) (*ReportRun, error)

	// GetGeoJSON fetches the enriched GeoJSON document for a run.
	// Returns nil, nil if no run exists.
	GetGeoJSON(ctx context.Context, id uuid.UUID) ([]byte, error)

	// GetMapHTML fetches the rendered map for a run.
	// Returns nil, nil if no run exists.
	GetMapHTML(ctx context.Context, id uuid.UUID) ([]byte, error)

	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]ReportRun, error)
}

// reportRepository is the concrete implementation of ReportRepository.
type reportRepository struct {
	db *database.Database
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *database.Database) ReportRepository {
	return &reportRepository{
		db: db,
	}
}

func (r *reportRepository) Insert(ctx context.Context, run *ReportRun, enrichedGeoJSON []byte, mapHTML string) error {
	query := `
		INSERT INTO report_runs (id, created_at, source_files, matched, total, metric_names, geojson, map_html)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		run.CreatedAt,
		run.SourceFiles,
		run.Matched,
		run.Total,
		run.MetricNames,
		enrichedGeoJSON,
		mapHTML,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report run %s: %w", run.ID, err)
	}

	return nil
}

func (r *reportRepository) GetRun(ctx context.Context, id uuid.UUID) (*ReportRun, error) {
	query := `
		SELECT id, created_at, source_files, matched, total, metric_names
		FROM report_runs
		WHERE id = $1
	`

	var run ReportRun
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.CreatedAt,
		&run.SourceFiles,
		&run.Matched,
		&run.Total,
		&run.MetricNames,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query report run %s: %w", id, err)
	}

	return &run, nil
}

func (r *reportRepository) GetGeoJSON(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var doc []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT geojson FROM report_runs WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query geojson for run %s: %w", id, err)
	}
	return doc, nil
}

func (r *reportRepository) GetMapHTML(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var html []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT map_html FROM report_runs WHERE id = $1`, id).Scan(&html)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query map for run %s: %w", id, err)
	}
	return html, nil
}

func (r *reportRepository) ListRecent(ctx context.Context, limit int) ([]ReportRun, error) {
	query := `
		SELECT id, created_at, source_files, matched, total, metric_names
		FROM report_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent report runs: %w", err)
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var run ReportRun
		err := rows.Scan(
			&run.ID,
			&run.CreatedAt,
			&run.SourceFiles,
			&run.Matched,
			&run.Total,
			&run.MetricNames,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report run rows: %w", err)
	}

	if runs == nil {
		runs = []ReportRun{}
	}

	return runs, nil
}
