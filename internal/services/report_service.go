package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/geojson"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/lga"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/logger"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/render"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/repository"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/tabular"
)

// Service-level errors
var (
	ErrReportNotFound = errors.New("report not found")
	ErrEmptyUpload    = errors.New("no files uploaded")
	ErrNoUsableData   = errors.New("no uploaded file contained a recognizable LGA table")
)

// NameFieldCandidates are the boundary-file property names tried, in
// priority order, when matching a polygon to its metrics. The Victorian
// boundary files have carried the LGA name under different keys across
// releases.
var NameFieldCandidates = []string{
	"LGA_NAME",
	"LGA_NAME_2021",
	"LGA_NAME_2016",
	"lga_name",
	"NAME",
	"name",
	"lga",
}

// MetricColumns maps the gaming-expenditure spreadsheet layout to metric
// names. Headers cover the VGCCC 2023-24 release; keywords catch older
// releases with slightly different wording.
var MetricColumns = []tabular.MetricColumn{
	{
		Name:     "total_expenditure",
		Headers:  []string{"TOTAL Net Expenditure ($)"},
		Keywords: []string{"expenditure", "loss", "amount"},
	},
	{
		Name:     "adult_population",
		Headers:  []string{"Adult Population 2022"},
		Keywords: []string{"adult population"},
	},
	{
		Name:     "egms_per_1000_adults",
		Headers:  []string{"EGMs per 1,000 Adults 2022"},
		Keywords: []string{"egms per"},
	},
	{
		Name:     "unemployment_rate",
		Headers:  []string{"Unemployment rate as at June 2022"},
		Keywords: []string{"unemployment rate"},
	},
}

// AggregationSpec reduces the metric columns: dollar totals and populations
// sum, densities and rates average. Rows without a positive adult
// population are dropped; the derived per-EGM and per-adult figures come
// from the reduced columns.
var AggregationSpec = lga.AggregateSpec{
	Reducers: map[string]lga.Reducer{
		"total_expenditure":    lga.ReduceSum,
		"adult_population":     lga.ReduceSum,
		"egms_per_1000_adults": lga.ReduceMean,
		"unemployment_rate":    lga.ReduceMean,
	},
	DenominatorColumn: "adult_population",
	Ratios: []lga.RatioSpec{
		{
			Name:        "expenditure_per_egm",
			Numerator:   "total_expenditure",
			Denominator: []string{"adult_population", "egms_per_1000_adults"},
			Scale:       0.001,
		},
		{
			Name:        "expenditure_per_adult",
			Numerator:   "total_expenditure",
			Denominator: []string{"adult_population"},
		},
	},
}

// MapOverlays are the choropleth layers rendered for each run.
var MapOverlays = []render.Overlay{
	{Metric: "expenditure_per_egm", Label: "Expenditure per EGM ($)"},
	{Metric: "expenditure_per_adult", Label: "Expenditure per Adult ($)"},
	{Metric: "unemployment_rate", Label: "Unemployment Rate (%)"},
	{Metric: "egms_per_1000_adults", Label: "EGMs per 1,000 Adults"},
	{Metric: "total_expenditure", Label: "Total Net Expenditure ($)"},
}

// Upload is one uploaded tabular file.
type Upload struct {
	Name   string
	Reader io.Reader
}

// ReportService defines the interface for report pipeline operations.
type ReportService interface {
	// CreateReport runs the full pipeline over the uploads: parse, aggregate,
	// enrich the boundary collection, render the map, persist the run.
	// Returns ErrEmptyUpload for an empty upload set and ErrNoUsableData when
	// no file yielded a parsable LGA table. Partial name-match coverage is
	// not an error; it is reported in the returned run.
	CreateReport(ctx context.Context, uploads []Upload) (*repository.ReportRun, error)

	// GetReport fetches run metadata. Returns ErrReportNotFound for unknown ids.
	GetReport(ctx context.Context, id uuid.UUID) (*repository.ReportRun, error)

	// GetReportGeoJSON fetches the enriched GeoJSON for a run.
	GetReportGeoJSON(ctx context.Context, id uuid.UUID) ([]byte, error)

	// GetReportMap fetches the rendered map HTML for a run.
	GetReportMap(ctx context.Context, id uuid.UUID) ([]byte, error)

	// ListReports returns up to limit runs, newest first.
	ListReports(ctx context.Context, limit int) ([]repository.ReportRun, error)
}

// reportService is the concrete implementation of ReportService.
type reportService struct {
	boundaries *geojson.FeatureCollection
	normalizer *lga.Normalizer
	repo       repository.ReportRepository
	mapTiles   string
	log        *logger.Logger
}

// NewReportService creates a new instance of ReportService. boundaries is
// the base LGA collection loaded at startup; it is never mutated, each run
// enriches a clone.
func NewReportService(boundaries *geojson.FeatureCollection, repo repository.ReportRepository, mapTiles string, log *logger.Logger) ReportService {
	return &reportService{
		boundaries: boundaries,
		normalizer: lga.NewNormalizer(nil),
		repo:       repo,
		mapTiles:   mapTiles,
		log:        log,
	}
}

func (s *reportService) CreateReport(ctx context.Context, uploads []Upload) (*repository.ReportRun, error) {
	if len(uploads) == 0 {
		return nil, ErrEmptyUpload
	}

	var (
		rows        []lga.Row
		sourceFiles []string
		metricSeen  = make(map[string]bool)
	)

	for _, up := range uploads {
		table, err := tabular.ReadCSV(up.Reader)
		if err != nil {
			s.log.Warn("Skipping unreadable upload", map[string]interface{}{
				"file":  up.Name,
				"error": err.Error(),
			})
			continue
		}

		nameCol, ok := table.DetectNameColumn()
		if !ok {
			s.log.Warn("Skipping upload without an LGA name column", map[string]interface{}{
				"file":    up.Name,
				"columns": table.Columns,
			})
			continue
		}

		fileRows := table.Rows(nameCol, MetricColumns)
		rows = append(rows, fileRows...)
		sourceFiles = append(sourceFiles, up.Name)
		for _, name := range table.ResolvedMetrics(MetricColumns) {
			metricSeen[name] = true
		}

		s.log.Info("Parsed upload", map[string]interface{}{
			"file": up.Name,
			"rows": len(fileRows),
		})
	}

	if len(sourceFiles) == 0 {
		return nil, ErrNoUsableData
	}

	metrics := s.normalizer.Aggregate(rows, AggregationSpec)

	enriched := s.boundaries.Clone()
	coverage := s.normalizer.Enrich(enriched.PropertyMaps(), metrics, NameFieldCandidates)

	s.log.Info("Enriched boundary collection", map[string]interface{}{
		"areas_matched": coverage.Matched,
		"areas_total":   coverage.Total,
		"metric_rows":   len(metrics),
	})

	var mapBuf bytes.Buffer
	mapCfg := render.MapConfig{
		Title:     "Gambling Expenditure by LGA",
		Tiles:     s.mapTiles,
		NameField: enrichedNameField(enriched),
		Overlays:  MapOverlays,
	}
	if err := render.Map(&mapBuf, enriched, mapCfg); err != nil {
		s.log.Error("Failed to render map", err, nil)
		return nil, fmt.Errorf("failed to render map: %w", err)
	}

	enrichedJSON, err := json.Marshal(enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enriched collection: %w", err)
	}

	run := &repository.ReportRun{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		SourceFiles: sourceFiles,
		Matched:     coverage.Matched,
		Total:       coverage.Total,
		MetricNames: sortedKeys(metricSeen),
	}

	if err := s.repo.Insert(ctx, run, enrichedJSON, mapBuf.String()); err != nil {
		s.log.Error("Failed to persist report run", err, map[string]interface{}{
			"run_id": run.ID,
		})
		return nil, fmt.Errorf("failed to persist report run: %w", err)
	}

	s.log.Info("Report run completed", map[string]interface{}{
		"run_id":        run.ID,
		"source_files":  run.SourceFiles,
		"areas_matched": run.Matched,
		"areas_total":   run.Total,
	})

	return run, nil
}

func (s *reportService) GetReport(ctx context.Context, id uuid.UUID) (*repository.ReportRun, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query report run: %w", err)
	}
	if run == nil {
		return nil, ErrReportNotFound
	}
	return run, nil
}

func (s *reportService) GetReportGeoJSON(ctx context.Context, id uuid.UUID) ([]byte, error) {
	doc, err := s.repo.GetGeoJSON(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query report geojson: %w", err)
	}
	if doc == nil {
		return nil, ErrReportNotFound
	}
	return doc, nil
}

func (s *reportService) GetReportMap(ctx context.Context, id uuid.UUID) ([]byte, error) {
	html, err := s.repo.GetMapHTML(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query report map: %w", err)
	}
	if html == nil {
		return nil, ErrReportNotFound
	}
	return html, nil
}

func (s *reportService) ListReports(ctx context.Context, limit int) ([]repository.ReportRun, error) {
	runs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	return runs, nil
}

// enrichedNameField picks the property the map tooltip labels areas with:
// the first candidate present on any feature.
func enrichedNameField(fc *geojson.FeatureCollection) string {
	for _, field := range NameFieldCandidates {
		for _, f := range fc.Features {
			if f == nil {
				continue
			}
			if v, ok := f.Properties[field]; ok && v != nil {
				return field
			}
		}
	}
	return "NAME"
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
