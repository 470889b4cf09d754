package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/cache"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/depreciation"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/document"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/metrics"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	reportSchedule = "schedule"
	reportSOFP     = "sofp"
)

type ScheduleFilter struct {
	Year   int
	Month  int
	Page   int
	Limit  int
	Search string
	Status string
}

type AssetDepreciationResponse struct {
	AssetID                 string          `json:"asset_id"`
	AssetNumber             string          `json:"asset_number"`
	AssetName               string          `json:"asset_name"`
	Period                  string          `json:"period"`
	MonthsElapsed           int             `json:"months_elapsed"`
	MonthlyDepreciation     decimal.Decimal `json:"monthly_depreciation"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	NBV                     decimal.Decimal `json:"nbv"`
	FullyDepreciated        bool            `json:"fully_depreciated"`
}

type ReportService interface {
	MonthlySchedule(ctx context.Context, filter ScheduleFilter) (report.SchedulePage, error)
	SOFP(ctx context.Context, year, month int) (report.SOFP, error)
	MonthlySchedulePDF(ctx context.Context, year, month int) (Download, error)
	MonthlyScheduleXLSX(ctx context.Context, year, month int) (Download, error)
	SOFPPDF(ctx context.Context, year, month int) (Download, error)
	SOFPXLSX(ctx context.Context, year, month int) (Download, error)
	AssetDepreciation(ctx context.Context, assetID string, year, month int) (AssetDepreciationResponse, error)
}

type reportService struct {
	assetRepo repository.AssetRepository
	renderer  document.Renderer
	exporter  document.Exporter
	reports   cache.ReportCache
	logger    *zap.Logger
}

func NewReportService(
	assetRepo repository.AssetRepository,
	renderer document.Renderer,
	exporter document.Exporter,
	reports cache.ReportCache,
	logger *zap.Logger,
) ReportService {
	if reports == nil {
		reports = cache.Noop{}
	}
	return &reportService{
		assetRepo: assetRepo,
		renderer:  renderer,
		exporter:  exporter,
		reports:   reports,
		logger:    logger,
	}
}

func reportPeriod(op string, year, month int) (depreciation.Period, error) {
	p, err := depreciation.NewPeriod(year, month)
	if err != nil {
		return depreciation.Period{}, apperr.Validation(op, "%v", err)
	}
	return p, nil
}

// assetsThrough loads every asset that can have been acquired by the end of p.
// The bound has a day of slack for zone offsets; report filters by period exactly.
func (s *reportService) assetsThrough(ctx context.Context, p depreciation.Period) ([]model.Asset, error) {
	next := p.AddMonths(1)
	end := time.Date(next.Year, next.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	assets, err := s.assetRepo.ListAcquiredThrough(ctx, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	return assets, nil
}

// cached returns the payload stored under key, computing and storing it on a miss.
// Cache errors never fail a report.
func (s *reportService) cached(ctx context.Context, name, key string, dest interface{}, compute func() error) error {
	hit, err := s.reports.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCache(name, hit)
	if hit {
		return nil
	}

	if err := compute(); err != nil {
		return err
	}
	if err := s.reports.Set(ctx, key, dest); err != nil {
		s.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *reportService) schedule(ctx context.Context, p depreciation.Period) (report.Schedule, error) {
	var sched report.Schedule
	err := s.cached(ctx, reportSchedule, cache.Key(reportSchedule, p.String()), &sched, func() error {
		assets, err := s.assetsThrough(ctx, p)
		if err != nil {
			return err
		}
		sched = report.BuildSchedule(assets, p)
		return nil
	})
	return sched, err
}

func (s *reportService) sofp(ctx context.Context, p depreciation.Period) (report.SOFP, error) {
	var sofp report.SOFP
	err := s.cached(ctx, reportSOFP, cache.Key(reportSOFP, p.String()), &sofp, func() error {
		assets, err := s.assetsThrough(ctx, p)
		if err != nil {
			return err
		}
		sofp = report.BuildSOFP(assets, p)
		return nil
	})
	return sofp, err
}

// MonthlySchedule returns one page of the schedule. The total covers every asset in the period
// whatever the page, search or status filter.
func (s *reportService) MonthlySchedule(ctx context.Context, filter ScheduleFilter) (report.SchedulePage, error) {
	const op = "monthlySchedule"

	p, err := reportPeriod(op, filter.Year, filter.Month)
	if err != nil {
		return report.SchedulePage{}, err
	}
	status, ok := report.ParseStatusFilter(filter.Status)
	if !ok {
		return report.SchedulePage{}, apperr.Validation(op, "unknown status filter %q", filter.Status)
	}

	sched, err := s.schedule(ctx, p)
	if err != nil {
		return report.SchedulePage{}, err
	}
	return sched.Page(report.ScheduleQuery{
		Page:   filter.Page,
		Limit:  filter.Limit,
		Search: filter.Search,
		Status: status,
	}), nil
}

func (s *reportService) SOFP(ctx context.Context, year, month int) (report.SOFP, error) {
	p, err := reportPeriod("sofp", year, month)
	if err != nil {
		return report.SOFP{}, err
	}
	return s.sofp(ctx, p)
}

// render times a document build and reports failures as an external dependency error.
func render(op, name string, build func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	data, err := build()
	metrics.ObserveRender(name, start, err)
	if err != nil {
		return nil, apperr.External(op, "failed to render "+name, err)
	}
	return data, nil
}

func (s *reportService) MonthlySchedulePDF(ctx context.Context, year, month int) (Download, error) {
	const op = "monthlySchedulePDF"

	p, err := reportPeriod(op, year, month)
	if err != nil {
		return Download{}, err
	}
	sched, err := s.schedule(ctx, p)
	if err != nil {
		return Download{}, err
	}
	data, err := render(op, "monthly_schedule", func() ([]byte, error) { return s.renderer.MonthlySchedule(sched) })
	if err != nil {
		return Download{}, err
	}
	return Download{FileName: "depreciation-schedule-" + p.String() + ".pdf", ContentType: document.ContentTypePDF, Data: data}, nil
}

func (s *reportService) MonthlyScheduleXLSX(ctx context.Context, year, month int) (Download, error) {
	const op = "monthlyScheduleXLSX"

	p, err := reportPeriod(op, year, month)
	if err != nil {
		return Download{}, err
	}
	sched, err := s.schedule(ctx, p)
	if err != nil {
		return Download{}, err
	}
	data, err := render(op, "monthly_schedule_xlsx", func() ([]byte, error) { return s.exporter.MonthlyScheduleXLSX(sched) })
	if err != nil {
		return Download{}, err
	}
	return Download{FileName: "depreciation-schedule-" + p.String() + ".xlsx", ContentType: document.ContentTypeXLSX, Data: data}, nil
}

func (s *reportService) SOFPPDF(ctx context.Context, year, month int) (Download, error) {
	const op = "sofpPDF"

	p, err := reportPeriod(op, year, month)
	if err != nil {
		return Download{}, err
	}
	sofp, err := s.sofp(ctx, p)
	if err != nil {
		return Download{}, err
	}
	data, err := render(op, "sofp", func() ([]byte, error) { return s.renderer.SOFP(sofp) })
	if err != nil {
		return Download{}, err
	}
	return Download{FileName: "sofp-" + p.String() + ".pdf", ContentType: document.ContentTypePDF, Data: data}, nil
}

func (s *reportService) SOFPXLSX(ctx context.Context, year, month int) (Download, error) {
	const op = "sofpXLSX"

	p, err := reportPeriod(op, year, month)
	if err != nil {
		return Download{}, err
	}
	sofp, err := s.sofp(ctx, p)
	if err != nil {
		return Download{}, err
	}
	data, err := render(op, "sofp_xlsx", func() ([]byte, error) { return s.exporter.SOFPXLSX(sofp) })
	if err != nil {
		return Download{}, err
	}
	return Download{FileName: "sofp-" + p.String() + ".xlsx", ContentType: document.ContentTypeXLSX, Data: data}, nil
}

func (s *reportService) AssetDepreciation(ctx context.Context, assetID string, year, month int) (AssetDepreciationResponse, error) {
	const op = "assetDepreciation"

	id, err := parseID(op, "asset id", assetID)
	if err != nil {
		return AssetDepreciationResponse{}, err
	}
	p, err := reportPeriod(op, year, month)
	if err != nil {
		return AssetDepreciationResponse{}, err
	}
	asset, err := s.assetRepo.FindByID(ctx, id)
	if err != nil {
		return AssetDepreciationResponse{}, lookupErr(op, "asset", err)
	}

	r := report.Figures(*asset, p)
	return AssetDepreciationResponse{
		AssetID:                 asset.ID.String(),
		AssetNumber:             asset.AssetNumber,
		AssetName:               asset.Name,
		Period:                  p.String(),
		MonthsElapsed:           r.MonthsElapsed,
		MonthlyDepreciation:     depreciation.Round(r.Monthly),
		AccumulatedDepreciation: depreciation.Round(r.Accumulated),
		NBV:                     depreciation.Round(r.NBV),
		FullyDepreciated:        r.FullyDepreciated,
	}, nil
}
