package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/cache"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/depreciation"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/document"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatPDF   = "pdf"
	formatXLSX  = "xlsx"
)

type reportFlags struct {
	period string
	format string
	out    string
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.period, "period", depreciation.PeriodOf(timeNow()).String(), "Reporting month (YYYY-MM)")
	cmd.Flags().StringVar(&f.format, "format", formatTable, "Output format: table, json, pdf or xlsx")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write pdf/xlsx output to this file (default: the generated file name)")
}

func newReportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print or export depreciation reports",
	}
	cmd.AddCommand(newScheduleCmd(e), newSOFPCmd(e))
	return cmd
}

func newScheduleCmd(e *env) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Monthly depreciation schedule for every registered asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := depreciation.ParsePeriod(flags.period)
			if err != nil {
				return err
			}
			return e.withReports(func(reports service.ReportService) error {
				ctx := cmd.Context()
				switch flags.format {
				case formatPDF:
					return writeDownload(reports.MonthlySchedulePDF(ctx, p.Year, int(p.Month)))(flags.out)
				case formatXLSX:
					return writeDownload(reports.MonthlyScheduleXLSX(ctx, p.Year, int(p.Month)))(flags.out)
				case formatTable, formatJSON:
				default:
					return fmt.Errorf("unknown format %q", flags.format)
				}

				rows, total, err := allScheduleRows(cmd, reports, p)
				if err != nil {
					return err
				}
				if flags.format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), report.Schedule{Period: p.String(), Total: total, Assets: rows})
				}
				return printSchedule(cmd.OutOrStdout(), p, rows, total)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSOFPCmd(e *env) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "sofp",
		Short: "Statement of financial position by asset category",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := depreciation.ParsePeriod(flags.period)
			if err != nil {
				return err
			}
			return e.withReports(func(reports service.ReportService) error {
				ctx := cmd.Context()
				switch flags.format {
				case formatPDF:
					return writeDownload(reports.SOFPPDF(ctx, p.Year, int(p.Month)))(flags.out)
				case formatXLSX:
					return writeDownload(reports.SOFPXLSX(ctx, p.Year, int(p.Month)))(flags.out)
				case formatTable, formatJSON:
				default:
					return fmt.Errorf("unknown format %q", flags.format)
				}

				sofp, err := reports.SOFP(ctx, p.Year, int(p.Month))
				if err != nil {
					return err
				}
				if flags.format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), sofp)
				}
				return printSOFP(cmd.OutOrStdout(), sofp)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// withReports builds a report service without the redis cache so the CLI always reads current data.
func (e *env) withReports(fn func(service.ReportService) error) error {
	db, closeDB, err := e.connect()
	if err != nil {
		return err
	}
	defer closeDB()

	gen := document.NewGenerator(e.cfg.Company)
	return fn(service.NewReportService(repository.NewAssetRepository(db), gen, gen, cache.Noop{}, e.log))
}

func allScheduleRows(cmd *cobra.Command, reports service.ReportService, p depreciation.Period) ([]report.ScheduleRow, decimal.Decimal, error) {
	var (
		rows  []report.ScheduleRow
		total decimal.Decimal
	)
	for page := 1; ; page++ {
		res, err := reports.MonthlySchedule(cmd.Context(), service.ScheduleFilter{
			Year:  p.Year,
			Month: int(p.Month),
			Page:  page,
			Limit: pagination.MaxLimit,
		})
		if err != nil {
			return nil, decimal.Zero, err
		}
		rows = append(rows, res.Assets...)
		total = res.Total
		if page >= res.TotalPages {
			return rows, total, nil
		}
	}
}

func printSchedule(w io.Writer, p depreciation.Period, rows []report.ScheduleRow, total decimal.Decimal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Asset No.\tAsset\tCategory\tCost\tMonthly\tAccumulated\tNBV\t\n")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.AssetNumber, r.AssetName, r.Category,
			r.PurchaseCost.StringFixed(2), r.MonthlyDepreciation.StringFixed(2),
			r.AccumulatedDepreciation.StringFixed(2), r.NBV.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t\t%s\t\t\t\n", total.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d assets, depreciation for %s: %s\n", len(rows), p, total.StringFixed(2))
	return err
}

func printSOFP(w io.Writer, s report.SOFP) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Category\tCost\tAccumulated\tNBV\t\n")
	for _, l := range s.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", l.Category,
			l.TotalCost.StringFixed(2), l.AccumulatedDepreciation.StringFixed(2), l.NBV.StringFixed(2))
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t\n",
		s.Totals.TotalCost.StringFixed(2), s.Totals.AccumulatedDepreciation.StringFixed(2), s.Totals.NBV.StringFixed(2))
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDownload(d service.Download, err error) func(path string) error {
	return func(path string) error {
		if err != nil {
			return err
		}
		if path == "" {
			path = d.FileName
		}
		if err := os.WriteFile(path, d.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", path, len(d.Data))
		return nil
	}
}
