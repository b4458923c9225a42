package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/shrinklab/minimize/internal/driver"
)

const chartLineWidth = 2

// NewReportCommand builds the report subcommand, which renders an HTML
// chart of project byte-size per pass boundary from a run log written by
// `minimize run --run-log`. Grounded on the teacher's
// internal/analyzers/quality/plot.go go-echarts usage, adapted from a
// multi-series tick chart to a single-series pass-progress chart.
func NewReportCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report RUN_LOG",
		Short: "Render an HTML chart of project size across a reduction run",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runReport(args[0], outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "reduction_report.html", "path to write the HTML report")

	return cmd
}

func runReport(runLogPath, outputPath string) error {
	log, err := driver.ReadRunLog(runLogPath)
	if err != nil {
		return err
	}

	labels := make([]string, len(log.Samples))
	data := make([]opts.LineData, len(log.Samples))

	for i, size := range log.Samples {
		labels[i] = strconv.Itoa(i)
		data[i] = opts.LineData{Value: size}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Project Size Across Reduction Passes"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bytes"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "pass boundary"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Project size", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	line.SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: chartLineWidth}))

	f, err := os.Create(outputPath) //nolint:gosec // operator-supplied output path
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	return nil
}
