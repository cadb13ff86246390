// Package render turns quotes into embeddable chart fragments.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"FinDash/internal/domain/models"
)

// ErrNoHistory is returned for quotes without any price history.
var ErrNoHistory = errors.New("render: quote has no history")

const (
	sparkWidth  = "240px"
	sparkHeight = "64px"
)

// Sparkline renders q.History as a bare smoothed line in the rating color.
func Sparkline(q models.StockQuote) ([]byte, error) {
	if len(q.History) == 0 {
		return nil, ErrNoHistory
	}

	labels := make([]string, len(q.History))
	points := make([]opts.LineData, len(q.History))
	for i, v := range q.History {
		labels[i] = strconv.Itoa(i)
		points[i] = opts.LineData{Value: v}
	}
	color := q.Guidance.Rating.ChartColor()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       q.Symbol,
			Width:           sparkWidth,
			Height:          sparkHeight,
			BackgroundColor: "transparent",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(false), Scale: opts.Bool(true)}),
	)
	line.SetXAxis(labels).AddSeries(q.Symbol, points,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}),
	)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render sparkline %s: %w", q.Symbol, err)
	}
	return buf.Bytes(), nil
}
