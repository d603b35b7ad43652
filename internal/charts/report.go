// Package charts renders an HTML report of the collection: color
// distribution and, when a commander is selected, the synergy breakdown.
package charts

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mtgtools/commander-companion/internal/cards"
	"github.com/mtgtools/commander-companion/internal/synergy"
)

// ChartConfig holds presentation options for the report charts.
type ChartConfig struct {
	Width      string
	Height     string
	ShowLegend bool
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		ShowLegend: true,
	}
}

// colorNames maps color codes to display names for chart labels.
var colorNames = map[string]string{
	cards.ColorWhite: "White",
	cards.ColorBlue:  "Blue",
	cards.ColorBlack: "Black",
	cards.ColorRed:   "Red",
	cards.ColorGreen: "Green",
}

// colorOrder fixes the WUBRG axis order, with colorless last.
var colorOrder = []string{
	cards.ColorWhite, cards.ColorBlue, cards.ColorBlack,
	cards.ColorRed, cards.ColorGreen,
}

// RenderCollectionReport writes an HTML report for the collection to
// outputPath. commander may be nil, in which case the synergy chart is
// omitted.
func RenderCollectionReport(records []cards.Record, commander *cards.Record, outputPath string) error {
	config := DefaultChartConfig()

	page := components.NewPage()
	page.PageTitle = "Collection Report"

	page.AddCharts(colorDistributionChart(records, config))
	if commander != nil {
		page.AddCharts(synergyDistributionChart(records, commander, config))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}

// colorDistributionChart counts card quantities per color identity
// membership. A multicolor card counts once per color.
func colorDistributionChart(records []cards.Record, config ChartConfig) *charts.Bar {
	counts := make(map[string]float64)
	var colorless float64
	for _, rec := range records {
		if rec.IsColorless() {
			colorless += rec.Quantity
			continue
		}
		for _, c := range rec.ColorIdentity {
			counts[c] += rec.Quantity
		}
	}

	labels := make([]string, 0, len(colorOrder)+1)
	data := make([]opts.BarData, 0, len(colorOrder)+1)
	for _, c := range colorOrder {
		labels = append(labels, colorNames[c])
		data = append(data, opts.BarData{Value: counts[c]})
	}
	labels = append(labels, "Colorless")
	data = append(data, opts.BarData{Value: colorless})

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Color Distribution",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)
	bar.SetXAxis(labels).AddSeries("Cards", data)

	return bar
}

// synergyDistributionChart buckets the collection by star rating
// against the commander.
func synergyDistributionChart(records []cards.Record, commander *cards.Record, config ChartConfig) *charts.Bar {
	buckets := make([]float64, synergy.MaxStars+1)
	for i := range records {
		stars := synergy.ScoreStars(&records[i], commander)
		buckets[stars] += records[i].Quantity
	}

	labels := make([]string, 0, len(buckets))
	data := make([]opts.BarData, 0, len(buckets))
	for stars, count := range buckets {
		labels = append(labels, fmt.Sprintf("%d★", stars))
		data = append(data, opts.BarData{Value: count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Synergy Distribution",
			Subtitle: fmt.Sprintf("Against %s", commander.Name),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)
	bar.SetXAxis(labels).AddSeries("Cards", data)

	return bar
}
