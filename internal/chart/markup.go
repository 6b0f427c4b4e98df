package chart

import (
	"bytes"
	"fmt"
	"io"

	"chartabot/internal/model"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type renderable interface {
	Render(w io.Writer) error
}

// HTML builds a standalone chart document for the given data and config.
// The renderer loads it in a headless page and screenshots the result.
func HTML(data model.ChartData, cfg model.DisplayConfig, width, height int) (string, error) {
	var c renderable
	switch cfg.ChartType {
	case TypePie:
		c = buildPie(data, cfg, width, height)
	case TypeLine:
		c = buildLine(data, cfg, width, height)
	case TypeScatter:
		c = buildScatter(data, cfg, width, height)
	default:
		c = buildBar(data, cfg, width, height)
	}
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", fmt.Errorf("chart markup: %w", err)
	}
	return buf.String(), nil
}

func globalOpts(cfg model.DisplayConfig, width, height int) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: cfg.Title}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", width),
			Height: fmt.Sprintf("%dpx", height),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(cfg.ShowLegend)}),
		charts.WithAnimation(cfg.Animate),
	}
}

func buildBar(data model.ChartData, cfg model.DisplayConfig, width, height int) renderable {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(cfg, width, height)...)
	bar.SetXAxis(data.Labels)
	for _, s := range data.Series {
		items := make([]opts.BarData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.BarData{Value: v})
		}
		bar.AddSeries(s.Name, items)
	}
	return bar
}

func buildLine(data model.ChartData, cfg model.DisplayConfig, width, height int) renderable {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(cfg, width, height)...)
	line.SetXAxis(data.Labels)
	for _, s := range data.Series {
		items := make([]opts.LineData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(s.Name, items)
	}
	return line
}

func buildScatter(data model.ChartData, cfg model.DisplayConfig, width, height int) renderable {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(globalOpts(cfg, width, height)...)
	sc.SetXAxis(data.Labels)
	for _, s := range data.Series {
		items := make([]opts.ScatterData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.ScatterData{Value: v})
		}
		sc.AddSeries(s.Name, items)
	}
	return sc
}

// buildPie charts the first series only; a pie has no second dimension.
func buildPie(data model.ChartData, cfg model.DisplayConfig, width, height int) renderable {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(cfg, width, height)...)
	if len(data.Series) == 0 {
		return pie
	}
	s := data.Series[0]
	items := make([]opts.PieData, 0, len(s.Values))
	for i, v := range s.Values {
		name := ""
		if i < len(data.Labels) {
			name = data.Labels[i]
		}
		items = append(items, opts.PieData{Name: name, Value: v})
	}
	pie.AddSeries(s.Name, items)
	return pie
}
