package chart

import (
	"testing"

	"chartabot/internal/model"
)

func data(nSeries int, suggested string) model.ChartData {
	d := model.ChartData{Labels: []string{"a", "b"}, SuggestedType: suggested}
	for i := 0; i < nSeries; i++ {
		d.Series = append(d.Series, model.Series{Name: "s", Values: []float64{1, 2}})
	}
	return d
}

func TestDeriveConfigClampsUnsupportedType(t *testing.T) {
	cfg := DeriveConfig(data(1, "hologram"))
	if cfg.ChartType != TypeBar {
		t.Fatalf("expected bar fallback, got %s", cfg.ChartType)
	}
	cfg = DeriveConfig(data(1, "line"))
	if cfg.ChartType != TypeLine {
		t.Fatalf("expected line, got %s", cfg.ChartType)
	}
}

func TestDeriveConfigLegendOnlyForMultipleSeries(t *testing.T) {
	if DeriveConfig(data(1, "bar")).ShowLegend {
		t.Fatalf("single series should hide the legend")
	}
	if !DeriveConfig(data(2, "bar")).ShowLegend {
		t.Fatalf("multiple series should show the legend")
	}
}

func TestDeriveConfigDisablesAnimation(t *testing.T) {
	if DeriveConfig(data(1, "bar")).Animate {
		t.Fatalf("static rendering must not animate")
	}
}

func TestDeriveConfigTitleFallback(t *testing.T) {
	d := data(1, "bar")
	if got := DeriveConfig(d).Title; got != "Chart" {
		t.Fatalf("expected fallback title, got %q", got)
	}
	d.SuggestedTitle = "Revenue"
	if got := DeriveConfig(d).Title; got != "Revenue" {
		t.Fatalf("expected suggested title, got %q", got)
	}
}

func TestDeriveConfigGridOffForPie(t *testing.T) {
	if DeriveConfig(data(1, "pie")).ShowGrid {
		t.Fatalf("pie charts have no grid")
	}
}
