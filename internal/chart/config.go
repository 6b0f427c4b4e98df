package chart

import "chartabot/internal/model"

// Chart types the renderer supports. Anything else the model suggests gets
// clamped to a bar chart.
const (
	TypeBar     = "bar"
	TypeLine    = "line"
	TypePie     = "pie"
	TypeScatter = "scatter"
)

var supportedTypes = map[string]bool{
	TypeBar:     true,
	TypeLine:    true,
	TypePie:     true,
	TypeScatter: true,
}

// DeriveConfig builds the display configuration for the bot path: chart type
// from the model's suggestion, legend only when there is more than one series,
// animation always off for static capture.
func DeriveConfig(data model.ChartData) model.DisplayConfig {
	t := data.SuggestedType
	if !supportedTypes[t] {
		t = TypeBar
	}
	title := data.SuggestedTitle
	if title == "" {
		title = "Chart"
	}
	return model.DisplayConfig{
		ChartType:    t,
		ColorScheme:  "default",
		StyleVariant: "professional",
		ShowGrid:     t != TypePie,
		ShowLegend:   len(data.Series) > 1,
		ShowValues:   false,
		Animate:      false,
		Title:        title,
	}
}
