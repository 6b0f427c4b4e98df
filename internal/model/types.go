package model

import "time"

// Mention is a feed post that passed the poller's filters: it mentions the
// bot, contains the trigger phrase, and replies to exactly one parent post.
type Mention struct {
	ID       string
	AuthorID string
	Text     string
	ParentID string
}

// Tweet represents a subset of X tweet fields used by the bot.
type Tweet struct {
	ID          string
	AuthorID    string
	Text        string
	CreatedAt   time.Time
	RepliedToID string // id of the replied-to tweet, empty if not a reply
	Language    string
}

// MentionPage is one page of mention results plus the feed's newest-id marker.
type MentionPage struct {
	Tweets   []Tweet
	NewestID string
}

// ParentPost is the replied-to tweet with its first image attachment resolved.
type ParentPost struct {
	ID       string
	Text     string
	ImageURL string // empty when the post carries no image attachment
}

// Series is one named sequence of values in a chart.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartData is the structured representation extracted from an image.
// Invariant: every series has exactly len(Labels) values.
type ChartData struct {
	Labels         []string `json:"labels"`
	Series         []Series `json:"series"`
	SuggestedType  string   `json:"suggestedType,omitempty"`
	SuggestedTitle string   `json:"suggestedTitle,omitempty"`
	AIReasoning    string   `json:"aiReasoning,omitempty"`
}

// Valid reports whether the data satisfies the labels/series-length invariant.
func (d ChartData) Valid() bool {
	if len(d.Labels) == 0 || len(d.Series) == 0 {
		return false
	}
	for _, s := range d.Series {
		if len(s.Values) != len(d.Labels) {
			return false
		}
	}
	return true
}

// DisplayConfig controls how a chart is rendered.
type DisplayConfig struct {
	ChartType    string
	ColorScheme  string
	StyleVariant string
	ShowGrid     bool
	ShowLegend   bool
	ShowValues   bool
	Animate      bool
	Title        string
}

// PipelineEvent captures one terminal pipeline outcome, for the event journal.
type PipelineEvent struct {
	Timestamp time.Time
	Type      string // reply, user_error, silent_failure
	MentionID string
	Stage     string
}
