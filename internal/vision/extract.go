package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"chartabot/internal/config"
	"chartabot/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

const extractPrompt = `Look at this image and extract any chart or chartable data from it.
Reply with ONLY a JSON object of this exact shape, no prose:
{"labels":["..."],"series":[{"name":"...","values":[1,2]}],"suggestedType":"bar|line|pie|scatter","suggestedTitle":"..."}
Every series must have exactly one value per label.
If the image contains no chart and no data that could be charted, reply with exactly: NO_CHART`

// Extractor asks a multimodal model to pull chart-shaped data out of an image.
type Extractor struct {
	client *openai.Client
	model  string
}

// NewExtractor builds an extractor from vision config. BaseURL, when set,
// points the client at an OpenAI-compatible endpoint (also used by tests).
func NewExtractor(cfg config.VisionConfig) *Extractor {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	m := cfg.Model
	if m == "" {
		m = "gpt-4o"
	}
	return &Extractor{client: openai.NewClientWithConfig(oc), model: m}
}

// ExtractFromURL asks the model to analyze an image by its remote URL.
// The model dereferences the URL itself; no bytes travel through the bot.
func (e *Extractor) ExtractFromURL(ctx context.Context, imageURL string) (model.ChartData, error) {
	return e.extract(ctx, imageURL)
}

// ExtractFromBytes asks the model to analyze raw image bytes, passed inline as
// a data URL with a media type sniffed from the image's binary signature.
func (e *Extractor) ExtractFromBytes(ctx context.Context, img []byte) (model.ChartData, error) {
	mime := sniffImageType(img)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img))
	return e.extract(ctx, dataURL)
}

func (e *Extractor) extract(ctx context.Context, imageRef string) (model.ChartData, error) {
	var out model.ChartData
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: 1500,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageRef,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return out, transportErr("vision model call failed", err)
	}
	if len(resp.Choices) == 0 {
		return out, transportErr("vision model returned no choices", nil)
	}
	return parseModelReply(resp.Choices[0].Message.Content)
}

// parseModelReply turns the model's (not contractually clean) text reply into
// validated chart data.
func parseModelReply(reply string) (model.ChartData, error) {
	var out model.ChartData
	text := stripFences(strings.TrimSpace(reply))
	if text == "" {
		return out, transportErr("empty model reply", nil)
	}
	if strings.Contains(strings.ToUpper(text), "NO_CHART") {
		return out, noChartErr("model found no chartable data")
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, invalidErr("model reply is not valid JSON: " + trim(text, 120))
	}
	if !out.Valid() {
		return out, invalidErr("labels/series lengths do not line up")
	}
	return out, nil
}

// stripFences removes conversational code-fence wrapping (``` / ```json) that
// models add around structured output.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line, e.g. "json"
		if !strings.ContainsAny(s[:i], "{}[]") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// sniffImageType maps an image's magic number to a media type. Defaults to PNG.
func sniffImageType(b []byte) string {
	switch {
	case len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return "image/png"
	case len(b) >= 3 && bytes.Equal(b[:3], []byte{0xff, 0xd8, 0xff}):
		return "image/jpeg"
	case len(b) >= 6 && (bytes.Equal(b[:6], []byte("GIF87a")) || bytes.Equal(b[:6], []byte("GIF89a"))):
		return "image/gif"
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/png"
	}
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
