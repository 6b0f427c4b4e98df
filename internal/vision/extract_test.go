package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chartabot/internal/config"
)

func TestParseModelReplyStripsCodeFences(t *testing.T) {
	reply := "```json\n{\"labels\":[\"Q1\",\"Q2\"],\"series\":[{\"name\":\"Rev\",\"values\":[10,20]}],\"suggestedType\":\"bar\"}\n```"
	data, err := parseModelReply(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Labels) != 2 || data.Series[0].Name != "Rev" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestParseModelReplyBareJSON(t *testing.T) {
	reply := `{"labels":["a"],"series":[{"name":"s","values":[1]}]}`
	if _, err := parseModelReply(reply); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseModelReplyNoChartSentinel(t *testing.T) {
	_, err := parseModelReply("NO_CHART")
	if KindOf(err) != KindNoChartData {
		t.Fatalf("expected KindNoChartData, got %v", err)
	}
}

func TestParseModelReplyRejectsLengthMismatch(t *testing.T) {
	reply := `{"labels":["a","b"],"series":[{"name":"s","values":[1]}]}`
	_, err := parseModelReply(reply)
	if KindOf(err) != KindInvalidStructure {
		t.Fatalf("expected KindInvalidStructure, got %v", err)
	}
}

func TestParseModelReplyRejectsEmptySeries(t *testing.T) {
	reply := `{"labels":["a"],"series":[]}`
	_, err := parseModelReply(reply)
	if KindOf(err) != KindInvalidStructure {
		t.Fatalf("expected KindInvalidStructure, got %v", err)
	}
}

func TestParseModelReplyRejectsProse(t *testing.T) {
	_, err := parseModelReply("Sure! Here is the chart data you asked for.")
	if KindOf(err) != KindInvalidStructure {
		t.Fatalf("expected KindInvalidStructure, got %v", err)
	}
}

func TestSniffImageType(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want string
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, "image/png"},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, "image/jpeg"},
		{"gif87", []byte("GIF87a......"), "image/gif"},
		{"gif89", []byte("GIF89a......"), "image/gif"},
		{"webp", []byte("RIFF....WEBPVP8 "), "image/webp"},
		{"unknown", []byte{0x00, 0x01, 0x02}, "image/png"},
		{"empty", nil, "image/png"},
	}
	for _, c := range cases {
		if got := sniffImageType(c.b); got != c.want {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

// fake OpenAI-compatible chat completions endpoint
func fakeModelServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestExtractFromURLParsesModelReply(t *testing.T) {
	ts := fakeModelServer(t, `{"labels":["Q1","Q2"],"series":[{"name":"Rev","values":[10,20]}],"suggestedType":"line","suggestedTitle":"Revenue"}`)
	defer ts.Close()
	e := NewExtractor(config.VisionConfig{APIKey: "test", Model: "gpt-4o", BaseURL: ts.URL + "/v1"})
	data, err := e.ExtractFromURL(context.Background(), "https://x/img.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.SuggestedType != "line" || data.SuggestedTitle != "Revenue" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestExtractFromBytesParsesModelReply(t *testing.T) {
	ts := fakeModelServer(t, `{"labels":["a"],"series":[{"name":"s","values":[3]}]}`)
	defer ts.Close()
	e := NewExtractor(config.VisionConfig{APIKey: "test", BaseURL: ts.URL + "/v1"})
	data, err := e.ExtractFromBytes(context.Background(), []byte{0xff, 0xd8, 0xff, 0xe0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Labels) != 1 {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestExtractTransportErrorOnServerFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	e := NewExtractor(config.VisionConfig{APIKey: "test", BaseURL: ts.URL + "/v1"})
	_, err := e.ExtractFromURL(context.Background(), "https://x/img.png")
	if KindOf(err) != KindTransport {
		t.Fatalf("expected KindTransport, got %v", err)
	}
}
