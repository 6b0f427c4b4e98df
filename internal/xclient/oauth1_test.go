package xclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadMediaSignsAndParsesMediaID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, "oauth_signature=") {
			t.Errorf("missing OAuth1 header: %q", auth)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("upload is not multipart: %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"media_id_string":"714"}`))
	}))
	defer ts.Close()

	base := newTestClient()
	base.httpClient = ts.Client()
	uc := NewUserClient(base, "ck", "cs", "at", "as")
	uc.uploadURL = ts.URL

	id, err := uc.UploadMedia(context.Background(), []byte("pngbytes"))
	if err != nil {
		t.Fatal(err)
	}
	if id != "714" {
		t.Fatalf("media id %q, want 714", id)
	}
}

func TestPostReplyAttachesMediaAndParent(t *testing.T) {
	var body string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"900"}}`))
	}))
	defer ts.Close()

	base := newTestClient()
	base.httpClient = ts.Client()
	uc := NewUserClient(base, "ck", "cs", "at", "as")
	uc.postURL = ts.URL

	id, err := uc.PostReply(context.Background(), "m1", "Here's your chart!", "714")
	if err != nil {
		t.Fatal(err)
	}
	if id != "900" {
		t.Fatalf("posted id %q, want 900", id)
	}
	if !strings.Contains(body, `"in_reply_to_tweet_id":"m1"`) {
		t.Fatalf("reply target missing from body: %s", body)
	}
	if !strings.Contains(body, `"714"`) {
		t.Fatalf("media id missing from body: %s", body)
	}
}

func TestPostReplyWithoutMediaOmitsMediaField(t *testing.T) {
	var body string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"901"}}`))
	}))
	defer ts.Close()

	base := newTestClient()
	base.httpClient = ts.Client()
	uc := NewUserClient(base, "ck", "cs", "at", "as")
	uc.postURL = ts.URL

	if _, err := uc.PostReply(context.Background(), "m2", "sorry, no image found", ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "media_ids") {
		t.Fatalf("error reply must not carry media: %s", body)
	}
}
