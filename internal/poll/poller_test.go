package poll

import (
	"context"
	"errors"
	"testing"

	"chartabot/internal/model"
)

// fake X client returning scripted mention pages
type fakeClient struct {
	pages   []model.MentionPage
	err     error
	sinceIn []string
	call    int
}

func (f *fakeClient) GetMentionsSince(ctx context.Context, userID, sinceID string, limit int) (model.MentionPage, error) {
	f.sinceIn = append(f.sinceIn, sinceID)
	if f.err != nil {
		return model.MentionPage{}, f.err
	}
	if f.call >= len(f.pages) {
		return model.MentionPage{}, nil
	}
	p := f.pages[f.call]
	f.call++
	return p, nil
}

func (f *fakeClient) LookupUserID(ctx context.Context, username string) (string, error) {
	return "bot", nil
}
func (f *fakeClient) GetTweetWithMedia(ctx context.Context, tweetID string) (model.ParentPost, error) {
	return model.ParentPost{}, nil
}
func (f *fakeClient) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) UploadMedia(ctx context.Context, media []byte) (string, error) { return "", nil }
func (f *fakeClient) PostReply(ctx context.Context, inReplyToID, text, mediaID string) (string, error) {
	return "", nil
}

func TestPollFiltersTriggerPhraseCaseInsensitively(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{{
		Tweets: []model.Tweet{
			{ID: "1", AuthorID: "a", Text: "hey @bot make it epic", RepliedToID: "p1"},
			{ID: "2", AuthorID: "a", Text: "hey @bot MAKE IT EPIC", RepliedToID: "p2"},
			{ID: "3", AuthorID: "a", Text: "hey @bot Make It Epic please", RepliedToID: "p3"},
			{ID: "4", AuthorID: "a", Text: "hey @bot nice chart", RepliedToID: "p4"},
		},
		NewestID: "4",
	}}}
	p := New(fx, "bot", "make it epic", nil, 25)
	got := p.Poll(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected 3 mentions, got %d", len(got))
	}
	for _, m := range got {
		if m.ID == "4" {
			t.Fatalf("mention without trigger phrase passed the filter")
		}
	}
}

func TestPollRequiresRepliedToParent(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{{
		Tweets: []model.Tweet{
			{ID: "1", AuthorID: "a", Text: "make it epic", RepliedToID: ""},
			{ID: "2", AuthorID: "a", Text: "make it epic", RepliedToID: "p2"},
		},
		NewestID: "2",
	}}}
	p := New(fx, "bot", "make it epic", nil, 25)
	got := p.Poll(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(got))
	}
	if got[0].ID != "2" || got[0].ParentID != "p2" {
		t.Fatalf("unexpected mention %+v", got[0])
	}
}

func TestPollAppliesAllowList(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{{
		Tweets: []model.Tweet{
			{ID: "1", AuthorID: "friend", Text: "make it epic", RepliedToID: "p1"},
			{ID: "2", AuthorID: "stranger", Text: "make it epic", RepliedToID: "p2"},
		},
		NewestID: "2",
	}}}
	p := New(fx, "bot", "make it epic", []string{"friend"}, 25)
	got := p.Poll(context.Background())
	if len(got) != 1 || got[0].AuthorID != "friend" {
		t.Fatalf("allow-list not applied: %+v", got)
	}
}

func TestPollCursorAdvancesEvenWhenAllFiltered(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{{
		Tweets:   []model.Tweet{{ID: "9", AuthorID: "a", Text: "unrelated", RepliedToID: ""}},
		NewestID: "9",
	}}}
	p := New(fx, "bot", "make it epic", nil, 25)
	got := p.Poll(context.Background())
	if len(got) != 0 {
		t.Fatalf("expected no mentions, got %d", len(got))
	}
	if p.Cursor() != "9" {
		t.Fatalf("cursor should advance past filtered mentions, got %q", p.Cursor())
	}
}

func TestPollCursorIsMonotonic(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{
		{NewestID: "100"},
		{NewestID: "90"},  // synthetic regression must not move the cursor back
		{NewestID: "105"},
		{NewestID: ""},
	}}
	p := New(fx, "bot", "make it epic", nil, 25)
	want := []string{"100", "100", "105", "105"}
	for i, w := range want {
		p.Poll(context.Background())
		if p.Cursor() != w {
			t.Fatalf("cycle %d: cursor %q, want %q", i, p.Cursor(), w)
		}
	}
}

func TestPollCursorComparesNumericLength(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{
		{NewestID: "99"},
		{NewestID: "100"}, // longer means larger for snowflake ids
	}}
	p := New(fx, "bot", "make it epic", nil, 25)
	p.Poll(context.Background())
	p.Poll(context.Background())
	if p.Cursor() != "100" {
		t.Fatalf("cursor %q, want 100", p.Cursor())
	}
}

func TestPollSwallowsFetchErrors(t *testing.T) {
	fx := &fakeClient{err: errors.New("boom")}
	p := New(fx, "bot", "make it epic", nil, 25)
	got := p.Poll(context.Background())
	if got != nil {
		t.Fatalf("expected nil mentions on fetch failure, got %v", got)
	}
	if p.Cursor() != "" {
		t.Fatalf("cursor moved on failed poll: %q", p.Cursor())
	}
}

func TestPollPassesCursorToClient(t *testing.T) {
	fx := &fakeClient{pages: []model.MentionPage{{NewestID: "50"}, {NewestID: "60"}}}
	p := New(fx, "bot", "make it epic", nil, 25)
	p.Poll(context.Background())
	p.Poll(context.Background())
	if fx.sinceIn[0] != "" || fx.sinceIn[1] != "50" {
		t.Fatalf("since ids %v, want [\"\" \"50\"]", fx.sinceIn)
	}
}
