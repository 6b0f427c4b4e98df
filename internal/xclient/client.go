package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"chartabot/internal/metrics"
	"chartabot/internal/model"

	"golang.org/x/time/rate"
)

// XClient defines methods the bot uses from the X API.
type XClient interface {
	LookupUserID(ctx context.Context, username string) (string, error)
	GetMentionsSince(ctx context.Context, userID, sinceID string, limit int) (model.MentionPage, error)
	GetTweetWithMedia(ctx context.Context, tweetID string) (model.ParentPost, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
	UploadMedia(ctx context.Context, media []byte) (string, error)
	PostReply(ctx context.Context, inReplyToID, text, mediaID string) (string, error)
}

// HTTPClient is a bearer-token client for X API v2 read endpoints.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(bearerToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

// LookupUserID resolves a username to its user id.
func (c *HTTPClient) LookupUserID(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", errors.New("empty username")
	}
	u := fmt.Sprintf("%s/users/by/username/%s", c.baseURL, url.PathEscape(username))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if raw.Data.ID == "" {
		return "", fmt.Errorf("user %q not found", username)
	}
	return raw.Data.ID, nil
}

// GetMentionsSince returns mentions of userID newer than sinceID, plus the
// feed's newest-id marker. An empty sinceID requests the most recent page.
func (c *HTTPClient) GetMentionsSince(ctx context.Context, userID, sinceID string, limit int) (model.MentionPage, error) {
	var page model.MentionPage
	u := fmt.Sprintf("%s/users/%s/mentions?max_results=%d&tweet.fields=created_at,author_id,lang,referenced_tweets",
		c.baseURL, url.PathEscape(userID), clamp(limit, 5, 100))
	if sinceID != "" {
		u += "&since_id=" + url.QueryEscape(sinceID)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return page, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return page, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []struct {
			ID               string    `json:"id"`
			Text             string    `json:"text"`
			AuthorID         string    `json:"author_id"`
			CreatedAt        time.Time `json:"created_at"`
			Lang             string    `json:"lang"`
			ReferencedTweets []struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"referenced_tweets"`
		} `json:"data"`
		Meta struct {
			NewestID string `json:"newest_id"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return page, err
	}
	page.NewestID = raw.Meta.NewestID
	page.Tweets = make([]model.Tweet, 0, len(raw.Data))
	for _, d := range raw.Data {
		t := model.Tweet{
			ID:        d.ID,
			AuthorID:  d.AuthorID,
			Text:      d.Text,
			CreatedAt: d.CreatedAt,
			Language:  d.Lang,
		}
		for _, ref := range d.ReferencedTweets {
			if ref.Type == "replied_to" {
				t.RepliedToID = ref.ID
				break
			}
		}
		page.Tweets = append(page.Tweets, t)
	}
	return page, nil
}

// GetTweetWithMedia fetches a tweet and resolves its first image attachment URL.
func (c *HTTPClient) GetTweetWithMedia(ctx context.Context, tweetID string) (model.ParentPost, error) {
	var out model.ParentPost
	u := fmt.Sprintf("%s/tweets/%s?expansions=attachments.media_keys&media.fields=url,preview_image_url,type",
		c.baseURL, url.PathEscape(tweetID))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
		Includes struct {
			Media []struct {
				MediaKey        string `json:"media_key"`
				Type            string `json:"type"`
				URL             string `json:"url"`
				PreviewImageURL string `json:"preview_image_url"`
			} `json:"media"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	out.ID = raw.Data.ID
	out.Text = raw.Data.Text
	for _, m := range raw.Includes.Media {
		if m.Type == "photo" && m.URL != "" {
			out.ImageURL = m.URL
			break
		}
		if out.ImageURL == "" && m.PreviewImageURL != "" {
			out.ImageURL = m.PreviewImageURL
		}
	}
	return out, nil
}

// DownloadImage fetches image bytes from a media CDN URL. No bearer auth: media
// URLs are plain CDN links.
func (c *HTTPClient) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image download status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				metrics.IncAPIRetry(req.URL.Path)
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
