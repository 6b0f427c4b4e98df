package xclient

// APIClient combines bearer-token reads with OAuth1.0a writes to satisfy XClient.
type APIClient struct {
	*HTTPClient
	*UserClient
}

var _ XClient = (*APIClient)(nil)

// New builds the full client from the bot's credentials.
func New(bearerToken, consumerKey, consumerSecret, accessToken, accessSecret string) *APIClient {
	base := NewHTTPClient(bearerToken)
	return &APIClient{
		HTTPClient: base,
		UserClient: NewUserClient(base, consumerKey, consumerSecret, accessToken, accessSecret),
	}
}
