// Package ebay is a minimal client for the eBay Finding API's
// completed-items search, authenticating via OAuth client credentials.
package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultTokenURL      = "https://api.ebay.com/identity/v1/oauth2/token"
	defaultFindingURL    = "https://svcs.ebay.com/services/search/FindingService/v1"
	defaultMarketplaceID = "EBAY-US"
	oauthScope           = "https://api.ebay.com/oauth/api_scope"
)

// Listing is one completed listing returned by the Finding API.
type Listing struct {
	Title  string
	Price  float64
	SoldAt time.Time
}

// Client searches completed/sold listings.
type Client interface {
	FindCompletedItems(ctx context.Context, query string, limit int) ([]Listing, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) Option {
	return func(c *httpClient) {
		c.tokenURL = u
	}
}

// WithFindingURL overrides the Finding API endpoint.
func WithFindingURL(u string) Option {
	return func(c *httpClient) {
		c.findingURL = u
	}
}

// WithMarketplaceID overrides the global marketplace ID header.
func WithMarketplaceID(id string) Option {
	return func(c *httpClient) {
		c.marketplaceID = id
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	clientID      string
	clientSecret  string
	tokenURL      string
	findingURL    string
	marketplaceID string
	http          *http.Client
	limiter       *rate.Limiter
	tokens        *tokenCache
}

// NewClient creates an eBay Finding API client. Search calls are rate
// limited to stay inside the API's per-second allowance.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:      clientID,
		clientSecret:  clientSecret,
		tokenURL:      defaultTokenURL,
		findingURL:    defaultFindingURL,
		marketplaceID: defaultMarketplaceID,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, o := range opts {
		o(c)
	}
	c.tokens = newTokenCache(c.fetchToken)
	return c
}

// fetchToken requests a fresh client-credentials token.
func (c *httpClient) fetchToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {oauthScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "ebay: create token request")
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "ebay: token request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, eris.Errorf("ebay: token endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", time.Time{}, eris.Wrap(err, "ebay: decode token response")
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, eris.New("ebay: token response missing access_token")
	}

	return payload.AccessToken, time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second), nil
}

// findingResponse mirrors the Finding API's array-wrapped JSON shape.
type findingResponse struct {
	FindCompletedItemsResponse []struct {
		SearchResult []struct {
			Item []struct {
				Title         []string `json:"title"`
				SellingStatus []struct {
					CurrentPrice []struct {
						Value string `json:"__value__"`
					} `json:"currentPrice"`
				} `json:"sellingStatus"`
				ListingInfo []struct {
					EndTime []string `json:"endTime"`
				} `json:"listingInfo"`
			} `json:"item"`
		} `json:"searchResult"`
	} `json:"findCompletedItemsResponse"`
}

// FindCompletedItems searches sold listings for the query, US-located,
// up to limit entries (capped at 100 by the API).
func (c *httpClient) FindCompletedItems(ctx context.Context, query string, limit int) ([]Listing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ebay: rate limiter")
	}

	token, err := c.tokens.get(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("OPERATION-NAME", "findCompletedItems")
	params.Set("SERVICE-VERSION", "1.13.0")
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("REST-PAYLOAD", "")
	params.Set("keywords", query)
	params.Set("itemFilter(0).name", "SoldItemsOnly")
	params.Set("itemFilter(0).value", "true")
	params.Set("itemFilter(1).name", "LocatedIn")
	params.Set("itemFilter(1).value", "US")
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.findingURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: create search request")
	}
	req.Header.Set("X-EBAY-SOA-SECURITY-APPNAME", c.clientID)
	req.Header.Set("X-EBAY-SOA-GLOBAL-ID", c.marketplaceID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, eris.Errorf("ebay: search status %d: %s", resp.StatusCode, string(body))
	}

	var payload findingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "ebay: decode search response")
	}

	var listings []Listing
	if len(payload.FindCompletedItemsResponse) == 0 || len(payload.FindCompletedItemsResponse[0].SearchResult) == 0 {
		return listings, nil
	}
	for _, item := range payload.FindCompletedItemsResponse[0].SearchResult[0].Item {
		if len(item.Title) == 0 || len(item.SellingStatus) == 0 ||
			len(item.SellingStatus[0].CurrentPrice) == 0 || len(item.ListingInfo) == 0 ||
			len(item.ListingInfo[0].EndTime) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(item.SellingStatus[0].CurrentPrice[0].Value, 64)
		if err != nil {
			continue
		}
		soldAt, err := time.Parse(time.RFC3339, item.ListingInfo[0].EndTime[0])
		if err != nil {
			continue
		}
		listings = append(listings, Listing{
			Title:  item.Title[0],
			Price:  price,
			SoldAt: soldAt,
		})
	}

	return listings, nil
}
