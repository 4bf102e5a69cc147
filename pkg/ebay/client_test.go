package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingPayload(items ...map[string]any) []byte {
	payload := map[string]any{
		"findCompletedItemsResponse": []any{
			map[string]any{
				"searchResult": []any{
					map[string]any{"item": items},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func findingItem(title string, price string, endTime string) map[string]any {
	return map[string]any{
		"title": []string{title},
		"sellingStatus": []any{
			map[string]any{
				"currentPrice": []any{map[string]any{"__value__": price}},
			},
		},
		"listingInfo": []any{
			map[string]any{"endTime": []string{endTime}},
		},
	}
}

func newTokenServer(t *testing.T, calls *atomic.Int64, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, expiresIn)
	}))
}

func TestFindCompletedItems_ParsesListings(t *testing.T) {
	var tokenCalls atomic.Int64
	tokenSrv := newTokenServer(t, &tokenCalls, 7200)
	defer tokenSrv.Close()

	findingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "findCompletedItems", r.URL.Query().Get("OPERATION-NAME"))
		assert.Equal(t, "PSA 10 Charizard", r.URL.Query().Get("keywords"))
		assert.Equal(t, "true", r.URL.Query().Get("itemFilter(0).value"))
		assert.Equal(t, "25", r.URL.Query().Get("paginationInput.entriesPerPage"))
		assert.Equal(t, "EBAY-US", r.Header.Get("X-EBAY-SOA-GLOBAL-ID"))

		w.Write(findingPayload(
			findingItem("PSA 10 Charizard 4/102", "2100.00", "2026-02-20T18:00:00Z"),
			findingItem("PSA 10 Charizard holo", "1999.99", "2026-02-15T12:30:00Z"),
			findingItem("malformed price", "not-a-number", "2026-02-10T00:00:00Z"),
		))
	}))
	defer findingSrv.Close()

	client := NewClient("app-id", "secret",
		WithTokenURL(tokenSrv.URL),
		WithFindingURL(findingSrv.URL),
	)

	listings, err := client.FindCompletedItems(context.Background(), "PSA 10 Charizard", 25)
	require.NoError(t, err)
	require.Len(t, listings, 2, "unparseable rows skipped")

	assert.Equal(t, "PSA 10 Charizard 4/102", listings[0].Title)
	assert.Equal(t, 2100.00, listings[0].Price)
	assert.Equal(t, time.Date(2026, 2, 20, 18, 0, 0, 0, time.UTC), listings[0].SoldAt)
	assert.Equal(t, 1999.99, listings[1].Price)
}

func TestFindCompletedItems_EmptyResult(t *testing.T) {
	var tokenCalls atomic.Int64
	tokenSrv := newTokenServer(t, &tokenCalls, 7200)
	defer tokenSrv.Close()

	findingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"findCompletedItemsResponse":[]}`))
	}))
	defer findingSrv.Close()

	client := NewClient("app-id", "secret",
		WithTokenURL(tokenSrv.URL),
		WithFindingURL(findingSrv.URL),
	)

	listings, err := client.FindCompletedItems(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestFindCompletedItems_SearchErrorStatus(t *testing.T) {
	var tokenCalls atomic.Int64
	tokenSrv := newTokenServer(t, &tokenCalls, 7200)
	defer tokenSrv.Close()

	findingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer findingSrv.Close()

	client := NewClient("app-id", "secret",
		WithTokenURL(tokenSrv.URL),
		WithFindingURL(findingSrv.URL),
	)

	_, err := client.FindCompletedItems(context.Background(), "anything", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFindCompletedItems_ReusesCachedToken(t *testing.T) {
	var tokenCalls atomic.Int64
	tokenSrv := newTokenServer(t, &tokenCalls, 7200)
	defer tokenSrv.Close()

	findingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(findingPayload())
	}))
	defer findingSrv.Close()

	client := NewClient("app-id", "secret",
		WithTokenURL(tokenSrv.URL),
		WithFindingURL(findingSrv.URL),
	)

	for i := 0; i < 3; i++ {
		_, err := client.FindCompletedItems(context.Background(), "query", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), tokenCalls.Load(), "token fetched once across calls")
}

func TestFindCompletedItems_RefreshesNearExpiry(t *testing.T) {
	var tokenCalls atomic.Int64
	// Expires inside the 30s refresh skew: every call refetches.
	tokenSrv := newTokenServer(t, &tokenCalls, 10)
	defer tokenSrv.Close()

	findingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(findingPayload())
	}))
	defer findingSrv.Close()

	client := NewClient("app-id", "secret",
		WithTokenURL(tokenSrv.URL),
		WithFindingURL(findingSrv.URL),
	)

	for i := 0; i < 2; i++ {
		_, err := client.FindCompletedItems(context.Background(), "query", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), tokenCalls.Load())
}

func TestTokenCache_SingleflightCollapsesConcurrentRefreshes(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		fetches.Add(1)
		<-release
		return "shared-token", time.Now().Add(time.Hour), nil
	})

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.get(context.Background())
		}(i)
	}

	// Let the goroutines pile up behind the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", results[i])
	}
	assert.Equal(t, int64(1), fetches.Load(), "one upstream fetch for all waiters")
}

func TestTokenCache_FetchErrorPropagates(t *testing.T) {
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		return "", time.Time{}, eris.New("token endpoint down")
	})

	_, err := cache.get(context.Background())
	require.Error(t, err)
}

func TestTokenCache_RecoversAfterError(t *testing.T) {
	var calls atomic.Int64
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		if calls.Add(1) == 1 {
			return "", time.Time{}, eris.New("transient")
		}
		return "fresh", time.Now().Add(time.Hour), nil
	})

	_, err := cache.get(context.Background())
	require.Error(t, err)

	token, err := cache.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}
