package gtrends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

func TestSourceFetchWeekly(t *testing.T) {
	srv := httptest.NewServer(trendsHandler(t))
	defer srv.Close()

	source := NewSource(trendsTestClient(srv.URL), "now 7-d", 5, nil)
	points, err := source.FetchWeekly(context.Background(), []models.Asset{
		{ID: "bitcoin", Symbol: "btc"},
	})
	require.NoError(t, err)

	// 2 timeline entries x 2 keywords (id + symbol)
	require.Len(t, points, 4)
	assert.Equal(t, "bitcoin", points[0].Key)
	assert.Equal(t, 55.0, points[0].Score)
	assert.Equal(t, "btc", points[1].Key)
	assert.Equal(t, 12.0, points[1].Score)
	assert.Equal(t, time.Date(2024, 8, 25, 0, 0, 0, 0, time.UTC), points[2].Timestamp)
}

func TestSourceFetchWeeklySkipsDuplicateKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/trends/api/explore" {
			w.Write([]byte(`)]}'
{"widgets":[{"id":"TIMESERIES","token":"tok","request":{}}]}`))
			return
		}
		w.Write([]byte(`)]}',
{"default":{"timelineData":[]}}`))
	}))
	defer srv.Close()

	source := NewSource(trendsTestClient(srv.URL), "now 7-d", 5, nil)
	// ID equals symbol, keyword must not be sent twice
	points, err := source.FetchWeekly(context.Background(), []models.Asset{
		{ID: "monero", Symbol: "monero"},
	})
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSourceHonorsBatchSize(t *testing.T) {
	var exploreCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/trends/api/explore" {
			exploreCalls++
			w.Write([]byte(`)]}'
{"widgets":[{"id":"TIMESERIES","token":"tok","request":{}}]}`))
			return
		}
		w.Write([]byte(`)]}',
{"default":{"timelineData":[]}}`))
	}))
	defer srv.Close()

	// 2 assets x 2 keywords with batch size 2 means two comparison requests
	source := NewSource(trendsTestClient(srv.URL), "now 7-d", 2, nil)
	_, err := source.FetchWeekly(context.Background(), []models.Asset{
		{ID: "bitcoin", Symbol: "btc"},
		{ID: "ethereum", Symbol: "eth"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, exploreCalls)
}

func TestSourceClampsBatchSize(t *testing.T) {
	source := NewSource(NewClient(), "now 7-d", 0, nil)
	assert.Equal(t, maxKeywordsPerBatch, source.batchSize)

	source = NewSource(NewClient(), "now 7-d", 9, nil)
	assert.Equal(t, maxKeywordsPerBatch, source.batchSize)

	source = NewSource(NewClient(), "now 7-d", 3, nil)
	assert.Equal(t, 3, source.batchSize)
}

func TestSourceFetchWeeklyEmptyUniverse(t *testing.T) {
	source := NewSource(NewClient(), "now 7-d", 5, nil)
	points, err := source.FetchWeekly(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestSourceFetchWeeklyPropagatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	source := NewSource(trendsTestClient(srv.URL), "now 7-d", 5, nil)
	_, err := source.FetchWeekly(context.Background(), []models.Asset{{ID: "bitcoin", Symbol: "btc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trend batch")
}
