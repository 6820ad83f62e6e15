package imagery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var today = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected error
	}{
		{"today", today.Add(8 * time.Hour), nil},
		{"yesterday", today.AddDate(0, 0, -1), nil},
		{"tomorrow", today.AddDate(0, 0, 1), ErrFutureDate},
		{"archive start", ArchiveStart, nil},
		{"day before archive", ArchiveStart.AddDate(0, 0, -1), ErrBeforeArchive},
		{"far past", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), ErrBeforeArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.date, today)
			if !errors.Is(err, tt.expected) {
				t.Errorf("ValidateDate(%s) = %v, expected %v", tt.date.Format(time.DateOnly), err, tt.expected)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(server.URL+"/planetary/apod", "", server.Client(), zap.NewNop().Sugar())
	c.now = func() time.Time { return today }
	return c
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/planetary/apod", r.URL.Path)
		assert.Equal(t, DemoKey, r.URL.Query().Get("api_key"))
		assert.Equal(t, "2024-03-09", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"title":"Moon over Madrid","explanation":"x","url":"https://apod.nasa.gov/a.jpg","hdurl":"https://apod.nasa.gov/a_hd.jpg","media_type":"image","date":"2024-03-09"}`))
	})

	media, err := c.Fetch(context.Background(), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Moon over Madrid", media.Title)
	assert.Equal(t, "image", media.MediaType)
	assert.Equal(t, "https://apod.nasa.gov/a_hd.jpg", media.HDURL)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"not found", http.StatusNotFound, "", ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
		{"server error", http.StatusInternalServerError, "", ErrStatus},
		{"missing url", http.StatusOK, `{"title":"t","media_type":"other"}`, ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Fetch(context.Background(), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
			if !errors.Is(err, tt.expected) {
				t.Errorf("Fetch() error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestFetchValidatesBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.Fetch(context.Background(), today.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, ErrFutureDate)
	_, err = c.Fetch(context.Background(), time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrBeforeArchive)
	assert.Equal(t, int32(0), calls.Load())
}
