package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatesJSONArray(t *testing.T) {
	body := []byte(`["2026-07-01", "2026-07-02", "2026-07-01", "garbage"]`)
	got := ParseDates(body)
	assert.Equal(t, []string{"2026-07-01", "2026-07-02"}, got)
}

func TestParseDatesLines(t *testing.T) {
	body := []byte("2026-07-01\n20260702\n\nnot a date\n 2026-07-03 \n")
	got := ParseDates(body)
	// compact dates normalize, whitespace is trimmed, junk lines drop
	assert.Equal(t, []string{"2026-07-01", "2026-07-02", "2026-07-03"}, got)
}

func TestParseDatesEmpty(t *testing.T) {
	assert.Empty(t, ParseDates(nil))
	assert.Empty(t, ParseDates([]byte("  \n ")))
	assert.Empty(t, ParseDates([]byte(`{"not": "an array"}`)))
}

func TestFetchBlockedDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["2026-07-01","2026-07-02"]`))
	}))
	defer srv.Close()

	got, err := FetchBlockedDates(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2026-07-01", "2026-07-02"}, got)
}

func TestFetchBlockedDatesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := FetchBlockedDates(context.Background(), srv.URL)
	assert.Error(t, err)
}
