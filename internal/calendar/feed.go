// Package calendar fetches external calendar feeds and reduces them to a
// plain list of blocked ISO dates.  The engine defines no format contract
// for the feed beyond "produces date strings": the parsed dates are
// additional block evidence for the availability evaluator, never
// authoritative for writes.
package calendar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FetchBlockedDates downloads the feed at url and returns the blocked
// dates it lists, normalized to YYYY-MM-DD and deduplicated.  Both a JSON
// array of strings and newline-separated plain text are accepted;
// compact YYYYMMDD dates are normalized.  Lines that do not parse as a
// date are skipped.
func FetchBlockedDates(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar feed: %s returned %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return ParseDates(body), nil
}

// ParseDates extracts the date strings from a raw feed body.
func ParseDates(body []byte) []string {
	var candidates []string
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			candidates = arr
		}
	}
	if candidates == nil {
		sc := bufio.NewScanner(strings.NewReader(trimmed))
		for sc.Scan() {
			candidates = append(candidates, sc.Text())
		}
	}
	seen := make(map[string]struct{}, len(candidates))
	out := []string{}
	for _, c := range candidates {
		d, ok := normalizeDate(c)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t.Format(dateLayout), true
	}
	if t, err := time.ParseInLocation("20060102", s, time.UTC); err == nil {
		return t.Format(dateLayout), true
	}
	return "", false
}
