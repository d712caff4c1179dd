package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

func testClient() *Client {
	return NewClient(2*time.Second, 100)
}

func jsonHandler(t *testing.T, path, body string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

func TestCodeforcesSource(t *testing.T) {
	future := time.Now().Add(48 * time.Hour).Unix()
	past := time.Now().Add(-48 * time.Hour).Unix()
	body := fmt.Sprintf(`{
		"status": "OK",
		"result": [
			{"id": 1900, "name": "Codeforces Round 900", "type": "CF", "phase": "BEFORE", "durationSeconds": 7200, "startTimeSeconds": %d},
			{"id": 1899, "name": "Finished Round", "type": "CF", "phase": "FINISHED", "durationSeconds": 7200, "startTimeSeconds": %d},
			{"id": 1898, "name": "Announced But Past", "type": "CF", "phase": "BEFORE", "durationSeconds": 7200, "startTimeSeconds": %d}
		]
	}`, future, past, past)

	srv := httptest.NewServer(jsonHandler(t, "/contest.list", body))
	defer srv.Close()

	src := NewCodeforcesSource(testClient(), SourceConfig{ID: "cf", Name: "Codeforces (Live)", BaseURL: srv.URL})
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("got %d records, want 1 upcoming round", len(out))
	}
	o := out[0]
	if o.Title != "Codeforces Round 900" {
		t.Errorf("title = %q", o.Title)
	}
	if o.Type != models.TypeContest {
		t.Errorf("type = %q, want contest", o.Type)
	}
	if o.ApplyURL != "https://codeforces.com/contest/1900" {
		t.Errorf("apply url = %q", o.ApplyURL)
	}
	if !strings.Contains(o.Description, "2h") {
		t.Errorf("description missing duration: %q", o.Description)
	}
	if o.Source != "Codeforces (Live)" {
		t.Errorf("source = %q", o.Source)
	}
}

func TestCodeforcesSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, "/contest.list", `{"status": "FAILED", "result": []}`))
	defer srv.Close()

	src := NewCodeforcesSource(testClient(), SourceConfig{ID: "cf", Name: "Codeforces", BaseURL: srv.URL})
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected error on non-OK API status")
	}
}

func TestCodeChefSource(t *testing.T) {
	start := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"status": "success",
		"future_contests": [
			{"contest_code": "START120", "contest_name": "Starters 120", "contest_start_date_iso": %q, "contest_duration": "180"},
			{"contest_code": "BROKEN", "contest_name": "Bad Date Contest", "contest_start_date_iso": "not-a-date", "contest_duration": "120"}
		]
	}`, start)

	srv := httptest.NewServer(jsonHandler(t, "/api/list/contests/all", body))
	defer srv.Close()

	src := NewCodeChefSource(testClient(), SourceConfig{ID: "cc", Name: "CodeChef (Live)", BaseURL: srv.URL})
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("got %d records, want the malformed entry skipped", len(out))
	}
	if out[0].ID != "codechef-START120" {
		t.Errorf("id = %q", out[0].ID)
	}
	if out[0].ApplyURL != srv.URL+"/START120" {
		t.Errorf("apply url = %q", out[0].ApplyURL)
	}
}

func TestHackerEarthSource(t *testing.T) {
	end := time.Now().Add(96 * time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"response": [
			{"title": "AI Build Weekend", "description": "<p>Ship an <b>AI</b> project</p>", "url": "https://example.com/hackathon/ai-build", "challenge_type": "hackathon", "end_tz": %q},
			{"title": "Monthly Circuits", "description": "Algorithmic contest", "url": "https://example.com/challenges/circuits", "challenge_type": "competitive", "end_tz": %q},
			{"title": "", "description": "missing title", "url": "https://example.com/x", "challenge_type": "", "end_tz": %q}
		]
	}`, end, end, end)

	srv := httptest.NewServer(jsonHandler(t, "/api/events/upcoming/", body))
	defer srv.Close()

	src := NewHackerEarthSource(testClient(), SourceConfig{ID: "he", Name: "HackerEarth (Live)", BaseURL: srv.URL})
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d records, want untitled entry skipped", len(out))
	}
	if out[0].Type != models.TypeHackathon {
		t.Errorf("hackathon entry classified as %q", out[0].Type)
	}
	if strings.Contains(out[0].Description, "<") {
		t.Errorf("description not stripped of markup: %q", out[0].Description)
	}
	if out[0].Location != "Virtual / India" {
		t.Errorf("location = %q", out[0].Location)
	}
	if out[1].Type != models.TypeContest {
		t.Errorf("contest entry classified as %q", out[1].Type)
	}
}

func TestKontestsSource(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`[
		{"name": "AtCoder Beginner Contest 340", "url": "https://atcoder.jp/contests/abc340", "start_time": %q, "end_time": %q, "duration": "6000", "site": "AtCoder", "status": "BEFORE"},
		{"name": "Already Running", "url": "https://example.com/live", "start_time": %q, "end_time": %q, "duration": "7200", "site": "LeetCode", "status": "CODING"},
		{"name": "Bad Timestamp", "url": "https://example.com/bad", "start_time": "yesterday", "end_time": %q, "duration": "60", "site": "Toph", "status": "BEFORE"}
	]`, future, future, past, future, future)

	srv := httptest.NewServer(jsonHandler(t, "/api/v1/all", body))
	defer srv.Close()

	src := NewKontestsSource(testClient(), SourceConfig{ID: "k", Name: "Contest Aggregator (Live)", BaseURL: srv.URL})
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("got %d records, want running and malformed entries skipped", len(out))
	}
	if out[0].Organization != "AtCoder" {
		t.Errorf("organization = %q", out[0].Organization)
	}
	if !strings.Contains(out[0].Description, "1h40m") {
		t.Errorf("description missing duration: %q", out[0].Description)
	}
}

func TestSourceRespectsMaxItems(t *testing.T) {
	var entries []string
	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	for i := 0; i < 30; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"name": "Contest %d", "url": "https://example.com/%d", "start_time": %q, "end_time": %q, "duration": "3600", "site": "CodeForces", "status": "BEFORE"}`,
			i, i, future, future))
	}
	body := "[" + strings.Join(entries, ",") + "]"

	srv := httptest.NewServer(jsonHandler(t, "/api/v1/all", body))
	defer srv.Close()

	src := NewKontestsSource(testClient(), SourceConfig{ID: "k", Name: "Aggregator", BaseURL: srv.URL, MaxItems: 5})
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 5 {
		t.Errorf("got %d records, want the configured cap of 5", len(out))
	}
}

func TestGetJSONErrorStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient().GetJSON(context.Background(), srv.URL+"/anything", &out)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want status 502 surfaced", err)
	}
}

func TestGetJSONContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]any
	if err := testClient().GetJSON(ctx, srv.URL+"/slow", &out); err == nil {
		t.Error("expected error on cancelled context")
	}
}
