package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<article>
  <h2>Campus Blockchain Hackathon</h2>
  <a href="/events/blockchain-hack">Details</a>
  <time>2027-02-20</time>
  <p>48-hour online hackathon. $5,000 in prizes for the best web3 project.</p>
</article>
<article>
  <h2>Summer Backend Internship</h2>
  <a href="/jobs/backend-intern">Apply</a>
  <p>Remote internship working on cloud infrastructure. Apply by Mar 15, 2027.</p>
</article>
<article>
  <h2></h2>
  <a href="/broken">untitled entry</a>
</article>
</body></html>`

func scrapeConfig(baseURL string) SourceConfig {
	return SourceConfig{
		ID:      "scraper",
		Name:    "Web Listings (Scraped)",
		Kind:    "html_scrape",
		BaseURL: baseURL,
		Selectors: SelectorConfig{
			Container: "article",
			Title:     "h2",
			Link:      "a",
			Date:      "time",
		},
	}
}

func TestScrapeSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	src := NewScrapeSource(scrapeConfig(srv.URL))
	out, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d records, want untitled entry skipped", len(out))
	}

	hack := out[0]
	if hack.Type != models.TypeHackathon {
		t.Errorf("first entry type = %q, want hackathon", hack.Type)
	}
	wantDeadline := time.Date(2027, 2, 20, 23, 59, 59, 0, time.UTC)
	if !hack.Deadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v from the time element", hack.Deadline, wantDeadline)
	}
	if hack.ApplyURL != srv.URL+"/events/blockchain-hack" {
		t.Errorf("apply url = %q, want absolute link", hack.ApplyURL)
	}
	if hack.Prize != "$5,000" {
		t.Errorf("prize = %q", hack.Prize)
	}
	if hack.Location != "Virtual" {
		t.Errorf("location = %q, want Virtual inferred from 'online'", hack.Location)
	}

	intern := out[1]
	if intern.Type != models.TypeInternship {
		t.Errorf("second entry type = %q, want internship", intern.Type)
	}
	if intern.Deadline.Month() != time.March || intern.Deadline.Year() != 2027 {
		t.Errorf("deadline = %v, want the Mar 15, 2027 date from the body", intern.Deadline)
	}
}

func TestScrapeSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewScrapeSource(scrapeConfig(srv.URL))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected error when the listing page is unreachable")
	}
}
