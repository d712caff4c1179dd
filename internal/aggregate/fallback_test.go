package aggregate

import (
	"testing"
	"time"
)

func TestLoadFallback(t *testing.T) {
	fb, err := LoadFallback()
	if err != nil {
		t.Fatalf("LoadFallback: %v", err)
	}
	if fb.Label == "" {
		t.Error("fallback label is empty")
	}
	if len(fb.Entries) == 0 {
		t.Fatal("fallback table has no entries")
	}
	for _, e := range fb.Entries {
		if e.Title == "" || e.ID == "" {
			t.Errorf("entry %q missing id or title", e.ID)
		}
		if e.Deadline == "" && e.DeadlineInDays <= 0 {
			t.Errorf("entry %q has neither a fixed nor a relative deadline", e.ID)
		}
	}
}

func TestFallbackResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fb := &Fallback{Label: "Curated", Entries: []FallbackEntry{
		{ID: "fixed", Title: "Fixed Date", Type: "hackathon", Deadline: "2026-06-15"},
		{ID: "relative", Title: "Relative Date", Type: "contest", DeadlineInDays: 10},
		{ID: "bad-date", Title: "Broken", Type: "contest", Deadline: "June 15th"},
		{ID: "no-date", Title: "Dateless", Type: "contest"},
	}}

	out := fb.Resolve(now)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2 (unparseable entries skipped)", len(out))
	}

	wantFixed := time.Date(2026, 6, 15, 23, 59, 59, 0, time.UTC)
	if !out[0].Deadline.Equal(wantFixed) {
		t.Errorf("fixed deadline = %v, want end of day %v", out[0].Deadline, wantFixed)
	}
	if !out[1].Deadline.Equal(now.AddDate(0, 0, 10)) {
		t.Errorf("relative deadline = %v, want now+10d", out[1].Deadline)
	}
	for _, o := range out {
		if o.Source != "Curated" {
			t.Errorf("record %q source = %q, want the table label", o.Title, o.Source)
		}
		if o.Location == "" || len(o.Tags) == 0 {
			t.Errorf("record %q missing defaults: location=%q tags=%v", o.Title, o.Location, o.Tags)
		}
	}
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Sources) == 0 {
		t.Fatal("registry has no sources")
	}
	for i := 1; i < len(reg.Sources); i++ {
		if reg.Sources[i-1].Priority > reg.Sources[i].Priority {
			t.Errorf("sources not sorted by priority: %s (%d) before %s (%d)",
				reg.Sources[i-1].ID, reg.Sources[i-1].Priority,
				reg.Sources[i].ID, reg.Sources[i].Priority)
		}
	}
}

func TestBuildSourcesSkipsDisabledAndUnknown(t *testing.T) {
	reg := &Registry{Sources: []SourceConfig{
		{ID: "cf", Name: "Codeforces", Kind: "codeforces", Priority: 1, Enabled: true},
		{ID: "off", Name: "Disabled", Kind: "codechef", Priority: 2, Enabled: false},
		{ID: "mystery", Name: "Unknown", Kind: "carrier-pigeon", Priority: 3, Enabled: true},
		{ID: "scrape", Name: "Scraper", Kind: "html_scrape", Priority: 4, Enabled: true}, // no base_url
	}}
	sources := BuildSources(reg, NewClient(time.Second, 1))

	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Name() != "Codeforces" {
		t.Errorf("kept %q, want Codeforces", sources[0].Name())
	}
}
