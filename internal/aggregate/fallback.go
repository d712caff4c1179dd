package aggregate

import (
	"embed"
	"fmt"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed config/fallback.yaml
var fallbackYAML embed.FS

// FallbackEntry is one curated record in the static safety-net table.
// Exactly one of Deadline (a calendar date, resolved to end of day UTC) or
// DeadlineInDays (relative to the run instant) should be set.
type FallbackEntry struct {
	ID             string   `yaml:"id"`
	Title          string   `yaml:"title"`
	Type           string   `yaml:"type"`
	Organization   string   `yaml:"organization"`
	Description    string   `yaml:"description"`
	Deadline       string   `yaml:"deadline,omitempty"` // "2006-01-02"
	DeadlineInDays int      `yaml:"deadline_in_days,omitempty"`
	ApplyURL       string   `yaml:"apply_url"`
	Location       string   `yaml:"location,omitempty"`
	Prize          string   `yaml:"prize,omitempty"`
	Tags           []string `yaml:"tags,omitempty"`
}

// Fallback is the curated table appended after every live source. It is
// pure configuration: changing the safety net means editing YAML, not code.
type Fallback struct {
	Label   string          `yaml:"label"`
	Entries []FallbackEntry `yaml:"entries"`
}

// LoadFallback parses the embedded fallback table.
func LoadFallback() (*Fallback, error) {
	data, err := fallbackYAML.ReadFile("config/fallback.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded fallback.yaml: %w", err)
	}
	var fb Fallback
	if err := yaml.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("parsing fallback.yaml: %w", err)
	}
	if fb.Label == "" {
		fb.Label = "Curated"
	}
	return &fb, nil
}

// Resolve materializes the table against the given instant. Entries with a
// fixed date already in the past are kept here and removed later by the
// pipeline's uniform deadline filter.
func (fb *Fallback) Resolve(now time.Time) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(fb.Entries))
	for _, e := range fb.Entries {
		var deadline time.Time
		switch {
		case e.Deadline != "":
			d, err := time.Parse("2006-01-02", e.Deadline)
			if err != nil {
				continue
			}
			deadline = toEndOfDay(d)
		case e.DeadlineInDays > 0:
			deadline = now.AddDate(0, 0, e.DeadlineInDays)
		default:
			continue
		}

		o := models.Opportunity{
			ID:           e.ID,
			Title:        e.Title,
			Type:         models.OpportunityType(e.Type),
			Organization: e.Organization,
			Description:  e.Description,
			Deadline:     deadline,
			ApplyURL:     e.ApplyURL,
			Location:     e.Location,
			Prize:        e.Prize,
			Tags:         e.Tags,
			Source:       fb.Label,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	}
	return out
}

func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
