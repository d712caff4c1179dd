package aggregate

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

// HackerEarthSource pulls upcoming challenges from the HackerEarth events
// API. Entries are classified as hackathons or contests by keyword since the
// upstream challenge_type field is not always populated.
type HackerEarthSource struct {
	client *Client
	cfg    SourceConfig
}

func NewHackerEarthSource(client *Client, cfg SourceConfig) *HackerEarthSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.hackerearth.com"
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	return &HackerEarthSource{client: client, cfg: cfg}
}

func (s *HackerEarthSource) Name() string { return s.cfg.Name }

type heEventList struct {
	Response []heEvent `json:"response"`
}

type heEvent struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	URL           string `json:"url"`
	ChallengeType string `json:"challenge_type"`
	EndTZ         string `json:"end_tz"` // RFC3339-ish end timestamp
}

func (s *HackerEarthSource) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	var payload heEventList
	url := s.cfg.BaseURL + "/api/events/upcoming/"
	if err := s.client.GetJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	var out []models.Opportunity
	for i, ev := range payload.Response {
		if len(out) >= s.cfg.MaxItems {
			break
		}
		if ev.Title == "" || ev.URL == "" {
			continue
		}
		end, err := parseHackerEarthTime(ev.EndTZ)
		if err != nil {
			log.Printf("[hackerearth] skipping %q: bad end time %q", ev.Title, ev.EndTZ)
			continue
		}

		kind := models.TypeContest
		tags := []string{"Competitive Programming", "HackerEarth"}
		if strings.Contains(strings.ToLower(ev.ChallengeType), "hackathon") ||
			strings.Contains(strings.ToLower(ev.URL), "hackathon") {
			kind = models.TypeHackathon
			tags = []string{"Hackathon", "HackerEarth"}
		}

		o := models.Opportunity{
			ID:           "hackerearth-" + strconv.Itoa(i),
			Title:        ev.Title,
			Type:         kind,
			Organization: "HackerEarth",
			Description:  TruncateText(HTMLToText(ev.Description), 150),
			Deadline:     end,
			ApplyURL:     ev.URL,
			Location:     "Virtual / India",
			Tags:         tags,
			Source:       s.cfg.Name,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	}
	return out, nil
}

// parseHackerEarthTime accepts the handful of timestamp layouts this API has
// been observed to emit.
func parseHackerEarthTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
