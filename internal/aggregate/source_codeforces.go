package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

// CodeforcesSource pulls upcoming rounds from the public Codeforces API.
type CodeforcesSource struct {
	client *Client
	cfg    SourceConfig
	now    func() time.Time
}

func NewCodeforcesSource(client *Client, cfg SourceConfig) *CodeforcesSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://codeforces.com/api"
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	return &CodeforcesSource{client: client, cfg: cfg, now: time.Now}
}

func (s *CodeforcesSource) Name() string { return s.cfg.Name }

type cfContestList struct {
	Status string      `json:"status"`
	Result []cfContest `json:"result"`
}

type cfContest struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Phase            string `json:"phase"`
	DurationSeconds  int64  `json:"durationSeconds"`
	StartTimeSeconds int64  `json:"startTimeSeconds"`
}

func (s *CodeforcesSource) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	var payload cfContestList
	url := s.cfg.BaseURL + "/contest.list?gym=false"
	if err := s.client.GetJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, fmt.Errorf("codeforces status %q", payload.Status)
	}

	now := s.now()
	var out []models.Opportunity
	for _, c := range payload.Result {
		if len(out) >= s.cfg.MaxItems {
			break
		}
		start := time.Unix(c.StartTimeSeconds, 0).UTC()
		if c.Phase != "BEFORE" || !start.After(now) {
			continue
		}
		o := models.Opportunity{
			ID:           fmt.Sprintf("codeforces-%d", len(out)),
			Title:        c.Name,
			Type:         models.TypeContest,
			Organization: "Codeforces",
			Description: fmt.Sprintf("%s rated contest, %s long. Compete against programmers worldwide.",
				c.Type, formatDuration(time.Duration(c.DurationSeconds)*time.Second)),
			Deadline: start,
			ApplyURL: fmt.Sprintf("https://codeforces.com/contest/%d", c.ID),
			Prize:    "Rating points",
			Tags:     []string{"Competitive Programming", "Algorithms"},
			Source:   s.cfg.Name,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	}
	return out, nil
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
