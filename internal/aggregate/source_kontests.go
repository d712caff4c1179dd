package aggregate

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

// kontestsSiteOrgs maps the aggregator's site labels onto organization names.
var kontestsSiteOrgs = map[string]string{
	"CodeForces":            "Codeforces",
	"CodeForces::Gym":       "Codeforces",
	"CodeChef":              "CodeChef",
	"AtCoder":               "AtCoder",
	"LeetCode":              "LeetCode",
	"HackerRank":            "HackerRank",
	"HackerEarth":           "HackerEarth",
	"TopCoder":              "TopCoder",
	"Kick Start":            "Google",
	"CS Academy":            "CS Academy",
	"Toph":                  "Toph",
	"Yukicoder":             "Yukicoder",
}

// KontestsSource pulls the cross-site contest feed from a Kontests-style
// aggregator API.
type KontestsSource struct {
	client *Client
	cfg    SourceConfig
	now    func() time.Time
}

func NewKontestsSource(client *Client, cfg SourceConfig) *KontestsSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://kontests.net"
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 15
	}
	return &KontestsSource{client: client, cfg: cfg, now: time.Now}
}

func (s *KontestsSource) Name() string { return s.cfg.Name }

type kontestsEntry struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  string `json:"duration"` // seconds, as a string
	Site      string `json:"site"`
	Status    string `json:"status"` // "BEFORE" or "CODING"
}

func (s *KontestsSource) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	var entries []kontestsEntry
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"/api/v1/all", &entries); err != nil {
		return nil, err
	}

	now := s.now()
	var out []models.Opportunity
	for i, e := range entries {
		if len(out) >= s.cfg.MaxItems {
			break
		}
		if e.Name == "" || e.URL == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, e.StartTime)
		if err != nil {
			log.Printf("[kontests] skipping %q: bad start time %q", e.Name, e.StartTime)
			continue
		}
		start = start.UTC()
		if e.Status != "BEFORE" && !start.After(now) {
			continue
		}

		org := kontestsSiteOrgs[e.Site]
		if org == "" {
			org = e.Site
		}

		desc := "Upcoming contest on " + org + "."
		if secs, err := strconv.ParseFloat(e.Duration, 64); err == nil && secs > 0 {
			desc = "Upcoming contest on " + org + ". Duration: " +
				formatDuration(time.Duration(secs)*time.Second) + "."
		}

		o := models.Opportunity{
			ID:           "contest-" + strconv.Itoa(i),
			Title:        e.Name,
			Type:         models.TypeContest,
			Organization: org,
			Description:  desc,
			Deadline:     start,
			ApplyURL:     e.URL,
			Tags:         []string{"Competitive Programming", org},
			Source:       s.cfg.Name,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	}
	return out, nil
}
