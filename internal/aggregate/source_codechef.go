package aggregate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

// CodeChefSource pulls future contests from the CodeChef listing API.
type CodeChefSource struct {
	client *Client
	cfg    SourceConfig
}

func NewCodeChefSource(client *Client, cfg SourceConfig) *CodeChefSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.codechef.com"
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	return &CodeChefSource{client: client, cfg: cfg}
}

func (s *CodeChefSource) Name() string { return s.cfg.Name }

type ccContestList struct {
	Status         string      `json:"status"`
	FutureContests []ccContest `json:"future_contests"`
}

type ccContest struct {
	Code     string `json:"contest_code"`
	Name     string `json:"contest_name"`
	StartISO string `json:"contest_start_date_iso"`
	Duration string `json:"contest_duration"` // minutes, as a string
}

func (s *CodeChefSource) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	var payload ccContestList
	url := s.cfg.BaseURL + "/api/list/contests/all"
	if err := s.client.GetJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("codechef status %q", payload.Status)
	}

	var out []models.Opportunity
	for _, c := range payload.FutureContests {
		if len(out) >= s.cfg.MaxItems {
			break
		}
		start, err := time.Parse(time.RFC3339, c.StartISO)
		if err != nil {
			log.Printf("[codechef] skipping %s: bad start date %q", c.Code, c.StartISO)
			continue
		}
		o := models.Opportunity{
			ID:           "codechef-" + c.Code,
			Title:        c.Name,
			Type:         models.TypeContest,
			Organization: "CodeChef",
			Description:  fmt.Sprintf("CodeChef contest %s. Duration: %s minutes.", c.Code, c.Duration),
			Deadline:     start.UTC(),
			ApplyURL:     s.cfg.BaseURL + "/" + c.Code,
			Prize:        "Rating points & goodies",
			Tags:         []string{"Competitive Programming", "CodeChef"},
			Source:       s.cfg.Name,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	}
	return out, nil
}
