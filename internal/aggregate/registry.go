package aggregate

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all live data sources.
//
// Source priority is explicit here: the pipeline queries and merges in
// ascending priority order, so "first seen wins" during dedup is a named
// policy, not an accident of concatenation. The database subset is always
// merged first and the static fallback always last, regardless of what the
// registry says.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig tunes how a source hits its upstream.
type FetchConfig struct {
	RateLimitRPS float64 `yaml:"rate_limit_rps,omitempty"` // requests per second, default 1.0
}

// SourceConfig defines a single live source.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"` // "codeforces", "codechef", "hackerearth", "kontests", "html_scrape"
	BaseURL  string `yaml:"base_url,omitempty"`
	Priority int    `yaml:"priority"`
	MaxItems int    `yaml:"max_items,omitempty"`
	Enabled  bool   `yaml:"enabled"`

	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// For the html_scrape kind
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
}

// SelectorConfig drives the generic HTML scraping source.
type SelectorConfig struct {
	Container string `yaml:"container,omitempty"` // CSS selector for the list item wrapper
	Link      string `yaml:"link,omitempty"`
	LinkAttr  string `yaml:"link_attr,omitempty"` // Attribute to extract link from (default: href)
	Title     string `yaml:"title,omitempty"`
	Date      string `yaml:"date,omitempty"`
	Content   string `yaml:"content,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml and returns a Registry with
// sources sorted by ascending priority. Environment variables in the YAML
// (e.g. ${SCRAPE_BASE_URL}) are expanded before parsing.
func LoadRegistry() (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded sources.yaml: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parsing sources.yaml: %w", err)
	}

	sort.SliceStable(reg.Sources, func(i, j int) bool {
		return reg.Sources[i].Priority < reg.Sources[j].Priority
	})

	return &reg, nil
}

// BuildSources instantiates the enabled sources in registry priority order.
// Unknown kinds are skipped so a stale registry entry never breaks startup.
func BuildSources(reg *Registry, client *Client) []Source {
	var sources []Source
	for _, cfg := range reg.Sources {
		if !cfg.Enabled {
			continue
		}
		if cfg.Fetch.RateLimitRPS > 0 && cfg.BaseURL != "" {
			client.SetHostRate(cfg.BaseURL, cfg.Fetch.RateLimitRPS)
		}
		switch cfg.Kind {
		case "codeforces":
			sources = append(sources, NewCodeforcesSource(client, cfg))
		case "codechef":
			sources = append(sources, NewCodeChefSource(client, cfg))
		case "hackerearth":
			sources = append(sources, NewHackerEarthSource(client, cfg))
		case "kontests":
			sources = append(sources, NewKontestsSource(client, cfg))
		case "html_scrape":
			if cfg.BaseURL != "" {
				sources = append(sources, NewScrapeSource(cfg))
			}
		}
	}
	return sources
}
