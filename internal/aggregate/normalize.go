package aggregate

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/launchpadhq/launchpad/internal/models"
)

// NormalizeKey reduces a title to its dedup key: lowercase with every
// non-alphanumeric rune stripped. "AI Hackathon 2025" and
// "AI Hackathon 2025!!" collapse to the same key, which is accepted as the
// cost of catching the much more common cross-source near-duplicates.
func NormalizeKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TruncateText shortens s to at most max runes, appending an ellipsis when
// it cuts. Breaks on a space where one is reasonably close to the limit.
func TruncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	runes := []rune(s)
	cut := max
	for i := max; i > max/2; i-- {
		if unicode.IsSpace(runes[i-1]) {
			cut = i - 1
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "..."
}

// HTMLToText strips markup from an HTML fragment and collapses whitespace.
// On parse failure the raw input is returned cleaned, which for the event
// descriptions this handles is close enough.
func HTMLToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanText(fragment)
	}
	return cleanText(doc.Text())
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ApplyDefaults fills the fields the upstream payload commonly omits.
func ApplyDefaults(o *models.Opportunity) {
	o.Title = cleanText(o.Title)
	o.Organization = cleanText(o.Organization)
	if o.Location == "" {
		o.Location = "Virtual"
	}
	if len(o.Tags) == 0 {
		switch o.Type {
		case models.TypeHackathon:
			o.Tags = []string{"Hackathon"}
		case models.TypeInternship:
			o.Tags = []string{"Internship"}
		default:
			o.Tags = []string{"Competitive Programming"}
		}
	}
}
