package db

import (
	"strings"
	"testing"
	"time"

	"github.com/launchpadhq/launchpad/internal/models"
)

func TestBuildListClause(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantClause string
		wantArgs   int
	}{
		{
			name:       "defaults hide expired and inactive",
			params:     ListParams{},
			wantClause: "WHERE 1=1 AND is_active AND deadline >= NOW()",
			wantArgs:   0,
		},
		{
			name:       "type filter binds a parameter",
			params:     ListParams{Type: "hackathon"},
			wantClause: "WHERE 1=1 AND is_active AND deadline >= NOW() AND type = $1",
			wantArgs:   1,
		},
		{
			name:       "admin view includes everything",
			params:     ListParams{IncludeExpired: true, IncludeHidden: true},
			wantClause: "WHERE 1=1",
			wantArgs:   0,
		},
		{
			name:       "expired kept but hidden still filtered",
			params:     ListParams{IncludeExpired: true},
			wantClause: "WHERE 1=1 AND is_active",
			wantArgs:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := buildListClause(tt.params)
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestOpportunityInputValidate(t *testing.T) {
	valid := OpportunityInput{
		Title:    "Test Hackathon",
		Type:     models.TypeHackathon,
		Deadline: time.Now().Add(24 * time.Hour),
	}

	if err := valid.validate(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	missingTitle := valid
	missingTitle.Title = "   "
	if err := missingTitle.validate(); err == nil {
		t.Error("blank title accepted")
	}

	badType := valid
	badType.Type = "scholarship"
	if err := badType.validate(); err == nil {
		t.Error("unknown type accepted")
	}

	noDeadline := valid
	noDeadline.Deadline = time.Time{}
	if err := noDeadline.validate(); err == nil {
		t.Error("zero deadline accepted")
	}
}

func TestOpportunityInputNormalized(t *testing.T) {
	in := OpportunityInput{
		Title:       "  Padded Title  ",
		Type:        models.TypeContest,
		Description: `<script>alert(1)</script><p>Legit <b>details</b></p>`,
		Deadline:    time.Now().Add(time.Hour),
	}

	n := in.normalized()
	if n.Title != "Padded Title" {
		t.Errorf("title = %q", n.Title)
	}
	if strings.Contains(n.Description, "<") || strings.Contains(n.Description, "alert") {
		t.Errorf("markup survived sanitization: %q", n.Description)
	}
	if n.Location != "Virtual" {
		t.Errorf("location default not applied: %q", n.Location)
	}
	if n.Tags == nil {
		t.Error("nil tags not replaced with empty slice")
	}
	if in.Description == n.Description {
		t.Error("normalized mutated the caller's input")
	}
}
