package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/models"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--store", "memory"}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, errOut.String())
	}
	return out.String()
}

func TestStatusesCommand(t *testing.T) {
	out := run(t, "statuses", "lst-05", "--format", "json")
	var got struct {
		Statuses []models.ListingStatus `json:"statuses"`
		Primary  models.ListingStatus   `json:"primary_status"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Primary != models.StatusSold {
		t.Fatalf("primary: %s", got.Primary)
	}
}

func TestShowTable(t *testing.T) {
	out := run(t, "show", "lst-03", "--format", "table")
	for _, want := range []string{"Vintage floral midi dress", "hidden", "critical", "percent=30"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output lacks %q:\n%s", want, out)
		}
	}
}

func TestListingsFilter(t *testing.T) {
	out := run(t, "listings", "--category", "tops", "--format", "json")
	var views []listing.View
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("tops: got %d", len(views))
	}
}

func TestFormatData(t *testing.T) {
	got := formatData(map[string]any{"percent": 30, "days": 21})
	if got != "days=21 percent=30" {
		t.Fatalf("got %q", got)
	}
	if formatData(nil) != "" {
		t.Fatalf("nil data should render empty")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"Nike Tech Fleece hoodie", 10, "Nike Te..."},
		{"Écharpe", 3, "Éch"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRulesCommand(t *testing.T) {
	out := run(t, "rules", "--format", "json")
	var got struct {
		Rules []struct {
			Type string `json:"type"`
		} `json:"rules"`
		Thresholds struct {
			MinPhotos int `json:"min_photos"`
		} `json:"thresholds"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Rules) != 8 || got.Rules[0].Type != "photos" || got.Thresholds.MinPhotos != 5 {
		t.Fatalf("rules output: %+v", got)
	}
}
