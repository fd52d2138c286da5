package test

import (
	"regexp"
	"testing"
	"time"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"Initial Map", "Regenerate Seed", "Determinism", "Broadcast", "Bad Commands"}},
		{"^Determinism$", []string{"Determinism"}},
		{"(?i)map|broad", []string{"Initial Map", "Broadcast"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			var filter *regexp.Regexp
			if tt.pattern != "" {
				filter = regexp.MustCompile(tt.pattern)
			}
			got := Select(filter)
			if len(got) != len(tt.want) {
				t.Fatalf("Select(%q) returned %d scenarios, want %d", tt.pattern, len(got), len(tt.want))
			}
			for i, sc := range got {
				if sc.Name != tt.want[i] {
					t.Errorf("scenario %d = %q, want %q", i, sc.Name, tt.want[i])
				}
			}
		})
	}
}

func TestOptions(t *testing.T) {
	o := Options{BaseSeed: 100}
	if got := o.seed(77); got != 177 {
		t.Errorf("seed(77) = %d, want 177", got)
	}
	if got := o.timeout(); got != DefaultMapTimeout {
		t.Errorf("timeout() = %v, want %v", got, DefaultMapTimeout)
	}
	o.MapTimeout = 2 * time.Second
	if got := o.timeout(); got != 2*time.Second {
		t.Errorf("timeout() = %v, want 2s", got)
	}
}
