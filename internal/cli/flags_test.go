package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/traitstack/pkg/errors"
)

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", in: nil, want: map[string]string{}},
		{name: "adds extension", in: []string{"eyes=e1"}, want: map[string]string{"eyes": "e1.png"}},
		{name: "keeps extension", in: []string{"eyes = e1.png", "hairs=h2.PNG"}, want: map[string]string{"eyes": "e1.png", "hairs": "h2.PNG"}},
		{name: "later wins", in: []string{"eyes=e1", "eyes=e2"}, want: map[string]string{"eyes": "e2.png"}},
		{name: "missing name", in: []string{"eyes="}, wantErr: true},
		{name: "no separator", in: []string{"eyes"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOverrides(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNumbered(t *testing.T) {
	tests := []struct {
		path     string
		n, count int
		want     string
	}{
		{"out/p.png", 1, 1, "out/p.png"},
		{"out/p.png", 2, 3, "out/p-2.png"},
		{"out.d/p", 1, 2, "out.d/p-1"},
	}
	for _, tt := range tests {
		if got := numbered(tt.path, tt.n, tt.count); got != tt.want {
			t.Errorf("numbered(%q, %d, %d) = %q, want %q", tt.path, tt.n, tt.count, got, tt.want)
		}
	}
}
