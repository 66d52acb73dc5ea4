package source

import (
	"path/filepath"
	"testing"
)

func TestLocalPathFor(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "https url",
			url:  "https://github.com/someone/decks.git",
			want: filepath.Join("repos", "github.com", "someone", "decks"),
		},
		{
			name: "https without suffix",
			url:  "https://gitlab.com/team/cards",
			want: filepath.Join("repos", "gitlab.com", "team", "cards"),
		},
		{
			name: "scp style",
			url:  "git@github.com:someone/decks.git",
			want: filepath.Join("repos", "github.com", "someone/decks"),
		},
		{
			name:    "garbage",
			url:     "not a url at all",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := localPathFor("repos", tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("localPathFor(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
