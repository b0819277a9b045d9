package domain

import "testing"

func TestCanTransition(t *testing.T) {
	all := []DownloadState{StateAdded, StateQueued, StateDownloading, StateComplete}

	allowed := map[DownloadState][]DownloadState{
		StateAdded:       {StateQueued},
		StateQueued:      {StateAdded, StateDownloading},
		StateDownloading: {StateAdded, StateComplete},
		StateComplete:    {StateAdded, StateQueued},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				if got := from.CanTransition(to); got != want {
					t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
				}
			})
		}
	}
}

func TestParseDownloadState(t *testing.T) {
	tests := []struct {
		input    string
		expected DownloadState
		wantErr  bool
	}{
		{"added", StateAdded, false},
		{"queued", StateQueued, false},
		{"downloading", StateDownloading, false},
		{"complete", StateComplete, false},
		{"failed", StateAdded, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDownloadState(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDownloadState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseDownloadState(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
