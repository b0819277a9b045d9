package ytdlp

import (
	"testing"

	"github.com/elsanchez/vidqueue/internal/domain"
)

func TestParseRawInfo_Example(t *testing.T) {
	line := `{"id":"v1","title":"T","channel":"C","duration":60,"thumbnail":"u","original_url":"o",` +
		`"formats":[{"format_id":"f1","vcodec":"avc1","ext":"mp4","width":1280,"height":720,"fps":30},` +
		`{"format_id":"a1","vcodec":"none","acodec":"aac"}]}`

	info, ok := ParseRawInfo([]byte(line))
	if !ok {
		t.Fatal("expected record to be accepted")
	}

	expected := domain.VideoInfo{
		VideoID:         "v1",
		Title:           "T",
		Author:          "C",
		DurationSeconds: 60,
		ThumbnailURL:    "u",
		SourceURL:       "o",
		Formats: []domain.VideoFormat{
			{FormatID: "f1", Container: "mp4", Width: 1280, Height: 720, FPS: 30},
		},
		AudioAvailable: true,
	}
	if !info.Equal(expected) {
		t.Errorf("ParseRawInfo() = %+v, want %+v", info, expected)
	}
}

func TestParseRawInfo_Defensive(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		ok      bool
		formats int
		audio   bool
		check   func(t *testing.T, info domain.VideoInfo)
	}{
		{
			name: "invalid json",
			line: `{"id": "v1", `,
		},
		{
			name: "not an object",
			line: `[1,2,3]`,
		},
		{
			name: "no formats and no audio",
			line: `{"id":"v1","formats":[{"format_id":"x","vcodec":"none","acodec":"none"}]}`,
		},
		{
			name:  "audio only",
			line:  `{"id":"v1","formats":[{"format_id":"251","vcodec":"none","acodec":"opus"}]}`,
			ok:    true,
			audio: true,
		},
		{
			name:    "missing format_id skipped",
			line:    `{"formats":[{"vcodec":"vp9"},{"format_id":"","vcodec":"vp9"},{"format_id":"ok","vcodec":"vp9"}]}`,
			ok:      true,
			formats: 1,
		},
		{
			name:    "missing or non-string vcodec skipped",
			line:    `{"formats":[{"format_id":"a"},{"format_id":"b","vcodec":5},{"format_id":"c","vcodec":"avc1"}]}`,
			ok:      true,
			formats: 1,
		},
		{
			name:    "wrong types default to zero",
			line:    `{"id":7,"title":null,"duration":"60","formats":[{"format_id":"f","vcodec":"avc1","width":-1,"height":1.5,"fps":"30","ext":3}]}`,
			ok:      true,
			formats: 1,
			check: func(t *testing.T, info domain.VideoInfo) {
				if info.VideoID != "" || info.Title != "" || info.DurationSeconds != 0 {
					t.Errorf("expected zero-valued top level fields, got %+v", info)
				}
				f := info.Formats[0]
				if f.Width != 0 || f.Height != 0 || f.FPS != 0 || f.Container != "" {
					t.Errorf("expected zero-valued format fields, got %+v", f)
				}
			},
		},
		{
			name:    "duration overflow",
			line:    `{"duration":4294967296,"formats":[{"format_id":"f","vcodec":"avc1"}]}`,
			ok:      true,
			formats: 1,
			check: func(t *testing.T, info domain.VideoInfo) {
				if info.DurationSeconds != 0 {
					t.Errorf("expected overflowing duration to default, got %d", info.DurationSeconds)
				}
			},
		},
		{
			name:    "integral float duration",
			line:    `{"duration":212.0,"formats":[{"format_id":"f","vcodec":"avc1","width":1920.0}]}`,
			ok:      true,
			formats: 1,
			check: func(t *testing.T, info domain.VideoInfo) {
				if info.DurationSeconds != 212 || info.Formats[0].Width != 1920 {
					t.Errorf("expected 212s at width 1920, got %d at %d", info.DurationSeconds, info.Formats[0].Width)
				}
			},
		},
		{
			name: "formats not an array",
			line: `{"id":"v1","formats":{"format_id":"f"}}`,
		},
		{
			name:    "order preserved",
			line:    `{"formats":[{"format_id":"low","vcodec":"a"},{"format_id":"high","vcodec":"b"}]}`,
			ok:      true,
			formats: 2,
			check: func(t *testing.T, info domain.VideoInfo) {
				if info.Formats[0].FormatID != "low" || info.Formats[1].FormatID != "high" {
					t.Errorf("format order not preserved: %+v", info.Formats)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := ParseRawInfo([]byte(tt.line))
			if ok != tt.ok {
				t.Fatalf("ParseRawInfo() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if len(info.Formats) != tt.formats {
				t.Errorf("expected %d formats, got %d", tt.formats, len(info.Formats))
			}
			if info.AudioAvailable != tt.audio && tt.formats == 0 {
				t.Errorf("expected audio=%v, got %v", tt.audio, info.AudioAvailable)
			}
			if tt.check != nil {
				tt.check(t, info)
			}
		})
	}
}
