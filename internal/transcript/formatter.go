package transcript

import (
	"fmt"
	"strings"
	"time"
)

// Format names an output rendering.
type Format string

const (
	FormatTimestamped Format = "timestamped"
	FormatPlain       Format = "plain"
	FormatJSON        Format = "json"
)

// ParseFormat accepts the format names used by the API; empty means timestamped.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTimestamped:
		return FormatTimestamped, nil
	case FormatPlain, "text":
		return FormatPlain, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown transcript format %q", s)
}

// Timestamped renders "[MM:SS] text" lines. Minutes are not wrapped into hours.
func Timestamped(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		total := int(e.Start)
		fmt.Fprintf(&b, "[%02d:%02d] %s", total/60, total%60, e.Text)
	}
	return b.String()
}

// Plain joins entry text with single spaces.
func Plain(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Text
	}
	return strings.Join(parts, " ")
}

// Document is the exported JSON form of a transcript.
type Document struct {
	VideoID      string  `json:"video_id"`
	VideoTitle   string  `json:"video_title"`
	VideoURL     string  `json:"video_url"`
	LanguageCode string  `json:"language_code"`
	IsGenerated  bool    `json:"is_generated"`
	Transcript   []Entry `json:"transcript"`
	CollectedAt  string  `json:"collected_at"`
}

// WatchURL is the canonical watch page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// NewDocument builds the export document. An empty title falls back to the
// title reported by YouTube.
func NewDocument(t *Transcript, title string, collectedAt time.Time) Document {
	if title == "" {
		title = t.Title
	}
	return Document{
		VideoID:      t.VideoID,
		VideoTitle:   title,
		VideoURL:     WatchURL(t.VideoID),
		LanguageCode: t.LanguageCode,
		IsGenerated:  t.IsGenerated,
		Transcript:   t.Entries,
		CollectedAt:  collectedAt.Format(time.RFC3339),
	}
}

// Render returns the text rendering for f; FormatJSON has no text form and
// renders as timestamped.
func Render(entries []Entry, f Format) string {
	if f == FormatPlain {
		return Plain(entries)
	}
	return Timestamped(entries)
}
