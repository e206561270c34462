package transcript

import "regexp"

// Entry is one caption line.
type Entry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Track describes one caption track offered for a video.
type Track struct {
	LanguageCode string `json:"language_code"`
	Language     string `json:"language"`
	Generated    bool   `json:"is_generated"`
	BaseURL      string `json:"-"`
}

// Transcript is a fetched caption track with its entries.
type Transcript struct {
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title,omitempty"`
	LanguageCode string  `json:"language_code"`
	Language     string  `json:"language,omitempty"`
	IsGenerated  bool    `json:"is_generated"`
	Entries      []Entry `json:"transcript"`
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id has the shape of a YouTube video id.
func ValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}
