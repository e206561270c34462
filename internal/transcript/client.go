package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/proxy"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	defaultBaseURL         = "https://www.youtube.com"
	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
	maxBodyBytes           = 16 << 20
)

var (
	apiKeyRe    = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([a-zA-Z0-9_-]+)"`)
	consentRe   = regexp.MustCompile(`name="v" value="(.*?)"`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	botReasonRe = regexp.MustCompile(`(?i)not a bot`)
)

// Client retrieves captions through the public watch page and innertube
// player endpoint. Every call builds its own transport so each attempt
// leaves through the credential it was given.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout bounds a whole fetch through one credential.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient returns a client for www.youtube.com.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) httpClient(cred proxy.Credential) *http.Client {
	tr := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: constants.ProxyDialTimeout}).DialContext,
		TLSHandshakeTimeout:   constants.ProxyTLSHandshakeTimeout,
		ResponseHeaderTimeout: constants.ProxyResponseHeaderWait,
		DisableKeepAlives:     true,
	}
	if !cred.IsZero() {
		tr.Proxy = http.ProxyURL(cred.URL())
	}
	return &http.Client{Transport: tr, Timeout: c.timeout}
}

// ListTracks returns the caption tracks available for videoID.
func (c *Client) ListTracks(ctx context.Context, cred proxy.Credential, videoID string) ([]Track, error) {
	if !ValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}
	hc := c.httpClient(cred)
	defer hc.CloseIdleConnections()
	tracks, _, _, err := c.tracks(ctx, hc, videoID)
	return tracks, err
}

// Fetch downloads the best matching transcript. Languages are tried in order,
// manual tracks before generated ones; without a match any track is used
// unless strict is set.
func (c *Client) Fetch(ctx context.Context, cred proxy.Credential, videoID string, languages []string, strict bool) (*Transcript, error) {
	if !ValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}
	hc := c.httpClient(cred)
	defer hc.CloseIdleConnections()

	tracks, title, cookie, err := c.tracks(ctx, hc, videoID)
	if err != nil {
		return nil, err
	}
	track, err := PickTrack(tracks, languages, strict)
	if err != nil {
		return nil, err
	}
	entries, err := c.timedText(ctx, hc, track.BaseURL, cookie)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		VideoID:      videoID,
		Title:        title,
		LanguageCode: track.LanguageCode,
		Language:     track.Language,
		IsGenerated:  track.Generated,
		Entries:      entries,
	}, nil
}

// PickTrack chooses a track for the preferred languages.
func PickTrack(tracks []Track, languages []string, strict bool) (Track, error) {
	if len(tracks) == 0 {
		return Track{}, ErrTranscriptsDisabled
	}
	for _, lang := range languages {
		var generated *Track
		for i := range tracks {
			if !strings.EqualFold(tracks[i].LanguageCode, lang) {
				continue
			}
			if !tracks[i].Generated {
				return tracks[i], nil
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated, nil
		}
	}
	if strict && len(languages) > 0 {
		return Track{}, fmt.Errorf("%w for languages %s", ErrNoTranscriptFound, strings.Join(languages, ","))
	}
	for _, t := range tracks {
		if !t.Generated {
			return t, nil
		}
	}
	return tracks[0], nil
}

func (c *Client) tracks(ctx context.Context, hc *http.Client, videoID string) ([]Track, string, string, error) {
	page, cookie, err := c.watchPage(ctx, hc, videoID)
	if err != nil {
		return nil, "", "", err
	}
	apiKey, err := extractAPIKey(page)
	if err != nil {
		return nil, "", "", err
	}
	player, err := c.player(ctx, hc, apiKey, videoID, cookie)
	if err != nil {
		return nil, "", "", err
	}
	if err := checkPlayability(player); err != nil {
		return nil, "", "", err
	}

	list := player.Get("captions.playerCaptionsTracklistRenderer.captionTracks")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil, "", "", ErrTranscriptsDisabled
	}
	var tracks []Track
	list.ForEach(func(_, t gjson.Result) bool {
		base := t.Get("baseUrl").String()
		if base == "" {
			return true
		}
		name := t.Get("name.simpleText").String()
		if name == "" {
			name = t.Get("name.runs.0.text").String()
		}
		tracks = append(tracks, Track{
			LanguageCode: t.Get("languageCode").String(),
			Language:     name,
			Generated:    strings.TrimSpace(t.Get("kind").String()) == "asr",
			BaseURL:      base,
		})
		return true
	})
	if len(tracks) == 0 {
		return nil, "", "", ErrTranscriptsDisabled
	}
	return tracks, player.Get("videoDetails.title").String(), cookie, nil
}

func (c *Client) watchPage(ctx context.Context, hc *http.Client, videoID string) (string, string, error) {
	pageURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := c.get(ctx, hc, "watch", pageURL, "")
	if err != nil {
		return "", "", err
	}
	if !strings.Contains(body, `action="https://consent.youtube.com/s"`) {
		return body, "", nil
	}
	m := consentRe.FindStringSubmatch(body)
	if len(m) != 2 {
		return "", "", fmt.Errorf("watch: failed to create consent cookie")
	}
	cookie := "CONSENT=YES+" + m[1]
	body, err = c.get(ctx, hc, "watch", pageURL, cookie)
	if err != nil {
		return "", "", err
	}
	if strings.Contains(body, `action="https://consent.youtube.com/s"`) {
		return "", "", fmt.Errorf("watch: consent cookie rejected")
	}
	return body, cookie, nil
}

func extractAPIKey(page string) (string, error) {
	if m := apiKeyRe.FindStringSubmatch(page); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(page, `class="g-recaptcha"`) {
		return "", fmt.Errorf("watch: captcha served: %w", ErrRequestBlocked)
	}
	return "", fmt.Errorf("watch: could not extract INNERTUBE_API_KEY")
}

func (c *Client) player(ctx context.Context, hc *http.Client, apiKey, videoID, cookie string) (gjson.Result, error) {
	payload, _ := sjson.SetBytes(nil, "context.client.clientName", innertubeClientName)
	payload, _ = sjson.SetBytes(payload, "context.client.clientVersion", innertubeClientVersion)
	payload, _ = sjson.SetBytes(payload, "videoId", videoID)

	endpoint := c.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return gjson.Result{}, err
	}
	c.decorate(req, cookie)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(hc, "player", req)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("player: invalid json response")
	}
	return gjson.ParseBytes(body), nil
}

func checkPlayability(player gjson.Result) error {
	status := player.Get("playabilityStatus.status").String()
	reason := player.Get("playabilityStatus.reason").String()
	switch status {
	case "", "OK":
		return nil
	case "ERROR":
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	case "LOGIN_REQUIRED":
		if botReasonRe.MatchString(reason) {
			return fmt.Errorf("player: %s: %w", reason, ErrRequestBlocked)
		}
		if strings.Contains(strings.ToLower(reason), "inappropriate") || strings.Contains(strings.ToLower(reason), "age") {
			return fmt.Errorf("%w: %s", ErrAgeRestricted, reason)
		}
		return fmt.Errorf("%w: %s", ErrVideoUnplayable, reason)
	default:
		return fmt.Errorf("%w: %s %s", ErrVideoUnplayable, status, reason)
	}
}

func (c *Client) timedText(ctx context.Context, hc *http.Client, baseURL, cookie string) ([]Entry, error) {
	if u, err := url.Parse(baseURL); err == nil {
		q := u.Query()
		if q.Get("fmt") == "srv3" {
			q.Del("fmt")
			u.RawQuery = q.Encode()
			baseURL = u.String()
		}
	}
	body, err := c.get(ctx, hc, "timedtext", baseURL, cookie)
	if err != nil {
		return nil, err
	}
	return ParseTimedText([]byte(body))
}

// ParseTimedText decodes timedtext XML, unescaping entities and dropping markup.
func ParseTimedText(data []byte) ([]Entry, error) {
	var doc struct {
		Texts []struct {
			Start string `xml:"start,attr"`
			Dur   string `xml:"dur,attr"`
			Body  string `xml:",innerxml"`
		} `xml:"text"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}
	out := make([]Entry, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := cleanText(t.Body)
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(strings.TrimSpace(t.Start), 64)
		dur, _ := strconv.ParseFloat(strings.TrimSpace(t.Dur), 64)
		out = append(out, Entry{Text: text, Start: start, Duration: dur})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("timedtext: %w: empty track", ErrNoTranscriptFound)
	}
	return out, nil
}

// cleanText unescapes twice because timedtext bodies are entity-encoded
// inside the XML text node.
func cleanText(s string) string {
	s = html.UnescapeString(html.UnescapeString(s))
	s = tagRe.ReplaceAllString(strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ").Replace(s), "")
	return strings.Join(strings.Fields(s), " ")
}

func (c *Client) get(ctx context.Context, hc *http.Client, stage, rawURL, cookie string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	c.decorate(req, cookie)
	body, err := c.do(hc, stage, req)
	return string(body), err
}

func (c *Client) decorate(req *http.Request, cookie string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", constants.AcceptLanguage)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
}

func (c *Client) do(hc *http.Client, stage string, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", stage, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: status 429: %w", stage, ErrRequestBlocked)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Stage: stage, Code: resp.StatusCode}
	}
	return body, nil
}
