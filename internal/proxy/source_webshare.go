package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ytcollector-go/internal/constants"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	webshareDefaultEndpoint = "https://proxy.webshare.io/api/v2"
	webshareMaxPages        = 20
	websharePageSize        = 100
)

// ErrDirectoryAuth is returned when the proxy directory rejects the API key.
var ErrDirectoryAuth = fmt.Errorf("proxy directory rejected api key")

// WebshareSource loads datacenter proxies from the Webshare directory API.
type WebshareSource struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// NewWebshareSource builds a source; an empty endpoint uses the public API.
func NewWebshareSource(apiKey, endpoint string) *WebshareSource {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = webshareDefaultEndpoint
	}
	return &WebshareSource{
		APIKey:   apiKey,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: constants.ProxyDirectoryTimeout},
	}
}

func (s *WebshareSource) Name() string { return "webshare" }

// Load walks every page of the direct-mode proxy list and keeps entries marked valid.
func (s *WebshareSource) Load(ctx context.Context) ([]Credential, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("webshare: %w", ErrDirectoryAuth)
	}
	next := fmt.Sprintf("%s/proxy/list/?mode=direct&page=1&page_size=%d", s.Endpoint, websharePageSize)
	var out []Credential
	for page := 0; next != "" && page < webshareMaxPages; page++ {
		body, err := s.get(ctx, next)
		if err != nil {
			return nil, err
		}
		parsed := gjson.ParseBytes(body)
		if !parsed.Get("results").IsArray() {
			return nil, fmt.Errorf("webshare: unexpected response shape")
		}
		skipped := 0
		parsed.Get("results").ForEach(func(_, item gjson.Result) bool {
			if v := item.Get("valid"); v.Exists() && !v.Bool() {
				skipped++
				return true
			}
			out = append(out, Credential{
				ID:          item.Get("id").String(),
				Host:        item.Get("proxy_address").String(),
				Port:        int(item.Get("port").Int()),
				Username:    item.Get("username").String(),
				Password:    item.Get("password").String(),
				CountryCode: stringOr(item.Get("country_code"), "Unknown"),
				City:        stringOr(item.Get("city_name"), "Unknown"),
			})
			return true
		})
		if skipped > 0 {
			log.WithFields(log.Fields{"source": s.Name(), "skipped": skipped}).Debug("dropped invalid proxies")
		}
		next = s.resolveNext(parsed.Get("next").String())
	}
	return out, nil
}

func (s *WebshareSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.APIKey)
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webshare: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("webshare: read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("webshare: status %d: %w", resp.StatusCode, ErrDirectoryAuth)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("webshare: status %d", resp.StatusCode)
	}
	return body, nil
}

// resolveNext keeps pagination on the configured endpoint host even when the
// API answers with absolute URLs.
func (s *WebshareSource) resolveNext(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		base, err := url.Parse(s.Endpoint + "/")
		if err != nil {
			return ""
		}
		return base.ResolveReference(u).String()
	}
	return next
}

func stringOr(r gjson.Result, def string) string {
	if s := strings.TrimSpace(r.String()); s != "" {
		return s
	}
	return def
}
