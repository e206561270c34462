package proxy

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Credential is one proxy endpoint with its authentication. Values are
// immutable once loaded and are handed out by copy.
type Credential struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	City        string `json:"city,omitempty"`
}

// IsZero reports whether c is the empty credential used for direct connections.
func (c Credential) IsZero() bool {
	return c.Host == "" && c.Port == 0
}

// Addr returns host:port.
func (c Credential) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL renders the credential as an http proxy URL.
func (c Credential) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: c.Addr()}
	if c.Username != "" || c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u
}

// Redacted is safe for logs.
func (c Credential) Redacted() string {
	if c.IsZero() {
		return "direct"
	}
	if c.Username == "" {
		return c.Addr()
	}
	return fmt.Sprintf("%s@%s", c.Username, c.Addr())
}

func (c Credential) key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Username + "@" + c.Addr()
}

func (c Credential) usable() bool {
	return c.Host != "" && c.Port > 0 && c.Port <= 65535
}

// sanitize drops unusable entries and duplicates while keeping source order.
func sanitize(in []Credential) []Credential {
	out := make([]Credential, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		if !c.usable() {
			continue
		}
		if c.ID == "" {
			c.ID = c.key()
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
