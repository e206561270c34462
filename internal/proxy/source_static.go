package proxy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// StaticSource serves a single manually configured proxy.
type StaticSource struct {
	Credential Credential
}

func (StaticSource) Name() string { return "manual" }

func (s StaticSource) Load(context.Context) ([]Credential, error) {
	if !s.Credential.usable() {
		return nil, fmt.Errorf("manual proxy: host and port are required")
	}
	return []Credential{s.Credential}, nil
}

// RotatingSource expands a residential gateway account into its numbered
// sub-users: base-1 … base-Count on the same host and port.
type RotatingSource struct {
	Host     string
	Port     int
	Username string
	Password string
	Count    int
}

func (RotatingSource) Name() string { return "rotating" }

func (s RotatingSource) Load(context.Context) ([]Credential, error) {
	if s.Host == "" || s.Port <= 0 {
		return nil, fmt.Errorf("rotating proxy: host and port are required")
	}
	count := s.Count
	if count <= 0 {
		count = 10
	}
	base := BaseUsername(s.Username)
	out := make([]Credential, 0, count)
	for i := 1; i <= count; i++ {
		user := base + "-" + strconv.Itoa(i)
		out = append(out, Credential{
			ID:       user,
			Host:     s.Host,
			Port:     s.Port,
			Username: user,
			Password: s.Password,
		})
	}
	return out, nil
}

// BaseUsername strips a trailing numeric "-N" suffix.
func BaseUsername(username string) string {
	idx := strings.LastIndex(username, "-")
	if idx <= 0 || idx == len(username)-1 {
		return username
	}
	for _, r := range username[idx+1:] {
		if r < '0' || r > '9' {
			return username
		}
	}
	return username[:idx]
}
