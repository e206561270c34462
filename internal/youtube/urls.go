package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	videoIDRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ErrInvalidChannelRef is returned for input that names no channel.
var ErrInvalidChannelRef = errors.New("invalid channel reference")

// RefKind says how a channel reference should be resolved.
type RefKind int

const (
	RefHandle RefKind = iota + 1
	RefChannelID
)

// ChannelRef is a parsed channel URL or identifier.
type ChannelRef struct {
	Kind  RefKind
	Value string
}

// ParseChannelRef accepts @handle, youtube.com/@handle[/...],
// youtube.com/channel/UC... and bare UC... ids.
func ParseChannelRef(raw string) (ChannelRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ChannelRef{}, fmt.Errorf("%w: empty", ErrInvalidChannelRef)
	}
	if channelIDRe.MatchString(s) {
		return ChannelRef{Kind: RefChannelID, Value: s}, nil
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		handle := s[i+1:]
		if j := strings.IndexAny(handle, "/?#"); j >= 0 {
			handle = handle[:j]
		}
		if handle = strings.TrimSpace(handle); handle != "" {
			return ChannelRef{Kind: RefHandle, Value: handle}, nil
		}
	}
	if i := strings.Index(s, "channel/"); i >= 0 {
		id := s[i+len("channel/"):]
		if j := strings.IndexAny(id, "/?#"); j >= 0 {
			id = id[:j]
		}
		if id = strings.TrimSpace(id); id != "" {
			return ChannelRef{Kind: RefChannelID, Value: id}, nil
		}
	}
	return ChannelRef{}, fmt.Errorf("%w: %q", ErrInvalidChannelRef, raw)
}

// ExtractVideoID returns the 11 character id from a watch, short, embed or
// youtu.be URL, or from a bare id.
func ExtractVideoID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if videoIDRe.MatchString(s) {
		return s, true
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live" || parts[0] == "v") {
			id = parts[1]
		}
	}
	if videoIDRe.MatchString(id) {
		return id, true
	}
	return "", false
}
