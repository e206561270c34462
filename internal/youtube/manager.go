package youtube

import (
	"context"
	"fmt"

	"ytcollector-go/internal/constants"

	log "github.com/sirupsen/logrus"
)

// ChannelManager resolves user input to channels.
type ChannelManager struct {
	client *Client
}

// NewChannelManager wraps client.
func NewChannelManager(client *Client) *ChannelManager {
	return &ChannelManager{client: client}
}

// Client returns the underlying Data API client.
func (m *ChannelManager) Client() *Client { return m.client }

// GetChannelByURL resolves a channel URL, @handle or channel id. Handles are
// looked up through search and the best match is returned in full.
func (m *ChannelManager) GetChannelByURL(ctx context.Context, raw string) (*ChannelInfo, error) {
	ref, err := ParseChannelRef(raw)
	if err != nil {
		return nil, err
	}
	switch ref.Kind {
	case RefChannelID:
		return m.client.GetChannelInfo(ctx, ref.Value)
	default:
		hits, err := m.client.SearchChannels(ctx, ref.Value, constants.DefaultSearchLimit)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return nil, fmt.Errorf("%w: @%s", ErrChannelNotFound, ref.Value)
		}
		log.WithFields(log.Fields{"handle": ref.Value, "channel_id": hits[0].ChannelID}).Debug("resolved channel handle")
		return m.client.GetChannelInfo(ctx, hits[0].ChannelID)
	}
}

// SearchAndSelect searches for q. With autoSelect the first hit is expanded to
// a full ChannelInfo; otherwise the hits are returned as-is.
func (m *ChannelManager) SearchAndSelect(ctx context.Context, q string, autoSelect bool) (*ChannelInfo, []ChannelSummary, error) {
	hits, err := m.client.SearchChannels(ctx, q, constants.DefaultSearchLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrChannelNotFound, q)
	}
	if !autoSelect {
		return nil, hits, nil
	}
	info, err := m.client.GetChannelInfo(ctx, hits[0].ChannelID)
	if err != nil {
		return nil, hits, err
	}
	return info, hits, nil
}
