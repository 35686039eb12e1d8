// Package registry reconciles the externally managed channel list against the
// stored channel set: new ids are activated, removed ids are frozen together
// with all of their videos. Freezing is monotonic and never reversed here.
package registry

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/core/domain"
)

type Repository interface {
	ListActiveChannels(ctx context.Context) ([]domain.Channel, error)
	AddChannel(ctx context.Context, id string) error
	FreezeChannel(ctx context.Context, id string) error
	FreezeVideosByChannel(ctx context.Context, channelID string) error
}

type Registry struct {
	repo   Repository
	logger *zerolog.Logger
}

func New(repo Repository, logger *zerolog.Logger) *Registry {
	return &Registry{repo: repo, logger: logger}
}

// LoadChannelList reads the channel id file, one id per line. Blank lines and
// surrounding whitespace are ignored; duplicates collapse to one entry.
func LoadChannelList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channel list: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})

	var ids []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read channel list: %w", err)
	}

	return ids, nil
}

// Reconcile converges stored channels to the external id set. Active channels
// missing from the set are frozen along with their videos; unknown ids are
// created active. Ids already present and active are untouched, so repeated
// runs with the same list are no-ops.
func (r *Registry) Reconcile(ctx context.Context, externalIDs []string) error {
	wanted := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		wanted[id] = struct{}{}
	}

	active, err := r.repo.ListActiveChannels(ctx)
	if err != nil {
		return fmt.Errorf("list active channels: %w", err)
	}

	stored := make(map[string]struct{}, len(active))

	for _, channel := range active {
		stored[channel.ID] = struct{}{}

		if _, ok := wanted[channel.ID]; ok {
			continue
		}

		if err := r.repo.FreezeChannel(ctx, channel.ID); err != nil {
			return fmt.Errorf("freeze channel %s: %w", channel.ID, err)
		}

		if err := r.repo.FreezeVideosByChannel(ctx, channel.ID); err != nil {
			return fmt.Errorf("freeze videos of channel %s: %w", channel.ID, err)
		}

		r.logger.Info().Str("channel_id", channel.ID).Msg("Channel removed from list, frozen with its videos")
	}

	for _, id := range externalIDs {
		if _, ok := stored[id]; ok {
			continue
		}

		if err := r.repo.AddChannel(ctx, id); err != nil {
			return fmt.Errorf("add channel %s: %w", id, err)
		}

		r.logger.Info().Str("channel_id", id).Msg("New channel tracked")
	}

	return nil
}
