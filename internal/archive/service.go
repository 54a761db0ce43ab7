package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/models"
	"github.com/newsdesk/ingest-router/internal/routing"
)

// Fetch copies an ingest item into the archive index on the requested desk
// and stage, and returns the id of the new archive item. The original ingest
// item is left untouched so other rules can route it again.
func (s *Store) Fetch(ctx context.Context, req routing.FetchRequest) (string, error) {
	src, err := s.get(ctx, s.ingestIndex, req.ItemID)
	if err != nil {
		return "", fmt.Errorf("load ingest item %s: %w", req.ItemID, err)
	}

	now := time.Now().UTC()
	copyID := uuid.NewString()

	d := *src
	d.Item.ID = copyID
	d.Item.State = req.State
	if d.Item.State == "" {
		d.Item.State = models.StateRouted
	}
	d.Item.Task = &models.Task{Desk: &req.Desk, Stage: &req.Stage}
	d.Item.VersionCreated = now
	if d.Item.FamilyID == "" {
		d.Item.FamilyID = src.Item.ID
	}
	d.Macro = req.Macro
	if len(req.TargetSubscribers) > 0 || len(req.TargetTypes) > 0 {
		d.Target = &target{Subscribers: req.TargetSubscribers, Types: req.TargetTypes}
	}

	if err := s.index(ctx, s.archiveIndex, copyID, d); err != nil {
		return "", err
	}

	s.logger.Debug("fetched item to desk",
		logger.String("item_id", req.ItemID),
		logger.String("archive_id", copyID),
		logger.String("desk", req.Desk.String()),
	)
	return copyID, nil
}

// Get returns an archive item, for default-value inspection before
// publishing.
func (s *Store) Get(ctx context.Context, itemID string) (*models.Item, error) {
	d, err := s.get(ctx, s.archiveIndex, itemID)
	if err != nil {
		return nil, err
	}
	return &d.Item, nil
}

// Patch applies a partial update to an archive item.
func (s *Store) Patch(ctx context.Context, itemID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return s.update(ctx, s.archiveIndex, itemID, fields)
}

// AutoPublish marks an archive item published and pushes the payload to the
// delivery channels. Items with target subscribers go to per-subscriber
// channels, everything else to the default channel.
func (s *Store) AutoPublish(ctx context.Context, itemID string) error {
	d, err := s.get(ctx, s.archiveIndex, itemID)
	if err != nil {
		return fmt.Errorf("load archive item %s: %w", itemID, err)
	}

	fields := map[string]any{
		"state":        models.StatePublished,
		"auto_publish": true,
		"pubstatus":    "usable",
	}
	if err := s.update(ctx, s.archiveIndex, itemID, fields); err != nil {
		return err
	}

	if s.redisClient == nil {
		return nil
	}

	d.Item.State = models.StatePublished
	d.Item.PubStatus = "usable"
	d.AutoPublish = true
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal publish payload for %s: %w", itemID, err)
	}

	channels := []string{defaultPublishChannel}
	if d.Target != nil && len(d.Target.Subscribers) > 0 {
		channels = channels[:0]
		for _, sub := range d.Target.Subscribers {
			channels = append(channels, subscriberChannelPrefix+sub)
		}
	}
	for _, channel := range channels {
		if err := s.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
			return fmt.Errorf("publish item %s to %s: %w", itemID, channel, err)
		}
	}

	s.logger.Info("auto published item",
		logger.String("item_id", itemID),
		logger.Int("channels", len(channels)),
	)
	return nil
}
