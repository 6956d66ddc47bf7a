package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultBatchSize = 500
	DefaultDelay     = time.Second

	MentionText = "@everyone"
)

// Group is the chat being broadcast to.
type Group interface {
	// Participants returns member identities in platform order.
	Participants(ctx context.Context) ([]string, error)
	SendMentions(ctx context.Context, text string, mentions []string) error
}

type Controller struct {
	BatchSize int
	Delay     time.Duration
	// Sleep waits between batches. Nil uses a context-aware timer.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

func New(batchSize int, delay time.Duration, logger *slog.Logger) *Controller {
	return &Controller{BatchSize: batchSize, Delay: delay, Logger: logger}
}

// Plan splits ids into consecutive batches of at most size entries.
func Plan(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batch := make([]string, end-start)
		copy(batch, ids[start:end])
		batches = append(batches, batch)
	}
	return batches
}

// Broadcast sends one mention message per batch and pauses between
// batches. The first send error stops the run and is returned as is.
func (c *Controller) Broadcast(ctx context.Context, group Group) error {
	if group == nil {
		return fmt.Errorf("group is required")
	}
	ids, err := group.Participants(ctx)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	batches := Plan(ids, c.batchSize())
	logger := c.logger()
	logger.Info("broadcast_start", "participants", len(ids), "batches", len(batches))

	for i, batch := range batches {
		if i > 0 {
			if err := c.sleep(ctx, c.delay()); err != nil {
				return err
			}
		}
		if err := group.SendMentions(ctx, MentionText, batch); err != nil {
			return err
		}
		logger.Debug("broadcast_batch_sent", "batch", i+1, "of", len(batches), "mentions", len(batch))
	}
	logger.Info("broadcast_done", "participants", len(ids), "batches", len(batches))
	return nil
}

func (c *Controller) batchSize() int {
	if c == nil || c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

func (c *Controller) delay() time.Duration {
	if c == nil || c.Delay < 0 {
		return DefaultDelay
	}
	return c.Delay
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c != nil && c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (c *Controller) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
