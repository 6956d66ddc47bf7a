package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KILLERTIAN/skillchaseBot/internal/bus"
	runtimeworker "github.com/KILLERTIAN/skillchaseBot/internal/channelruntime/worker"
	"github.com/KILLERTIAN/skillchaseBot/internal/healthcheck"
)

type MessageHandler interface {
	// Wants reports whether msg needs handling. It runs on the event loop
	// and must not block.
	Wants(msg bus.Message) bool
	Handle(ctx context.Context, msg bus.Message) error
}

type Dependencies struct {
	Logger  *slog.Logger
	Events  <-chan bus.Event
	Handler MessageHandler
	// Connect starts the platform session once the loop is ready to consume.
	Connect func(ctx context.Context) error
}

func Run(ctx context.Context, d Dependencies, runOpts RunOptions) error {
	if d.Events == nil {
		return fmt.Errorf("event stream is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("message handler is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := resolveRuntimeLoopOptionsFromRunOptions(runOpts)

	healthListen := healthcheck.NormalizeListen(opts.HealthListen)
	if healthListen != "" {
		healthServer, err := healthcheck.StartServer(ctx, logger, healthListen, "whatsapp")
		if err != nil {
			logger.Warn("whatsapp_health_server_start_error", "addr", healthListen, "error", err.Error())
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_ = healthServer.Shutdown(shutdownCtx)
				cancel()
			}()
		}
	}

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	pool, err := runtimeworker.NewPool(workersCtx, runtimeworker.PoolOptions[bus.Message]{
		MaxConcurrency: opts.MaxConcurrency,
		QueueSize:      opts.QueueSize,
		Handle: func(jobCtx context.Context, msg bus.Message) {
			handleMessage(jobCtx, logger, d.Handler, msg)
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		stopWorkers()
		pool.Wait()
	}()

	if d.Connect != nil {
		if err := d.Connect(ctx); err != nil {
			return err
		}
	}

	logger.Info("whatsapp_start",
		"max_concurrency", opts.MaxConcurrency,
		"health_listen", healthListen,
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("whatsapp_stop", "reason", "context_canceled")
			pool.Close()
			return nil
		case ev, ok := <-d.Events:
			if !ok {
				logger.Info("whatsapp_stop", "reason", "event_stream_closed")
				pool.Close()
				pool.Wait()
				return nil
			}
			if ev.Kind == bus.KindMessage {
				if ev.Message == nil || !d.Handler.Wants(*ev.Message) {
					continue
				}
				submitMessage(ctx, logger, pool, ev.ConversationKey, *ev.Message)
				continue
			}
			logLifecycle(logger, ev)
		}
	}
}

func submitMessage(ctx context.Context, logger *slog.Logger, pool *runtimeworker.Pool[bus.Message], key string, msg bus.Message) {
	err := pool.Submit(ctx, key, msg)
	switch {
	case err == nil:
	case errors.Is(err, runtimeworker.ErrQueueFull):
		logger.Warn("whatsapp_enqueue_dropped",
			"conversation_key", key,
			"message_id", msg.ID,
		)
	default:
		logger.Warn("whatsapp_enqueue_error",
			"conversation_key", key,
			"message_id", msg.ID,
			"error", err.Error(),
		)
	}
}

func handleMessage(ctx context.Context, logger *slog.Logger, h MessageHandler, msg bus.Message) {
	if err := h.Handle(ctx, msg); err != nil {
		logger.Error("whatsapp_broadcast_error",
			"chat_id", msg.ChatID,
			"message_id", msg.ID,
			"error", err.Error(),
		)
	}
}

func logLifecycle(logger *slog.Logger, ev bus.Event) {
	switch ev.Kind {
	case bus.KindQR:
		logger.Info("whatsapp_qr_received", "hint", "scan the QR code with WhatsApp on your phone")
	case bus.KindAuthenticated:
		logger.Info("whatsapp_authenticated", "device", ev.Detail)
	case bus.KindReady:
		logger.Info("whatsapp_ready")
	case bus.KindDisconnected:
		logger.Warn("whatsapp_disconnected", "reason", ev.Detail)
	case bus.KindAuthFailure:
		logger.Error("whatsapp_auth_failure", "reason", ev.Detail)
	default:
		logger.Debug("whatsapp_event_ignored", "kind", string(ev.Kind), "event_id", ev.ID)
	}
}
