package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KILLERTIAN/skillchaseBot/internal/broadcast"
	"github.com/KILLERTIAN/skillchaseBot/internal/bus"
	"github.com/KILLERTIAN/skillchaseBot/internal/channelruntime/whatsapp"
	"github.com/KILLERTIAN/skillchaseBot/internal/configutil"
	"github.com/KILLERTIAN/skillchaseBot/internal/dispatch"
	"github.com/KILLERTIAN/skillchaseBot/internal/healthcheck"
	"github.com/KILLERTIAN/skillchaseBot/internal/logutil"
	"github.com/KILLERTIAN/skillchaseBot/internal/statepaths"
	"github.com/KILLERTIAN/skillchaseBot/internal/whatsappclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWhatsAppCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whatsapp",
		Short: "Run the WhatsApp bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWhatsApp(ctx, cmd, logger)
		},
	}

	cmd.Flags().String("session-db", "", "WhatsApp session database (relative paths live under file_state_dir).")
	cmd.Flags().Int("max-concurrency", 4, "Max messages handled at once.")
	cmd.Flags().Int("queue-size", 16, "Pending commands kept per chat before new ones are dropped.")
	cmd.Flags().Bool("qr-terminal", true, "Render pairing QR codes in the terminal.")
	cmd.Flags().String("server-bind", "", "Health listener bind address (all interfaces when empty).")
	cmd.Flags().Int("server-port", 3000, "Health listener port (also PORT env); 0 disables it.")
	_ = viper.BindPFlag("whatsapp.session_db", cmd.Flags().Lookup("session-db"))
	return cmd
}

func runWhatsApp(ctx context.Context, cmd *cobra.Command, logger *slog.Logger) error {
	events, err := bus.NewInproc(bus.InprocOptions{MaxInFlight: viper.GetInt("bus.max_in_flight")})
	if err != nil {
		return err
	}
	defer events.Close()

	r, err := responderFromViper(ctx, logger)
	if err != nil {
		return err
	}

	client, err := whatsappclient.Open(ctx, whatsappclient.Options{
		SessionPath: statepaths.WhatsAppSessionPath(),
		Publisher:   events,
		Logger:      logger,
		QRTerminal:  configutil.FlagOrViperBool(cmd, "qr-terminal", "whatsapp.qr_terminal"),
		QRWriter:    os.Stdout,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	controller := broadcast.New(
		viper.GetInt("tagall.batch_size"),
		viper.GetDuration("tagall.delay"),
		logger,
	)
	dispatcher, err := dispatch.New(dispatch.Dependencies{
		Platform:    client,
		Responder:   r,
		Broadcaster: controller,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	healthListen := healthcheck.ListenAddr(
		configutil.FlagOrViperString(cmd, "server-bind", "server.bind"),
		configutil.FlagOrViperInt(cmd, "server-port", "server.port"),
	)
	return whatsapp.Run(ctx, whatsapp.Dependencies{
		Logger:  logger,
		Events:  events.Events(),
		Handler: dispatcher,
		Connect: client.Connect,
	}, whatsapp.RunOptions{
		MaxConcurrency: configutil.FlagOrViperInt(cmd, "max-concurrency", "whatsapp.max_concurrency"),
		QueueSize:      configutil.FlagOrViperInt(cmd, "queue-size", "whatsapp.queue_size"),
		HealthListen:   healthListen,
	})
}
