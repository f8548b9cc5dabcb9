package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-bot/internal/api"
	"github.com/dvloznov/expense-bot/internal/api/handlers"
	"github.com/dvloznov/expense-bot/internal/bot"
	"github.com/dvloznov/expense-bot/internal/config"
	"github.com/dvloznov/expense-bot/internal/dispatch"
	"github.com/dvloznov/expense-bot/internal/expense"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/dvloznov/expense-bot/internal/notion"
)

// ShutdownTimeout bounds how long in-flight messages may take to finish.
const ShutdownTimeout = 30 * time.Second

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and process messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(opts.envFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBot(logger.WithContext(ctx, log), cfg, log)
		},
	}
}

// loadRuntime loads and validates config and builds the logger. Any error
// here is fatal: the bot never starts without its three secrets.
func loadRuntime(envFile string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	log, err := logger.NewWithConfig(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("configuring logger: %w", err)
	}
	return cfg, log, nil
}

func runBot(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	notionClient := notion.NewNotionClient(cfg.NotionIntegrationToken)
	if err := notion.VerifySchema(ctx, notionClient, cfg.NotionDatabaseID); err != nil {
		log.Warn().Err(err).Msg("Notion database check failed; page creation may be rejected")
	}

	tg, err := bot.NewTelegramAPI(cfg.TelegramBotToken, log)
	if err != nil {
		return err
	}
	log.Info().Str("bot", tg.Self.UserName).Msg("Authorized on Telegram")

	parser := expense.NewParser(loc)
	handler := bot.NewHandler(parser, notion.NewSubmitter(notionClient, cfg.NotionDatabaseID))
	dispatcher := dispatch.New(cfg.MaxConcurrentMessages, log)

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: api.NewRouter(
				handlers.NewHealthHandler(tg.Self.UserName, dispatcher.InFlight),
				handlers.NewPreviewHandler(parser),
				log,
			),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server stopped with error")
			}
		}()
	}

	log.Info().
		Str("database_id", cfg.NotionDatabaseID).
		Str("timezone", loc.String()).
		Int("max_concurrent_messages", cfg.MaxConcurrentMessages).
		Msg("Expense bot started")

	runErr := bot.NewBot(tg, tg.Self.UserName, handler, dispatcher, log).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown failed")
		}
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Int("in_flight", dispatcher.InFlight()).Msg("Timed out waiting for in-flight messages")
	}

	log.Info().Msg("Expense bot stopped")
	return runErr
}
