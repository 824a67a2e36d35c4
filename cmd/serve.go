package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/forgebot/internal/config"
	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/internal/eventlog"
	"github.com/nextlevelbuilder/forgebot/internal/handlers"
	"github.com/nextlevelbuilder/forgebot/internal/identity"
	"github.com/nextlevelbuilder/forgebot/internal/interaction"
	"github.com/nextlevelbuilder/forgebot/internal/logging"
	"github.com/nextlevelbuilder/forgebot/internal/notify"
	"github.com/nextlevelbuilder/forgebot/internal/telemetry"
	"github.com/nextlevelbuilder/forgebot/internal/toolregistry"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/internal/transport/discord"
	"github.com/nextlevelbuilder/forgebot/internal/transport/telegram"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch core against the configured chat platforms",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	log := logging.Setup(logLevel, verbose)

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("serve: load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
		if err != nil {
			log.Warn("serve: telemetry setup failed, continuing without tracing", "err", err)
		} else {
			defer shutdownTracing(context.Background())
		}
	}

	dataAPITimeout := time.Duration(cfg.DataAPI.TimeoutSeconds) * time.Second
	dataClient := dataapi.NewClient(cfg.DataAPI.BaseURL, cfg.DataAPI.ServiceKey, dataAPITimeout, log)
	tools := toolregistry.NewHTTPRegistry(cfg.DataAPI.BaseURL, cfg.DataAPI.ServiceKey, dataAPITimeout, log)
	resolver := identity.New(dataClient)

	replyTTL := time.Duration(cfg.Interaction.ReplyContextTTLMinutes) * time.Minute
	tweakTTL := time.Duration(cfg.Interaction.TweakSessionTTLMinutes) * time.Minute
	replyContexts := interaction.NewReplyContextStore(replyTTL)
	tweakSessions := interaction.NewTweakSessionStore(tweakTTL)
	tokens := interaction.NewTokenBimap()

	reaper := interaction.NewReaper(replyContexts, tweakSessions, cfg.Interaction.ReaperCron, log)
	go reaper.Run(ctx)

	dbPath := config.ExpandHome(cfg.EventLog.DBPath)
	if err := eventlog.Migrate(dbPath); err != nil {
		log.Error("serve: migrate event outbox", "err", err)
		os.Exit(1)
	}
	outbox, err := eventlog.Open(dbPath, dataClient, log)
	if err != nil {
		log.Error("serve: open event outbox", "err", err)
		os.Exit(1)
	}
	defer outbox.Close()
	flusher := eventlog.NewFlusher(outbox, time.Duration(cfg.EventLog.FlushIntervalMS)*time.Millisecond)
	go flusher.Run(ctx)

	transports := make(map[string]transport.Transport)

	var tgAdapter *telegram.Adapter
	if cfg.Channels.Telegram.Enabled {
		tgAdapter, err = telegram.New(cfg.Channels.Telegram, log)
		if err != nil {
			log.Error("serve: telegram setup", "err", err)
			os.Exit(1)
		}
		transports["telegram"] = tgAdapter
	}

	var dcAdapter *discord.Adapter
	if cfg.Channels.Discord.Enabled {
		dcAdapter, err = discord.New(cfg.Channels.Discord, log)
		if err != nil {
			log.Error("serve: discord setup", "err", err)
			os.Exit(1)
		}
		transports["discord"] = dcAdapter
	}

	deps := handlers.NewDeps(dataClient, tools, replyContexts, tweakSessions, tokens, outbox, cfg.Wallet, transports, log)

	commands := dispatch.NewCommandDispatcher(log)
	callbacks := dispatch.NewCallbackQueryDispatcher(log)
	replies := dispatch.NewMessageReplyDispatcher(log)
	dynamic := dispatch.NewDynamicCommandDispatcher(nil)
	router := dispatch.NewRouter(commands, callbacks, replies, dynamic, replyContexts, log)

	handlers.RegisterAll(deps, commands, callbacks, replies)

	if tgAdapter != nil {
		pump := telegram.NewInboundPump(tgAdapter, resolver, router, log)
		if err := tgAdapter.Start(ctx, pump.Handle); err != nil {
			log.Error("serve: telegram start", "err", err)
			os.Exit(1)
		}
	}
	if dcAdapter != nil {
		pump := discord.NewInboundPump(dcAdapter, resolver, router, log)
		if err := dcAdapter.Start(ctx, pump.OnMessage, pump.OnComponent); err != nil {
			log.Error("serve: discord start", "err", err)
			os.Exit(1)
		}
	}

	notifyServer := notify.NewServer(cfg.Notify.ListenAddr, cfg.Notify.Path, handlers.NewCompletionHandler(deps), log)
	go func() {
		if err := notifyServer.Run(ctx); err != nil {
			log.Warn("serve: notify server stopped", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("forgebot dispatch core started",
		"version", Version,
		"telegram", cfg.Channels.Telegram.Enabled,
		"discord", cfg.Channels.Discord.Enabled,
	)

	sig := <-sigCh
	log.Info("serve: shutting down", "signal", sig)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	for name, t := range transports {
		if stopper, ok := t.(interface{ Stop(context.Context) error }); ok {
			if err := stopper.Stop(stopCtx); err != nil {
				log.Warn("serve: transport stop failed", "platform", name, "err", err)
			}
		}
	}
	cancel()
}
