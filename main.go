package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	discordBot "fleetping-bot/bot"
	"fleetping-bot/config"
	"fleetping-bot/internal/auth"
	"fleetping-bot/internal/database"
	"fleetping-bot/internal/handlers"
	"fleetping-bot/internal/locales"
	"fleetping-bot/internal/pings"
	"fleetping-bot/internal/telegram"

	"github.com/bwmarrin/discordgo"
	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize localization bundle
	locales.Init(cfg.Language)

	// Initialize Sentry (disabled when the DSN is empty)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		store        database.PingStore
		actionLogger database.ActionLogger = database.LogActionLogger{}
	)
	if cfg.UseMongo() {
		client, db, err := database.ConnectDB(ctx, cfg)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal(err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
				sentry.CaptureException(err)
			} else {
				log.Println("Disconnected from MongoDB.")
			}
		}()
		store = database.NewMongoPingRepository(db)
		actionLogger = database.NewMongoLogger(db)
	} else {
		store = database.NewFilePingStore(cfg.LastPingFile)
		log.Printf("Storing pings in %s", cfg.LastPingFile)
	}

	// --- Telegram ---
	var tgBot *telego.Bot
	if cfg.Debug {
		tgBot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultDebugLogger())
	} else {
		tgBot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}
	if me, err := tgBot.GetMe(ctx); err != nil {
		log.Printf("Warning: Telegram getMe failed: %v", err)
	} else {
		log.Printf("Telegram mirror bot: @%s", me.Username)
	}
	mirror, err := telegram.NewMirror(tgBot, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}

	// --- Discord ---
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create discord session: %v", err)
	}

	formatter := pings.NewFormatter(pings.NewLabels(locales.NewLocalizer(cfg.Language)))
	service, err := pings.NewService(pings.ServiceDeps{
		Session:   session,
		Telegram:  mirror,
		Store:     store,
		Formatter: formatter,
		Router:    cfg.Telegram,
		Debug:     cfg.Debug,
	})
	if err != nil {
		log.Fatal(err)
	}

	handler, err := handlers.NewInteractionHandler(handlers.HandlerDeps{
		Service:      service,
		Resolver:     pings.NewResolver(),
		Checker:      auth.NewPermissionChecker(cfg.PingRoleIDs),
		ActionLogger: actionLogger,
		Debug:        cfg.Debug,
	})
	if err != nil {
		log.Fatal(err)
	}

	appBot, err := discordBot.New(discordBot.BotDeps{
		Session: session,
		Handler: handler,
		GuildID: cfg.DiscordGuildID,
		Debug:   cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Blocks until SIGINT/SIGTERM
	if err := appBot.Start(ctx); err != nil {
		sentry.CaptureException(err)
		log.Printf("Bot stopped with error: %v", err)
		return
	}

	log.Println("Bot shutdown complete.")
}
