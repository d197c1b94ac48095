package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"henbot/clients"
	anthropicclient "henbot/clients/anthropic"
	discordclient "henbot/clients/discord"
	imagesclient "henbot/clients/images"
	"henbot/commands"
	"henbot/config"
	"henbot/db"
	"henbot/handlers"
	"henbot/middleware"
	"henbot/models"
	"henbot/services/botconfig"
	"henbot/services/digest"
	"henbot/services/llm"
	"henbot/services/permissions"
	"henbot/services/reminders"
	"henbot/services/timezones"
	"henbot/services/usagecost"
	chatuc "henbot/usecases/chat"
	usecasecore "henbot/usecases/core"
	imagesuc "henbot/usecases/images"
	insightsuc "henbot/usecases/insights"
	messagesuc "henbot/usecases/messages"
	remindersuc "henbot/usecases/reminders"
	tzuc "henbot/usecases/tz"

	"github.com/bwmarrin/discordgo"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "henbot",
		LogsURL:     cfg.ServerLogsURL,
	})

	// Optional Postgres persistence for whitelist snapshots
	var snapshotsRepo botconfig.SnapshotsRepository
	if cfg.DatabaseConfig.IsConfigured() {
		dbConn, err := db.NewConnection(cfg.DatabaseConfig.URL)
		if err != nil {
			return err
		}
		defer dbConn.Close()
		snapshotsRepo = db.NewPostgresWhitelistSnapshotsRepository(dbConn, cfg.DatabaseConfig.Schema)
	}

	botConfigService := botconfig.NewBotConfigService(snapshotsRepo)
	usageService := usagecost.NewUsageCostService()
	timezoneService := timezones.NewTimezoneService(cfg.TimezoneFile)

	llmClient := anthropicclient.NewAnthropicClient(cfg.AnthropicConfig.APIKey)
	completionService := llm.NewCompletionService(llmClient, usageService, cfg.LLMMaxConcurrency)

	// The gateway session is created by the events handler; the thin client
	// wrapper shares it so every consumer sees the same connection.
	session, err := discordgo.New("Bot " + cfg.DiscordConfig.BotToken)
	if err != nil {
		return err
	}
	chatClient := discordclient.NewDiscordClient(session)

	permissionsService := permissions.NewPermissionsService(chatClient, cfg.DiscordConfig.ForbiddenChannels)
	reminderService := reminders.NewReminderService(chatClient)
	responder := usecasecore.NewResponder(chatClient)

	chatUseCase := chatuc.NewChatUseCase(chatClient, completionService, responder)

	registry := commands.NewRegistry(chatClient, permissionsService, alertMiddleware)
	registerCommands(registryDeps{
		registry:    registry,
		cfg:         cfg,
		chatClient:  chatClient,
		chat:        chatUseCase,
		completions: completionService,
		botConfig:   botConfigService,
		reminders:   reminderService,
		timezones:   timezoneService,
		responder:   responder,
	})

	eventsHandler := handlers.NewDiscordEventsHandler(session, cfg.DiscordConfig, registry, botConfigService, chatUseCase)
	if err := eventsHandler.StartBot(); err != nil {
		return err
	}
	defer eventsHandler.StopBot()
	defer reminderService.StopAll()

	// Scheduled digest, disabled unless a cron spec is configured
	if cfg.DigestCronSpec != "" {
		digestService := digest.NewDigestService(chatClient, completionService, botConfigService)
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.DigestCronSpec, alertMiddleware.WrapBackgroundTask("DailyDigest", func() error {
			return digestService.Run(context.Background())
		}))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("✅ Scheduled digest enabled (%s)", cfg.DigestCronSpec)
	}

	router := mux.NewRouter()
	handlers.NewStatusHTTPHandler(registry, botConfigService, usageService).SetupEndpoints(router)

	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

type registryDeps struct {
	registry    *commands.Registry
	cfg         *config.AppConfig
	chatClient  clients.ChatClient
	chat        *chatuc.ChatUseCase
	completions *llm.CompletionService
	botConfig   *botconfig.BotConfigService
	reminders   *reminders.ReminderService
	timezones   *timezones.TimezoneService
	responder   *usecasecore.Responder
}

func registerCommands(deps registryDeps) {
	chatUseCase := deps.chat
	insightsUseCase := insightsuc.NewInsightsUseCase(deps.chatClient, deps.completions, deps.botConfig, deps.responder)
	remindersUseCase := remindersuc.NewRemindersUseCase(deps.completions, deps.reminders, deps.responder)
	timezoneUseCase := tzuc.NewTimezoneUseCase(deps.timezones, deps.responder)
	messagesUseCase := messagesuc.NewMessagesUseCase(deps.chatClient, deps.registry, deps.responder)

	deps.registry.Register(models.Command{
		Name: "chat", Help: "Talk to the bot and get AI-generated responses.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeBoth, Output: models.OutputSurfaceChannel},
		Handler: chatUseCase.Chat,
	})
	deps.registry.Register(models.Command{
		Name: "egg", Help: "Talk to the eggbot. It lives for egg metaphors.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: chatUseCase.Egg,
	})
	deps.registry.Register(models.Command{
		Name: "dream", Help: "Analyze a dream and provide an interpretation.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeBoth, Output: models.OutputSurfaceChannel},
		Handler: chatUseCase.Dream,
	})
	deps.registry.Register(models.Command{
		Name: "talkto", Help: "Simulate a user's reply based on their recent messages.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Peoples"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: chatUseCase.Talkto,
	})
	deps.registry.Register(models.Command{
		Name: "planhour", Help: "Invent a humorous next-hour plan from recent messages.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeServer, Output: models.OutputSurfaceChannel},
		Handler: insightsUseCase.Planhour,
	})
	deps.registry.Register(models.Command{
		Name: "planlife", Help: "Invent an exaggerated lifelong mission from your recent messages.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeBoth, Output: models.OutputSurfaceChannel},
		Handler: insightsUseCase.Planlife,
	})
	deps.registry.Register(models.Command{
		Name: "snapshot", Help: "Turn a channel's recent conversation into an AI image prompt.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Peoples"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: insightsUseCase.Snapshot,
	})
	deps.registry.Register(models.Command{
		Name: "mood", Help: "Analyze the mood of a user or the recent channel messages.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceDM,
		},
		Handler: insightsUseCase.Mood,
	})
	deps.registry.Register(models.Command{
		Name: "catchup", Help: "Summarize recent activity in a channel or across the server.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Peoples"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: insightsUseCase.Catchup,
	})
	deps.registry.Register(models.Command{
		Name: "guide", Help: "Get per-channel overviews of the whitelisted channels via DM.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceDM,
		},
		Handler: insightsUseCase.Guide,
	})
	deps.registry.Register(models.Command{
		Name: "bugme", Help: "Start a recurring DM reminder parsed from freeform text.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeServer, Output: models.OutputSurfaceChannel},
		Handler: remindersUseCase.Bugme,
	})
	deps.registry.Register(models.Command{
		Name: "bugoff", Help: "Stop your active reminder. Works in DMs with the bot.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeDM, Output: models.OutputSurfaceChannel},
		Handler: remindersUseCase.Bugoff,
	})
	deps.registry.Register(models.Command{
		Name: "settimezone", Help: "Register your IANA time zone (e.g. America/New_York).",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeBoth,
			Output:        models.OutputSurfaceDM,
		},
		Handler: timezoneUseCase.SetTimezone,
	})
	deps.registry.Register(models.Command{
		Name: "timezones", Help: "Show the current local time for each registered time zone.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceDM,
		},
		Handler: timezoneUseCase.Timezones,
	})
	deps.registry.Register(models.Command{
		Name: "rightnow", Help: "Generate a copy-pastable timestamp tag for the current time.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted"},
			Mode:          models.ExecutionModeBoth,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: timezoneUseCase.RightNow,
	})
	deps.registry.Register(models.Command{
		Name: "match", Help: "Find a message containing the text and report how far back it is.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeServer, Output: models.OutputSurfaceChannel},
		Handler: messagesUseCase.Match,
	})
	deps.registry.Register(models.Command{
		Name: "clear", Help: "Clear up to 100 recent messages.",
		Policy: models.CommandPolicy{
			RequiredRoles: []string{"Vetted", "Fun Police"},
			Mode:          models.ExecutionModeServer,
			Output:        models.OutputSurfaceChannel,
		},
		Handler: messagesUseCase.Clear,
	})
	deps.registry.Register(models.Command{
		Name: "clearafter", Help: "Clear all messages sent after a matched message.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeServer, Output: models.OutputSurfaceChannel},
		Handler: messagesUseCase.ClearAfter,
	})
	deps.registry.Register(models.Command{
		Name: "commands", Help: "Display this list of available commands.",
		Policy:  models.CommandPolicy{Mode: models.ExecutionModeBoth, Output: models.OutputSurfaceChannel},
		Handler: messagesUseCase.Commands,
	})

	if deps.cfg.ImageAPIConfig.IsConfigured() {
		imagesUseCase := imagesuc.NewImagesUseCase(
			imagesclient.NewImagesClient(http.DefaultClient, deps.cfg.ImageAPIConfig.BaseURL, deps.cfg.ImageAPIConfig.APIKey),
			deps.responder,
		)
		deps.registry.Register(models.Command{
			Name: "image", Help: "Generate an image from a prompt.",
			Policy:  models.CommandPolicy{Mode: models.ExecutionModeBoth, Output: models.OutputSurfaceChannel},
			Handler: imagesUseCase.Image,
		})
	}
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
