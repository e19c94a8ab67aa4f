package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"fleetping-bot/pkg/discordapi"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"go.uber.org/ratelimit"
)

// interactionTimeout bounds the handling of a single interaction.
const interactionTimeout = 30 * time.Second

// CommandHandler answers slash command interactions.
type CommandHandler interface {
	Handle(ctx context.Context, s discordapi.Session, i *discordgo.Interaction) error
	ApplicationCommands() []*discordgo.ApplicationCommand
}

// Bot represents the Discord side of the application.
// It wraps the discordgo session, registers slash commands once the gateway
// is ready and dispatches interactions to the handler.
type Bot struct {
	session     *discordgo.Session
	api         discordapi.Session
	handler     CommandHandler
	guildID     string
	debug       bool
	ratelimiter ratelimit.Limiter

	ctx context.Context
	wg  sync.WaitGroup
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Session *discordgo.Session
	API     discordapi.Session // Defaults to Session
	Handler CommandHandler
	GuildID string // Register commands in this guild only when set
	Debug   bool
}

// New creates a new Bot instance from its dependencies.
// Returns the new Bot instance or an error if dependencies are missing.
func New(deps BotDeps) (*Bot, error) {
	if deps.Session == nil {
		return nil, fmt.Errorf("discord session cannot be nil")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("command handler cannot be nil")
	}
	api := deps.API
	if api == nil {
		api = deps.Session
	}

	deps.Session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		session:     deps.Session,
		api:         api,
		handler:     deps.Handler,
		guildID:     deps.GuildID,
		debug:       deps.Debug,
		ratelimiter: ratelimit.New(20),
		ctx:         context.Background(),
	}, nil
}

// onReady registers the slash commands for the connected application.
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Logged in as %s", userTag(r.User))
	if err := b.registerCommands(applicationID(r)); err != nil {
		log.Printf("Error registering commands: %v", err)
		sentry.CaptureException(err)
	}
}

// registerCommands replaces every registered command with the current set.
func (b *Bot) registerCommands(appID string) error {
	if appID == "" {
		return fmt.Errorf("application id is unknown")
	}
	cmds := b.handler.ApplicationCommands()
	registered, err := b.api.ApplicationCommandBulkOverwrite(appID, b.guildID, cmds)
	if err != nil {
		return fmt.Errorf("failed to register %d commands: %w", len(cmds), err)
	}
	scope := "globally"
	if b.guildID != "" {
		scope = "in guild " + b.guildID
	}
	log.Printf("Registered %d commands %s: %v", len(registered), scope, commandNames(registered))
	return nil
}

// onInteractionCreate is invoked by discordgo in its own goroutine.
func (b *Bot) onInteractionCreate(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	b.wg.Add(1)
	defer b.wg.Done()
	b.processInteraction(b.ctx, ic.Interaction)
}

// processInteraction runs the handler under the rate limiter, a timeout and
// panic recovery. Failures are logged and sent to Sentry.
func (b *Bot) processInteraction(ctx context.Context, i *discordgo.Interaction) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processInteraction: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, interactionTimeout)
	defer cancel()

	logPrefix := fmt.Sprintf("[Interaction:%s Channel:%s]", i.ID, i.ChannelID)
	if b.debug {
		log.Printf("%s Received type %s", logPrefix, i.Type)
	}
	if err := b.handler.Handle(processingCtx, b.api, i); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// Start opens the gateway connection and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Listening for interactions...")

	<-ctx.Done()
	log.Println("Context done, stopping interaction processing...")
	b.Stop()
	return nil
}

// Stop waits for in-flight interactions and closes the gateway connection.
func (b *Bot) Stop() {
	b.wg.Wait()
	log.Println("All interaction processing finished.")
	if err := b.session.Close(); err != nil {
		log.Printf("Error closing discord session: %v", err)
	}
}
