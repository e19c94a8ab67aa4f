package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fleetping-bot/internal/database"
	"fleetping-bot/internal/locales"
	"fleetping-bot/internal/pings"
	"fleetping-bot/pkg/discordapi"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// CommandFunc runs a slash command and returns the private reply text.
type CommandFunc func(ctx context.Context, i *discordgo.Interaction, localizer *i18n.Localizer) (string, error)

// Command represents a slash command, mapping its name to a description key and handler.
type Command struct {
	Name        string      // Slash command name (e.g., "preping").
	Description string      // i18n key of the command description.
	Handler     CommandFunc // The function to execute when the command is invoked.
}

// InteractionHandler handles Discord slash command interactions.
type InteractionHandler struct {
	service      PingService
	resolver     *pings.Resolver
	checker      PermissionCheckerInterface
	actionLogger database.ActionLogger
	debug        bool

	// commands holds the list of available slash commands.
	commands []Command
}

// HandlerDeps holds the dependencies required by the InteractionHandler.
type HandlerDeps struct {
	Service      PingService
	Resolver     *pings.Resolver
	Checker      PermissionCheckerInterface
	ActionLogger database.ActionLogger
	Debug        bool
}

// NewInteractionHandler creates and initializes a new InteractionHandler.
// One command is registered per ping template plus /reping and /ping_status.
func NewInteractionHandler(deps HandlerDeps) (*InteractionHandler, error) {
	if deps.Service == nil {
		return nil, errors.New("ping service cannot be nil")
	}
	if deps.Checker == nil {
		return nil, errors.New("permission checker cannot be nil")
	}
	if deps.ActionLogger == nil {
		return nil, errors.New("action logger cannot be nil")
	}
	if deps.Resolver == nil {
		deps.Resolver = pings.NewResolver()
	}

	h := &InteractionHandler{
		service:      deps.Service,
		resolver:     deps.Resolver,
		checker:      deps.Checker,
		actionLogger: deps.ActionLogger,
		debug:        deps.Debug,
	}
	for _, tpl := range pings.Templates {
		h.commands = append(h.commands, Command{Name: tpl.Command, Description: tpl.DescKey, Handler: h.pingHandler(tpl)})
	}
	h.commands = append(h.commands,
		Command{Name: CommandReping, Description: "CmdRepingDesc", Handler: h.HandleReping},
		Command{Name: CommandPingStatus, Description: "CmdPingStatusDesc", Handler: h.HandlePingStatus},
	)
	return h, nil
}

// GetCommandHandler retrieves the handler for a slash command name.
// It returns nil if the command is not found.
func (h *InteractionHandler) GetCommandHandler(name string) CommandFunc {
	for _, cmd := range h.commands {
		if cmd.Name == name {
			return cmd.Handler
		}
	}
	return nil
}

// Handle answers one application command interaction. The response is
// deferred as ephemeral and the outcome is sent as a private follow-up.
// Errors other than user input and missing-ping errors are returned after
// the user has been told something went wrong.
func (h *InteractionHandler) Handle(ctx context.Context, s discordapi.Session, i *discordgo.Interaction) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	name := i.ApplicationCommandData().Name
	localizer := h.getLocalizer(i)

	handler := h.GetCommandHandler(name)
	if handler == nil {
		return h.respondNow(s, i, locales.GetMessage(localizer, "MsgErrorUnknownCommand", nil))
	}

	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		return fmt.Errorf("failed to defer /%s: %w", name, err)
	}

	reply, err := handler(ctx, i, localizer)
	if err != nil {
		var handled bool
		reply, handled = errorReply(localizer, err)
		if !handled {
			h.followup(s, i, reply)
			return fmt.Errorf("/%s: %w", name, err)
		}
		if h.debug {
			log.Printf("[Cmd:%s User:%s] %v", name, userID(i), err)
		}
	}
	h.followup(s, i, reply)
	return nil
}
