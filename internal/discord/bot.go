// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package discord connects the command handler to a Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/opentrusty/autoop/internal/command"
	"github.com/opentrusty/autoop/internal/config"
	"github.com/opentrusty/autoop/internal/observability/logger"
	"github.com/opentrusty/autoop/internal/observability/tracing"
)

// CommandHandler runs one parsed invocation
type CommandHandler interface {
	Handle(ctx context.Context, inv command.Invocation, members command.MembershipSource, replier command.Replier) command.Outcome
}

// commandRegistrar is the subset of *discordgo.Session used to publish slash commands
type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Bot owns the gateway session and dispatches command events
type Bot struct {
	session   *discordgo.Session
	api       messenger
	registrar commandRegistrar
	directory *Directory
	handler   CommandHandler
	cfg       config.DiscordConfig
	logger    *slog.Logger

	botID atomic.Value // string
	ready atomic.Bool

	// Commands are published once per process; a failed attempt is retried on the next Ready
	registerMu sync.Mutex
	registered bool
}

// NewSession creates a gateway session for the bot token. The session is not opened.
func NewSession(cfg config.DiscordConfig, log *slog.Logger) (*discordgo.Session, error) {
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents(cfg)
	// Each event gets its own goroutine so one slow command never blocks another
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning
	routeLibraryLogs(log)

	return session, nil
}

// New creates a bot dispatching session events to handler
func New(session *discordgo.Session, cfg config.DiscordConfig, handler CommandHandler, tracer *tracing.Tracer, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		session:   session,
		api:       session,
		registrar: session,
		directory: NewDirectory(session, session.State, tracer),
		handler:   handler,
		cfg:       cfg,
		logger:    log.With(logger.Component("discord")),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)
	return b
}

// Intents returns the gateway intents the bot subscribes to
func Intents(cfg config.DiscordConfig) discordgo.Intent {
	intents := discordgo.IntentGuilds | discordgo.IntentGuildMessages
	if cfg.CommandPrefix != "" {
		intents |= discordgo.IntentMessageContent
	}
	return intents
}

// Open connects to the gateway
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway
func (b *Bot) Close() error {
	b.ready.Store(false)
	return b.session.Close()
}

// Ready reports whether the gateway session is established
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	b.botID.Store(r.User.ID)

	b.logger.Info("connected as "+r.User.Username,
		logger.UserID(r.User.ID),
		logger.GuildID(b.cfg.GuildID),
	)

	b.ensureCommands(context.Background(), appID)
	b.ready.Store(true)
}

// ensureCommands registers the slash commands unless an earlier Ready already did.
// Reconnects deliver a fresh Ready each time.
func (b *Bot) ensureCommands(ctx context.Context, appID string) {
	b.registerMu.Lock()
	defer b.registerMu.Unlock()
	if b.registered {
		return
	}
	if err := b.registerCommands(ctx, appID); err != nil {
		b.logger.Error("failed to register commands", logger.Error(err))
		return
	}
	b.registered = true
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.ready.Store(false)
	b.logger.Warn("gateway disconnected")
}

// registerCommands publishes the slash commands to the configured guild, or globally
func (b *Bot) registerCommands(ctx context.Context, appID string) error {
	cmds, err := b.registrar.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, ApplicationCommands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to overwrite application commands: %w", err)
	}
	scope := "global"
	if b.cfg.GuildID != "" {
		scope = "guild"
	}
	b.logger.Info("registered commands", slog.Int("count", len(cmds)), slog.String("scope", scope))
	return nil
}

// accepts reports whether events from guildID are handled
func (b *Bot) accepts(guildID string) bool {
	return b.cfg.GuildID == "" || guildID == b.cfg.GuildID
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(context.Background(), i.Interaction)
}

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i == nil || i.GuildID == "" || !b.accepts(i.GuildID) {
		return
	}
	inv, ok := parseInteraction(i)
	if !ok {
		return
	}
	ctx = WithGuildID(ctx, i.GuildID)

	replier := newInteractionReplier(b.api, i)
	if err := replier.Defer(ctx); err != nil {
		b.logger.WarnContext(ctx, "failed to acknowledge interaction",
			logger.Command(string(inv.Command)),
			logger.Error(err),
		)
	}

	var held []string
	if i.Member != nil {
		held = heldRoles(i.Member)
		if held == nil {
			held = []string{}
		}
	}
	b.handler.Handle(ctx, inv, b.directory.Membership(i.GuildID, held), replier)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(context.Background(), m.Message)
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.GuildID == "" || !b.accepts(m.GuildID) {
		return
	}
	botID, _ := b.botID.Load().(string)
	if m.Author != nil && m.Author.ID == botID {
		return
	}
	inv, ok := parseMessage(m, b.cfg.CommandPrefix, botID)
	if !ok {
		return
	}
	ctx = WithGuildID(ctx, m.GuildID)
	b.logger.DebugContext(ctx, "prefix command received",
		logger.Command(string(inv.Command)),
		logger.GuildID(m.GuildID),
		logger.ChannelID(m.ChannelID),
	)

	if inv.Target.ID != 0 && inv.Target.DisplayName == "" {
		guildID, userID := m.GuildID, inv.Target.ID.String()
		inv.Target.Resolve = func(ctx context.Context) string {
			return b.directory.DisplayName(ctx, guildID, userID)
		}
	}

	// Message members carry roles but the list may be absent; nil triggers a lookup
	b.handler.Handle(ctx, inv, b.directory.Membership(m.GuildID, heldRoles(m.Member)), &messageReplier{api: b.api, message: m})
}

// routeLibraryLogs sends discordgo's internal logging through slog
func routeLibraryLogs(log *slog.Logger) {
	lib := log.With(logger.Component("discordgo"))
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			lib.Error(msg)
		case discordgo.LogWarning:
			lib.Warn(msg)
		case discordgo.LogInformational:
			lib.Info(msg)
		default:
			lib.Debug(msg)
		}
	}
}
