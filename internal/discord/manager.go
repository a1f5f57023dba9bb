package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/observability/tracing"
)

// RoleManager changes member roles through the Discord REST API.
// The guild is taken from the request context (see WithGuildID).
type RoleManager struct {
	api    restAPI
	tracer *tracing.Tracer
}

// NewRoleManager creates a new role manager
func NewRoleManager(api restAPI, tracer *tracing.Tracer) *RoleManager {
	return &RoleManager{api: api, tracer: tracer}
}

// AddRole assigns role to target in the context's guild
func (m *RoleManager) AddRole(ctx context.Context, target authz.Identity, role authz.RoleID) error {
	guildID := GetGuildID(ctx)
	if guildID == "" {
		return ErrNoGuild
	}

	ctx, span := m.tracer.StartClient(ctx, "discord.member_role.add")
	defer span.End()

	if err := m.api.GuildMemberRoleAdd(guildID, target.String(), role.String(), discordgo.WithContext(ctx)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add role %s to %s: %w", role, target, err)
	}
	return nil
}

// RemoveRole removes role from target in the context's guild
func (m *RoleManager) RemoveRole(ctx context.Context, target authz.Identity, role authz.RoleID) error {
	guildID := GetGuildID(ctx)
	if guildID == "" {
		return ErrNoGuild
	}

	ctx, span := m.tracer.StartClient(ctx, "discord.member_role.remove")
	defer span.End()

	if err := m.api.GuildMemberRoleRemove(guildID, target.String(), role.String(), discordgo.WithContext(ctx)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to remove role %s from %s: %w", role, target, err)
	}
	return nil
}
