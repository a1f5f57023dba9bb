package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/command"
	"github.com/opentrusty/autoop/internal/observability/tracing"
)

// ErrNoGuild is returned when a command does not come from a guild
var ErrNoGuild = errors.New("command was not issued in a guild")

// Directory resolves guild members and roles, preferring the gateway cache
type Directory struct {
	api    restAPI
	state  stateCache
	tracer *tracing.Tracer
}

// NewDirectory creates a directory. state may be nil.
func NewDirectory(api restAPI, state stateCache, tracer *tracing.Tracer) *Directory {
	return &Directory{api: api, state: state, tracer: tracer}
}

// Membership returns a MembershipSource for one invocation in guildID.
// heldRoleIDs are the role ids delivered with the event; nil means look the member up.
func (d *Directory) Membership(guildID string, heldRoleIDs []string) command.MembershipSource {
	return command.MembershipFunc(func(ctx context.Context, requester authz.Identity) (authz.MembershipView, error) {
		view, err := d.view(ctx, guildID, requester, heldRoleIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", command.ErrMembershipUnavailable, err)
		}
		return view, nil
	})
}

func (d *Directory) view(ctx context.Context, guildID string, requester authz.Identity, held []string) (authz.MembershipView, error) {
	if guildID == "" {
		return nil, ErrNoGuild
	}

	if held == nil {
		member, err := d.member(ctx, guildID, requester.String())
		if err != nil {
			return nil, err
		}
		held = member.Roles
	}
	if len(held) == 0 {
		return authz.MembershipView{}, nil
	}

	names, err := d.roleNames(ctx, guildID, held)
	if err != nil {
		return nil, err
	}

	view := make(authz.MembershipView, 0, len(held))
	for _, id := range held {
		name, ok := names[id]
		if !ok {
			// Role deleted since the event was produced
			continue
		}
		rid, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		view = append(view, authz.Role{ID: authz.RoleID(rid), Name: name})
	}
	return view, nil
}

func (d *Directory) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if d.state != nil {
		if m, err := d.state.Member(guildID, userID); err == nil && m != nil {
			return m, nil
		}
	}

	ctx, span := d.tracer.StartClient(ctx, "discord.guild_member.get")
	defer span.End()

	m, err := d.api.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get guild member: %w", err)
	}
	return m, nil
}

// roleNames maps each held role id to its display name.
// Cached roles are used when all of them are known; otherwise the guild role list is fetched once.
func (d *Directory) roleNames(ctx context.Context, guildID string, held []string) (map[string]string, error) {
	names := make(map[string]string, len(held))
	if d.state != nil {
		for _, id := range held {
			if r, err := d.state.Role(guildID, id); err == nil && r != nil {
				names[id] = r.Name
			}
		}
		if len(names) == len(held) {
			return names, nil
		}
	}

	ctx, span := d.tracer.StartClient(ctx, "discord.guild_roles.list")
	defer span.End()

	all, err := d.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list guild roles: %w", err)
	}
	for _, r := range all {
		if r != nil {
			names[r.ID] = r.Name
		}
	}
	return names, nil
}

// DisplayName returns the username of userID, or the id itself if it cannot be resolved
func (d *Directory) DisplayName(ctx context.Context, guildID, userID string) string {
	if guildID != "" {
		if m, err := d.member(ctx, guildID, userID); err == nil && m.User != nil {
			return m.User.Username
		}
	}
	return userID
}
