package discord

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/command"
)

const (
	sourceSlash  = "slash"
	sourcePrefix = "prefix"

	userOption = "user"
)

// ApplicationCommands returns the slash command definitions for every command
func ApplicationCommands() []*discordgo.ApplicationCommand {
	dm := false
	cmds := make([]*discordgo.ApplicationCommand, 0, len(command.Names))
	for _, n := range command.Names {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:         string(n),
			Description:  n.Description(),
			DMPermission: &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        userOption,
					Description: "User",
					Required:    true,
				},
			},
		})
	}
	return cmds
}

// ParseSnowflake parses a Discord id
func ParseSnowflake(s string) (authz.Identity, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return authz.Identity(id), true
}

// ParseUserRef accepts a user mention (<@id>, <@!id>) or a bare id
func ParseUserRef(s string) (authz.Identity, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		s = strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	}
	return ParseSnowflake(s)
}

// splitPrefixed strips the command prefix or a leading bot mention from content.
// It returns the command word and its arguments.
func splitPrefixed(content, prefix, botID string) (name string, args []string, ok bool) {
	rest := strings.TrimSpace(content)

	stripped := false
	if botID != "" {
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if strings.HasPrefix(rest, mention) {
				rest = rest[len(mention):]
				stripped = true
				break
			}
		}
	}
	if !stripped && prefix != "" && strings.HasPrefix(rest, prefix) {
		rest = rest[len(prefix):]
		stripped = true
	}
	if !stripped {
		return "", nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

// parseMessage turns a text message into an invocation.
// ok is false when the message is not addressed to the bot or names no known command.
func parseMessage(m *discordgo.Message, prefix, botID string) (inv command.Invocation, ok bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return inv, false
	}

	word, args, ok := splitPrefixed(m.Content, prefix, botID)
	if !ok {
		return inv, false
	}
	name, ok := command.ParseName(word)
	if !ok {
		return inv, false
	}
	requester, ok := ParseSnowflake(m.Author.ID)
	if !ok {
		return inv, false
	}

	inv = command.Invocation{
		Command:   name,
		Source:    sourcePrefix,
		Requester: requester,
	}
	// Exactly one target argument
	if len(args) != 1 {
		return inv, true
	}
	if target, ok := ParseUserRef(args[0]); ok {
		inv.Target = command.Target{ID: target, DisplayName: mentionedName(m.Mentions, target)}
	}
	return inv, true
}

func mentionedName(mentions []*discordgo.User, id authz.Identity) string {
	for _, u := range mentions {
		if u != nil && u.ID == id.String() {
			return u.Username
		}
	}
	return ""
}

// parseInteraction turns a slash command interaction into an invocation
func parseInteraction(i *discordgo.Interaction) (inv command.Invocation, ok bool) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return inv, false
	}
	data := i.ApplicationCommandData()
	name, ok := command.ParseName(data.Name)
	if !ok {
		return inv, false
	}

	var user *discordgo.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	} else {
		user = i.User
	}
	if user == nil {
		return inv, false
	}
	requester, ok := ParseSnowflake(user.ID)
	if !ok {
		return inv, false
	}

	inv = command.Invocation{
		Command:   name,
		Source:    sourceSlash,
		Requester: requester,
	}
	for _, opt := range data.Options {
		if opt == nil || opt.Name != userOption || opt.Type != discordgo.ApplicationCommandOptionUser {
			continue
		}
		raw, _ := opt.Value.(string)
		target, ok := ParseSnowflake(raw)
		if !ok {
			break
		}
		inv.Target = command.Target{ID: target, DisplayName: raw}
		if data.Resolved != nil {
			if u, found := data.Resolved.Users[raw]; found && u != nil {
				inv.Target.DisplayName = u.Username
			}
		}
	}
	return inv, true
}

// heldRoles returns the role ids carried by an event member, or nil if the event has none
func heldRoles(m *discordgo.Member) []string {
	if m == nil || m.Roles == nil {
		return nil
	}
	return m.Roles
}
