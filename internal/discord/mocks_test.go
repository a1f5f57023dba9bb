package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"

	"github.com/opentrusty/autoop/internal/command"
)

type mockREST struct {
	mock.Mock
}

func (m *mockREST) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	args := m.Called(guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Member), args.Error(1)
}

func (m *mockREST) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	args := m.Called(guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.Role), args.Error(1)
}

func (m *mockREST) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	args := m.Called(guildID, userID, roleID)
	return args.Error(0)
}

func (m *mockREST) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	args := m.Called(guildID, userID, roleID)
	return args.Error(0)
}

type mockState struct {
	mock.Mock
}

func (m *mockState) Member(guildID, userID string) (*discordgo.Member, error) {
	args := m.Called(guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Member), args.Error(1)
}

func (m *mockState) Role(guildID, roleID string) (*discordgo.Role, error) {
	args := m.Called(guildID, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Role), args.Error(1)
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	args := m.Called(i, resp)
	return args.Error(0)
}

func (m *mockMessenger) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(i, edit)
	return &discordgo.Message{}, args.Error(0)
}

func (m *mockMessenger) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, content, ref)
	return &discordgo.Message{}, args.Error(0)
}

// capturingHandler records invocations and resolves membership like the real handler would
type capturingHandler struct {
	invocations []command.Invocation
	views       []error
	replier     command.Replier
}

func (h *capturingHandler) Handle(ctx context.Context, inv command.Invocation, members command.MembershipSource, replier command.Replier) command.Outcome {
	h.invocations = append(h.invocations, inv)
	_, err := members.Membership(ctx, inv.Requester)
	h.views = append(h.views, err)
	h.replier = replier
	return command.OutcomeSuccess
}
