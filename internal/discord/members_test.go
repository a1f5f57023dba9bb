package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/command"
)

func guildRoles() []*discordgo.Role {
	return []*discordgo.Role{
		{ID: "42", Name: "@everyone"},
		{ID: "7", Name: "Operator"},
		{ID: "8", Name: "Member"},
	}
}

// TestPurpose: Validates that held role ids from the event are resolved to names with one role listing.
// Scope: Unit Test
// Expected: View contains the held roles with their guild names; no member lookup.
// Test Case ID: DSC-01
func TestDirectory_Membership_FromEventRoles(t *testing.T) {
	api := new(mockREST)
	api.On("GuildRoles", "42").Return(guildRoles(), nil).Once()

	d := NewDirectory(api, nil, nil)
	view, err := d.Membership("42", []string{"7", "8"}).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, authz.MembershipView{{ID: 7, Name: "Operator"}, {ID: 8, Name: "Member"}}, view)
	assert.True(t, view.HasRoleNamed("Operator"))
	api.AssertNotCalled(t, "GuildMember", mock.Anything, mock.Anything)
	api.AssertExpectations(t)
}

func TestDirectory_Membership_LooksUpMember(t *testing.T) {
	api := new(mockREST)
	api.On("GuildMember", "42", "1001").Return(&discordgo.Member{Roles: []string{"8"}}, nil)
	api.On("GuildRoles", "42").Return(guildRoles(), nil)

	d := NewDirectory(api, nil, nil)
	view, err := d.Membership("42", nil).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, authz.MembershipView{{ID: 8, Name: "Member"}}, view)
	assert.False(t, view.HasRoleNamed("Operator"))
}

func TestDirectory_Membership_PrefersState(t *testing.T) {
	api := new(mockREST)
	state := new(mockState)
	state.On("Member", "42", "1001").Return(&discordgo.Member{Roles: []string{"7"}}, nil)
	state.On("Role", "42", "7").Return(&discordgo.Role{ID: "7", Name: "Operator"}, nil)

	d := NewDirectory(api, state, nil)
	view, err := d.Membership("42", nil).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.True(t, view.HasRoleNamed("Operator"))
	api.AssertNotCalled(t, "GuildMember", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "GuildRoles", mock.Anything)
}

func TestDirectory_Membership_StateMissFallsBackToREST(t *testing.T) {
	api := new(mockREST)
	state := new(mockState)
	state.On("Role", "42", "7").Return(nil, discordgo.ErrStateNotFound)
	api.On("GuildRoles", "42").Return(guildRoles(), nil)

	d := NewDirectory(api, state, nil)
	view, err := d.Membership("42", []string{"7"}).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, authz.MembershipView{{ID: 7, Name: "Operator"}}, view)
}

func TestDirectory_Membership_NoRoles(t *testing.T) {
	api := new(mockREST)
	d := NewDirectory(api, nil, nil)

	view, err := d.Membership("42", []string{}).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.Empty(t, view)
	api.AssertNotCalled(t, "GuildRoles", mock.Anything)
}

func TestDirectory_Membership_DeletedRoleSkipped(t *testing.T) {
	api := new(mockREST)
	api.On("GuildRoles", "42").Return(guildRoles(), nil)

	d := NewDirectory(api, nil, nil)
	view, err := d.Membership("42", []string{"99", "8"}).Membership(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, authz.MembershipView{{ID: 8, Name: "Member"}}, view)
}

// TestPurpose: Validates that retrieval failures are reported as unavailable membership, not as a denial.
// Scope: Unit Test
// Expected: Error wraps both ErrMembershipUnavailable and the platform error.
// Test Case ID: DSC-02
func TestDirectory_Membership_RetrievalErrors(t *testing.T) {
	restErr := errors.New("HTTP 503 Service Unavailable")

	t.Run("member lookup", func(t *testing.T) {
		api := new(mockREST)
		api.On("GuildMember", "42", "1001").Return(nil, restErr)

		_, err := NewDirectory(api, nil, nil).Membership("42", nil).Membership(context.Background(), 1001)
		assert.ErrorIs(t, err, command.ErrMembershipUnavailable)
		assert.ErrorIs(t, err, restErr)
	})

	t.Run("role listing", func(t *testing.T) {
		api := new(mockREST)
		api.On("GuildRoles", "42").Return(nil, restErr)

		_, err := NewDirectory(api, nil, nil).Membership("42", []string{"7"}).Membership(context.Background(), 1001)
		assert.ErrorIs(t, err, command.ErrMembershipUnavailable)
		assert.ErrorIs(t, err, restErr)
	})

	t.Run("no guild", func(t *testing.T) {
		_, err := NewDirectory(new(mockREST), nil, nil).Membership("", nil).Membership(context.Background(), 1001)
		assert.ErrorIs(t, err, command.ErrMembershipUnavailable)
		assert.ErrorIs(t, err, ErrNoGuild)
	})
}

func TestDirectory_DisplayName(t *testing.T) {
	api := new(mockREST)
	api.On("GuildMember", "42", "2002").Return(&discordgo.Member{User: &discordgo.User{ID: "2002", Username: "alice"}}, nil)
	api.On("GuildMember", "42", "3003").Return(nil, errors.New("unknown member"))

	d := NewDirectory(api, nil, nil)
	assert.Equal(t, "alice", d.DisplayName(context.Background(), "42", "2002"))
	assert.Equal(t, "3003", d.DisplayName(context.Background(), "42", "3003"))
}
