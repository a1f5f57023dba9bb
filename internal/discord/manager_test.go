package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/autoop/internal/authz"
)

func TestRoleManager_AddRemove(t *testing.T) {
	api := new(mockREST)
	api.On("GuildMemberRoleAdd", "42", "2002", "718954921353019454").Return(nil).Once()
	api.On("GuildMemberRoleRemove", "42", "2002", "718954921353019454").Return(nil).Once()

	m := NewRoleManager(api, nil)
	ctx := WithGuildID(context.Background(), "42")

	require.NoError(t, m.AddRole(ctx, 2002, authz.RoleID(718954921353019454)))
	require.NoError(t, m.RemoveRole(ctx, 2002, authz.RoleID(718954921353019454)))
	api.AssertExpectations(t)
}

func TestRoleManager_Error(t *testing.T) {
	api := new(mockREST)
	restErr := errors.New("HTTP 403 Forbidden, Missing Permissions")
	api.On("GuildMemberRoleAdd", "42", "2002", "7").Return(restErr)

	err := NewRoleManager(api, nil).AddRole(WithGuildID(context.Background(), "42"), 2002, 7)
	assert.ErrorIs(t, err, restErr)
}

func TestRoleManager_NoGuild(t *testing.T) {
	api := new(mockREST)
	m := NewRoleManager(api, nil)

	assert.ErrorIs(t, m.AddRole(context.Background(), 2002, 7), ErrNoGuild)
	assert.ErrorIs(t, m.RemoveRole(context.Background(), 2002, 7), ErrNoGuild)
	api.AssertNotCalled(t, "GuildMemberRoleAdd", mock.Anything, mock.Anything, mock.Anything)
}
