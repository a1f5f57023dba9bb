package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/config"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, ".env", f.envFile)
	assert.Empty(t, f.configFile)
	assert.False(t, f.showVersion)

	f, err = parseFlags([]string{"--env-file", "prod.env", "-c", "autoop.yaml", "--version"})
	require.NoError(t, err)
	assert.Equal(t, "prod.env", f.envFile)
	assert.Equal(t, "autoop.yaml", f.configFile)
	assert.True(t, f.showVersion)

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

// TestPurpose: Validates configuration layering of environment, dotenv file and YAML file.
// Scope: Unit Test
// Expected: Environment wins over .env, .env wins over YAML, a missing .env is ignored.
// Test Case ID: CLI-01
func TestConfigSource_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	yamlFile := filepath.Join(dir, "autoop.yaml")

	require.NoError(t, os.WriteFile(envFile, []byte("DISCORD_TOKEN=from-dotenv\nALLOWED_USERS=111,222\n"), 0o600))
	require.NoError(t, os.WriteFile(yamlFile, []byte("discord_token: from-yaml\noperator_role_id: 718954921353019454.0\nallowed_users: \"999\"\n"), 0o600))
	t.Setenv("ALLOWED_USERS", "333")

	src, err := configSource(flags{envFile: envFile, configFile: yamlFile})
	require.NoError(t, err)

	cfg, err := config.Load(src)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Discord.Token)
	assert.Equal(t, authz.RoleID(718954921353019454), cfg.Operator.RoleID)
	assert.Equal(t, []authz.Identity{333}, cfg.Operator.AllowedUsers.IDs())
}

func TestConfigSource_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := configSource(flags{envFile: filepath.Join(dir, "absent.env")})
	assert.NoError(t, err)

	_, err = configSource(flags{configFile: filepath.Join(dir, "absent.yaml")})
	assert.Error(t, err)
}
