package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opentrusty/autoop/internal/authz"
)

// Environment keys
const (
	KeyDiscordToken     = "DISCORD_TOKEN"
	KeyGuildID          = "DISCORD_GUILD_ID"
	KeyCommandPrefix    = "COMMAND_PREFIX"
	KeyOperatorRoleID   = "OPERATOR_ROLE_ID"
	KeyOperatorRoleName = "OPERATOR_ROLE_NAME"
	KeyAllowedUsers     = "ALLOWED_USERS"
)

// DefaultOperatorRoleName is used when OPERATOR_ROLE_NAME is unset or empty
const DefaultOperatorRoleName = "Operator"

// Config holds all application configuration.
// It is built once by Load and never modified afterwards.
type Config struct {
	Discord       DiscordConfig
	Operator      OperatorConfig
	Health        HealthConfig
	Observability ObservabilityConfig
}

// DiscordConfig holds gateway connection configuration
type DiscordConfig struct {
	Token         string
	GuildID       string // Empty means commands are registered globally
	CommandPrefix string // Empty means only mention-prefixed text commands
}

// OperatorConfig holds the operator role policy
type OperatorConfig struct {
	RoleID       authz.RoleID
	RoleName     string
	AllowedUsers authz.AllowList
}

// Policy returns the authorization policy snapshot
func (c OperatorConfig) Policy() authz.Policy {
	return authz.Policy{
		RoleName:  c.RoleName,
		AllowList: c.AllowedUsers,
	}
}

// HealthConfig holds the health probe HTTP server configuration
type HealthConfig struct {
	Addr              string // Empty disables the server
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// Load loads configuration from src
func Load(src Source) (*Config, error) {
	token, ok := src.Lookup(KeyDiscordToken)
	if !ok || token == "" {
		return nil, missing(KeyDiscordToken)
	}

	roleID, err := ResolveRoleID(src)
	if err != nil {
		return nil, err
	}

	allowed, err := ResolveAllowList(src)
	if err != nil {
		return nil, err
	}

	l := lookup{src}
	cfg := &Config{
		Discord: DiscordConfig{
			Token:         token,
			GuildID:       strings.TrimSpace(l.get(KeyGuildID, "")),
			CommandPrefix: strings.TrimSpace(l.get(KeyCommandPrefix, "")),
		},
		Operator: OperatorConfig{
			RoleID:       roleID,
			RoleName:     ResolveRoleName(src),
			AllowedUsers: allowed,
		},
		Health: HealthConfig{
			Addr:              l.get("HEALTH_ADDR", ""),
			ReadTimeout:       l.duration("HEALTH_READ_TIMEOUT", "5s"),
			WriteTimeout:      l.duration("HEALTH_WRITE_TIMEOUT", "5s"),
			RequestsPerSecond: float64(l.int("HEALTH_RATELIMIT_RPS", 5)),
			Burst:             l.int("HEALTH_RATELIMIT_BURST", 10),
		},
		Observability: ObservabilityConfig{
			LogLevel:       l.get("LOG_LEVEL", "info"),
			LogFormat:      l.get("LOG_FORMAT", "text"),
			OTELEnabled:    l.bool("OTEL_ENABLED", false),
			ServiceName:    l.get("OTEL_SERVICE_NAME", "autoop"),
			ServiceVersion: l.get("OTEL_SERVICE_VERSION", "0.1.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.GuildID != "" {
		if _, err := strconv.ParseUint(c.Discord.GuildID, 10, 64); err != nil {
			return malformed(KeyGuildID, c.Discord.GuildID, err)
		}
	}
	if strings.ContainsAny(c.Discord.CommandPrefix, " \t\n") {
		return malformed(KeyCommandPrefix, c.Discord.CommandPrefix, nil)
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return malformed("LOG_FORMAT", c.Observability.LogFormat, nil)
	}
	return nil
}

// ResolveRoleID resolves OPERATOR_ROLE_ID
func ResolveRoleID(src Source) (authz.RoleID, error) {
	raw, ok := src.Lookup(KeyOperatorRoleID)
	if !ok {
		return 0, missing(KeyOperatorRoleID)
	}
	return ParseRoleID(raw)
}

// ParseRoleID parses the integer part of raw, i.e. everything before the first '.'.
// Numeric config sources may serialise ids as floats ("123.0"); the fraction is ignored.
func ParseRoleID(raw string) (authz.RoleID, error) {
	prefix, _, _ := strings.Cut(raw, ".")
	id, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, malformed(KeyOperatorRoleID, raw, err)
	}
	return authz.RoleID(id), nil
}

// ResolveRoleName resolves OPERATOR_ROLE_NAME, falling back to DefaultOperatorRoleName
func ResolveRoleName(src Source) string {
	if v, ok := src.Lookup(KeyOperatorRoleName); ok && v != "" {
		return v
	}
	return DefaultOperatorRoleName
}

// ResolveAllowList resolves ALLOWED_USERS. The key must be present; an empty value is an empty list.
func ResolveAllowList(src Source) (authz.AllowList, error) {
	raw, ok := src.Lookup(KeyAllowedUsers)
	if !ok {
		return nil, missing(KeyAllowedUsers)
	}
	return ParseAllowList(raw), nil
}

// ParseAllowList parses a comma separated list of user ids.
// Entries that are empty or not unsigned integers are dropped.
func ParseAllowList(raw string) authz.AllowList {
	list := authz.NewAllowList()
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		list[authz.Identity(id)] = struct{}{}
	}
	return list
}

// Helper functions
type lookup struct {
	src Source
}

func (l lookup) get(key, defaultValue string) string {
	if value, ok := l.src.Lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (l lookup) int(key string, defaultValue int) int {
	if value := l.get(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (l lookup) bool(key string, defaultValue bool) bool {
	if value := l.get(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (l lookup) duration(key string, defaultValue string) time.Duration {
	value := l.get(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
