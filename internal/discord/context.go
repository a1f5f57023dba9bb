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

package discord

import "context"

type contextKey string

const guildIDKey contextKey = "guild_id"

// WithGuildID scopes ctx to the guild a command was issued in
func WithGuildID(ctx context.Context, guildID string) context.Context {
	return context.WithValue(ctx, guildIDKey, guildID)
}

// GetGuildID retrieves the guild a command was issued in
func GetGuildID(ctx context.Context) string {
	if val, ok := ctx.Value(guildIDKey).(string); ok {
		return val
	}
	return ""
}
