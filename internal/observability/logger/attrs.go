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

package logger

import "log/slog"

// Common attribute keys for consistent logging across the application

// Command attributes
func InvocationID(id string) slog.Attr {
	return slog.String("invocation_id", id)
}

func Command(name string) slog.Attr {
	return slog.String("command", name)
}

func Source(source string) slog.Attr {
	return slog.String("source", source)
}

func Outcome(outcome string) slog.Attr {
	return slog.String("outcome", outcome)
}

func Direction(direction string) slog.Attr {
	return slog.String("direction", direction)
}

// Platform attributes
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

func TargetID(id string) slog.Attr {
	return slog.String("target_id", id)
}

func RoleID(id string) slog.Attr {
	return slog.String("role_id", id)
}

func GuildID(id string) slog.Attr {
	return slog.String("guild_id", id)
}

func ChannelID(id string) slog.Attr {
	return slog.String("channel_id", id)
}

// HTTP attributes
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

func Path(path string) slog.Attr {
	return slog.String("path", path)
}

func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

func UserAgent(ua string) slog.Attr {
	return slog.String("user_agent", ua)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

func Duration(ms int64) slog.Attr {
	return slog.Int64("duration_ms", ms)
}

// Error attributes
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Component attributes
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}
