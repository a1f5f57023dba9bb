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

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source looks up raw configuration values by key
type Source interface {
	// Lookup returns the value and whether the key is present at all
	Lookup(key string) (string, bool)
}

// EnvSource reads from the process environment
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource is a fixed set of key/value pairs
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Chain consults each source in order; the first source holding the key wins
func Chain(sources ...Source) Source {
	return chain(sources)
}

type chain []Source

func (c chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// FileSource loads a flat YAML mapping of configuration keys.
// Keys are matched case-insensitively against the environment key names, so
// operator_role_id and OPERATOR_ROLE_ID are the same key. Scalars keep their
// literal text, e.g. 718954921353019454.0 stays "718954921353019454.0".
func FileSource(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (MapSource, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	out := make(MapSource, len(raw))
	for k, v := range raw {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out, nil
}
