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

// Package roles applies role grants and revocations through the chat platform.
package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/observability/logger"
	"github.com/opentrusty/autoop/internal/observability/metrics"
)

// ErrUnknownDirection is returned for a Direction other than Grant or Revoke
var ErrUnknownDirection = errors.New("unknown role mutation direction")

// Direction is the kind of role mutation
type Direction int

const (
	Grant Direction = iota + 1
	Revoke
)

func (d Direction) String() string {
	switch d {
	case Grant:
		return "grant"
	case Revoke:
		return "revoke"
	default:
		return "unknown"
	}
}

// Outcome is what the caller learns about a mutation
type Outcome int

const (
	Success Outcome = iota + 1
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Manager changes role assignments on the platform.
// Granting a held role or revoking an absent one is left to platform semantics.
type Manager interface {
	// AddRole assigns role to target
	AddRole(ctx context.Context, target authz.Identity, role authz.RoleID) error

	// RemoveRole removes role from target
	RemoveRole(ctx context.Context, target authz.Identity, role authz.RoleID) error
}

// Result carries the outcome and, on failure, the cause for diagnostics
type Result struct {
	Outcome Outcome
	Err     error
}

// Executor applies role mutations with a single attempt each
type Executor struct {
	manager Manager
	logger  *slog.Logger
	metrics *metrics.Instruments
}

// NewExecutor creates a new executor. inst may be nil.
func NewExecutor(manager Manager, log *slog.Logger, inst *metrics.Instruments) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		manager: manager,
		logger:  log.With(logger.Component("roles")),
		metrics: inst,
	}
}

// Apply grants or revokes role on target. Every failure collapses to Failure.
func (e *Executor) Apply(ctx context.Context, target authz.Identity, role authz.RoleID, dir Direction) Outcome {
	return e.ApplyDetailed(ctx, target, role, dir).Outcome
}

// ApplyDetailed is Apply with the failure cause attached
func (e *Executor) ApplyDetailed(ctx context.Context, target authz.Identity, role authz.RoleID, dir Direction) Result {
	var err error
	switch dir {
	case Grant:
		err = e.manager.AddRole(ctx, target, role)
	case Revoke:
		err = e.manager.RemoveRole(ctx, target, role)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownDirection, int(dir))
	}

	res := Result{Outcome: Success}
	if err != nil {
		res = Result{Outcome: Failure, Err: err}
		e.logger.ErrorContext(ctx, "role mutation failed",
			logger.Direction(dir.String()),
			logger.TargetID(target.String()),
			logger.RoleID(role.String()),
			logger.Error(err),
		)
	} else {
		e.logger.InfoContext(ctx, "role mutation applied",
			logger.Direction(dir.String()),
			logger.TargetID(target.String()),
			logger.RoleID(role.String()),
		)
	}

	e.metrics.Mutation(ctx, dir.String(), res.Outcome.String())
	return res
}
