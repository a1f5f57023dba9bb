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

package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/observability/logger"
	"github.com/opentrusty/autoop/internal/observability/metrics"
	"github.com/opentrusty/autoop/internal/observability/tracing"
	"github.com/opentrusty/autoop/internal/roles"
)

// Authorizer decides whether a requester may act
type Authorizer interface {
	Authorize(ctx context.Context, requester authz.Identity, roles authz.MembershipView) authz.Decision
}

// Mutator applies a role mutation to a target
type Mutator interface {
	Apply(ctx context.Context, target authz.Identity, role authz.RoleID, dir roles.Direction) roles.Outcome
}

// Handler runs op/deop invocations
type Handler struct {
	roleID     authz.RoleID
	authorizer Authorizer
	mutator    Mutator
	tracer     *tracing.Tracer
	metrics    *metrics.Instruments
	logger     *slog.Logger
}

// NewHandler creates a new command handler.
// tracer and inst may be nil.
func NewHandler(
	roleID authz.RoleID,
	authorizer Authorizer,
	mutator Mutator,
	tracer *tracing.Tracer,
	inst *metrics.Instruments,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		roleID:     roleID,
		authorizer: authorizer,
		mutator:    mutator,
		tracer:     tracer,
		metrics:    inst,
		logger:     log.With(logger.Component("command")),
	}
}

// Handle runs one invocation through to exactly one reply
func (h *Handler) Handle(ctx context.Context, inv Invocation, members MembershipSource, replier Replier) (outcome Outcome) {
	invocationID := uuid.NewString()
	ctx, span := h.tracer.StartCommand(ctx, string(inv.Command), invocationID)
	defer span.End()

	log := h.logger.With(
		logger.InvocationID(invocationID),
		logger.Command(string(inv.Command)),
		logger.Source(inv.Source),
		logger.UserID(inv.Requester.String()),
		logger.TargetID(inv.Target.ID.String()),
	)

	// replied is only set once Reply returns, so a panicking replier still gets the fallback
	replied := false
	reply := func(msg string) {
		if err := replier.Reply(ctx, msg); err != nil {
			log.ErrorContext(ctx, "failed to send reply", logger.Error(err))
		}
		replied = true
	}

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "command panicked", slog.Any("panic", r))
			outcome = OutcomeFailure
			if !replied {
				replyFailure(ctx, log, replier)
			}
		}
		span.SetAttributes(attribute.String("autoop.outcome", string(outcome)))
		if outcome == OutcomeFailure || outcome == OutcomeRetrievalFailure {
			span.SetStatus(codes.Error, string(outcome))
		}
		h.metrics.Command(ctx, string(inv.Command), string(outcome))
		log.InfoContext(ctx, "command finished", logger.Outcome(string(outcome)))
	}()

	dir, ok := inv.Command.Direction()
	if !ok || inv.Target.ID == 0 {
		reply(Usage(inv.Command))
		return OutcomeUsage
	}

	// Pending: gather the requester's membership
	view, err := members.Membership(ctx, inv.Requester)
	if err != nil {
		log.ErrorContext(ctx, "failed to retrieve requester membership", logger.Error(err))
		reply(MessageRetrievalFailure)
		return OutcomeRetrievalFailure
	}

	decision := h.authorizer.Authorize(ctx, inv.Requester, view)
	h.metrics.Decision(ctx, decision.Allowed, string(decision.Reason))
	if !decision.Allowed {
		reply(MessageDenied)
		return OutcomeDenied
	}

	// Resolved: exactly one mutation attempt
	if h.mutator.Apply(ctx, inv.Target.ID, h.roleID, dir) != roles.Success {
		reply(MessageFailure)
		return OutcomeFailure
	}

	reply(SuccessMessage(inv.Command, inv.Target.Name(ctx)))
	return OutcomeSuccess
}

// replyFailure sends the generic failure message after a panic. A second panic is logged and dropped.
func replyFailure(ctx context.Context, log *slog.Logger, replier Replier) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "failure reply panicked", slog.Any("panic", r))
		}
	}()
	if err := replier.Reply(ctx, MessageFailure); err != nil {
		log.ErrorContext(ctx, "failed to send reply", logger.Error(err))
	}
}

// SuccessMessage names the target of a successful op or deop
func SuccessMessage(cmd Name, displayName string) string {
	if cmd == Deop {
		return fmt.Sprintf("Successfully de-opped %s", displayName)
	}
	return fmt.Sprintf("Successfully opped %s", displayName)
}
