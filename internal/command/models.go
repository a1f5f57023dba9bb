package command

import (
	"context"
	"errors"
	"strings"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/roles"
)

// ErrMembershipUnavailable means the requester's roles could not be determined.
// It is distinct from an authorization denial.
var ErrMembershipUnavailable = errors.New("requester membership unavailable")

// Name identifies a chat command
type Name string

const (
	Op   Name = "op"
	Deop Name = "deop"
)

// Names lists every command the bot exposes
var Names = []Name{Op, Deop}

// ParseName maps user input to a command name, case-insensitively
func ParseName(s string) (Name, bool) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	_, ok := n.Direction()
	return n, ok
}

// Direction returns the role mutation a command performs
func (n Name) Direction() (roles.Direction, bool) {
	switch n {
	case Op:
		return roles.Grant, true
	case Deop:
		return roles.Revoke, true
	default:
		return 0, false
	}
}

// Description is the help text shown by the platform
func (n Name) Description() string {
	switch n {
	case Op:
		return "Op a user"
	case Deop:
		return "De-op a user"
	default:
		return ""
	}
}

// Target is the user a command acts on.
// Resolve, if set, looks up the display name when DisplayName is empty; it is only
// called once a reply needs the name.
type Target struct {
	ID          authz.Identity
	DisplayName string
	Resolve     func(ctx context.Context) string
}

// Name returns the display name, resolving it on demand, or the raw id
func (t Target) Name(ctx context.Context) string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	if t.Resolve != nil {
		if name := t.Resolve(ctx); name != "" {
			return name
		}
	}
	return t.ID.String()
}

// Invocation is one parsed command
type Invocation struct {
	Command   Name
	Source    string // slash or prefix
	Requester authz.Identity
	Target    Target
}

// Outcome is how an invocation ended
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeDenied           Outcome = "denied"
	OutcomeFailure          Outcome = "failure"
	OutcomeRetrievalFailure Outcome = "retrieval_failure"
	OutcomeUsage            Outcome = "usage"
)

// User-facing messages
const (
	MessageDenied           = "You do not have permission to run this command."
	MessageFailure          = "An error has occurred."
	MessageRetrievalFailure = "Could not verify your permissions. Please try again later."
)

// Usage is the reply for a command without a usable target
func Usage(n Name) string {
	if _, ok := n.Direction(); !ok {
		return "Usage: op <user> | deop <user>"
	}
	return "Usage: " + string(n) + " <user>"
}

// MembershipSource retrieves a requester's current roles
type MembershipSource interface {
	Membership(ctx context.Context, requester authz.Identity) (authz.MembershipView, error)
}

// MembershipFunc adapts a function to MembershipSource
type MembershipFunc func(ctx context.Context, requester authz.Identity) (authz.MembershipView, error)

func (f MembershipFunc) Membership(ctx context.Context, requester authz.Identity) (authz.MembershipView, error) {
	return f(ctx, requester)
}

// Replier delivers the single outcome message of an invocation
type Replier interface {
	Reply(ctx context.Context, message string) error
}

// ReplierFunc adapts a function to Replier
type ReplierFunc func(ctx context.Context, message string) error

func (f ReplierFunc) Reply(ctx context.Context, message string) error {
	return f(ctx, message)
}
