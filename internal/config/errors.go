package config

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against *Error
var (
	ErrMissing   = errors.New("missing configuration")
	ErrMalformed = errors.New("malformed configuration")
)

// Kind classifies configuration errors
type Kind int

const (
	KindMissing Kind = iota + 1
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a fatal startup configuration problem for a single key
type Error struct {
	Kind  Kind
	Key   string
	Value string
	Err   error // Underlying parse error, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissing:
		return fmt.Sprintf("missing %s environment variable. use a .env file or set this variable in a script", e.Key)
	case KindMalformed:
		if e.Err != nil {
			return fmt.Sprintf("invalid %s %q: %v", e.Key, e.Value, e.Err)
		}
		return fmt.Sprintf("invalid %s %q", e.Key, e.Value)
	default:
		return fmt.Sprintf("config error on %s", e.Key)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMissing) and errors.Is(err, ErrMalformed) match by kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissing:
		return e.Kind == KindMissing
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

func missing(key string) *Error {
	return &Error{Kind: KindMissing, Key: key}
}

func malformed(key, value string, err error) *Error {
	return &Error{Kind: KindMalformed, Key: key, Value: value, Err: err}
}
