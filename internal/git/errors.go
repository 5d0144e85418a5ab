package git

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures. Callers branch on the kind, never on the
// message text.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotARepository
	KindCommandFailed
	KindNoHistory
	KindMissingBaseBranch
	KindNoChangesToCommit
	KindInvalidRequest
	KindInvalidBaseline
	KindTargetNotFound
	KindCrossRepositoryUnsupported
	KindParseFailed
	KindDescriptorNotFound
	KindTimedOut
)

func (k Kind) String() string {
	switch k {
	case KindNotARepository:
		return "not a repository"
	case KindCommandFailed:
		return "command failed"
	case KindNoHistory:
		return "no history"
	case KindMissingBaseBranch:
		return "missing base branch"
	case KindNoChangesToCommit:
		return "no changes to commit"
	case KindInvalidRequest:
		return "invalid request"
	case KindInvalidBaseline:
		return "invalid baseline"
	case KindTargetNotFound:
		return "target not found"
	case KindCrossRepositoryUnsupported:
		return "cross-repository comparison unsupported"
	case KindParseFailed:
		return "parse failed"
	case KindDescriptorNotFound:
		return "descriptor not found"
	case KindTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of the same kind.
var (
	ErrNotARepository             = &Error{Kind: KindNotARepository}
	ErrCommandFailed              = &Error{Kind: KindCommandFailed}
	ErrNoHistory                  = &Error{Kind: KindNoHistory}
	ErrMissingBaseBranch          = &Error{Kind: KindMissingBaseBranch}
	ErrNoChangesToCommit          = &Error{Kind: KindNoChangesToCommit}
	ErrInvalidRequest             = &Error{Kind: KindInvalidRequest}
	ErrInvalidBaseline            = &Error{Kind: KindInvalidBaseline}
	ErrTargetNotFound             = &Error{Kind: KindTargetNotFound}
	ErrCrossRepositoryUnsupported = &Error{Kind: KindCrossRepositoryUnsupported}
	ErrParseFailed                = &Error{Kind: KindParseFailed}
	ErrDescriptorNotFound         = &Error{Kind: KindDescriptorNotFound}
	ErrTimedOut                   = &Error{Kind: KindTimedOut}
)

// Error is the typed failure surfaced by the repository and worktree
// services.
//
// Example:
//
//	err := git.NewError(git.KindCommandFailed, stderr).WithPath(dir).WithArgs(args)
type Error struct {
	Kind   Kind
	Detail string
	Path   string
	Args   []string
	Cause  error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: strings.TrimSpace(detail)}
}

// Errorf creates an Error with a formatted detail.
func Errorf(kind Kind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// WithPath records the working directory the failure relates to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithArgs records the git argument vector that failed.
func (e *Error) WithArgs(args []string) *Error {
	e.Args = append([]string(nil), args...)
	return e
}

// WithCause records the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Args) > 0 {
		fmt.Fprintf(&b, " (git %s)", strings.Join(e.Args, " "))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " [%s]", e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsExpected reports whether err describes a displayable repository state
// rather than a failure.
func IsExpected(err error) bool {
	switch KindOf(err) {
	case KindNotARepository, KindMissingBaseBranch:
		return true
	default:
		return false
	}
}
