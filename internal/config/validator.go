package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels lists the accepted log.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate reports every invalid value in c.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(c.Git.Binary) == "" {
		errs = append(errs, ValidationError{Field: "git.binary", Value: c.Git.Binary, Message: "must not be empty"})
	}
	if c.Git.CommandTimeout < 0 {
		errs = append(errs, ValidationError{Field: "git.command_timeout", Value: c.Git.CommandTimeout, Message: "must be non-negative"})
	}
	if c.Git.Concurrency < 1 {
		errs = append(errs, ValidationError{Field: "git.concurrency", Value: c.Git.Concurrency, Message: "must be at least 1"})
	}
	if strings.TrimSpace(c.Git.Remote) == "" {
		errs = append(errs, ValidationError{Field: "git.remote", Value: c.Git.Remote, Message: "must not be empty"})
	}
	if c.Worktree.MetadataTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "worktree.metadata_timeout", Value: c.Worktree.MetadataTimeout, Message: "must be positive"})
	}
	if strings.TrimSpace(c.Commit.DefaultBaseBranch) == "" {
		errs = append(errs, ValidationError{Field: "commit.default_base_branch", Value: c.Commit.DefaultBaseBranch, Message: "must not be empty"})
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be one of: " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	return errs
}
