// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/madlen-ai/madlen-chat/internal/api"
	"github.com/madlen-ai/madlen-chat/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// NotFoundError represents a resource that the backend does not know.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UsageError is a bad argument or flag value.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// configError marks failures to load or validate configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// =============================================================================
// ERROR REPORTING
// =============================================================================

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	var (
		notFound *NotFoundError
		usage    *UsageError
		cfgErr   *configError
		valErrs  config.ValidateErrors
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &notFound):
		return ExitNotFoundError
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &valErrs):
		return ExitConfigError
	case api.StatusCode(err) == 404:
		return ExitNotFoundError
	case isTransportError(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// isTransportError reports whether err is a backend call that never got an
// HTTP response.
func isTransportError(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// PrintError writes err to w with a hint when one applies.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)
	if isTransportError(err) {
		fmt.Fprintln(w, DimStyle.Render("Is the gateway running? Start it with: madlen serve"))
	}
}
