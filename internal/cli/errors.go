// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for CLI commands.
//
// Commands ALWAYS return errors rather than printing and returning nil;
// main decides how to display them and which exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general or unknown error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error.
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached.
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found.
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out.
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError marks a malformed command line. main prints the message and
// a pointer to help, and exits with ExitUsageError.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// ExitCodeForError maps an error to the process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var validationErr *config.ValidationError
	var validateErrs *config.ValidateErrors
	if errors.As(err, &validationErr) || errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	var clientErr *backend.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case backend.ErrTypeUnreachable, backend.ErrTypeConnection:
			return ExitNetworkError
		case backend.ErrTypeTimeout:
			return ExitTimeoutError
		case backend.ErrTypeNotFound:
			return ExitNotFoundError
		}
	}

	return ExitGeneralError
}

// FormatError turns an error into the line shown to the user, replacing
// raw transport errors with actionable messages.
func FormatError(err error, endpoint string) string {
	if err == nil {
		return ""
	}

	var clientErr *backend.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case backend.ErrTypeUnreachable, backend.ErrTypeConnection:
			return fmt.Sprintf("Cannot reach the ricky server at %s.\nStart it with: ricky serve", endpoint)
		case backend.ErrTypeTimeout:
			return "The request timed out. The model may still be loading; try again in a moment."
		case backend.ErrTypeNotFound:
			return fmt.Sprintf("The server at %s does not speak the ricky chat API.\nCheck backend.endpoint with: ricky config get backend.endpoint", endpoint)
		}
		return clientErr.Error()
	}

	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}

	return err.Error()
}
