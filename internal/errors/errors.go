// Package errors maps failures from the request wrapper and the CLI into
// gofulmen error envelopes and semantic exit codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/config"
)

// Error codes carried in envelopes.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeConfigInvalid        = "CONFIG_INVALID"
	CodeConfigNotFound       = "CONFIG_NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeRateLimited          = "RATE_LIMITED"
	CodeTimeout              = "TIMEOUT"
	CodeExternalService      = "EXTERNAL_SERVICE_ERROR"
	CodeRequestFailed        = "REQUEST_FAILED"
	CodePartialFailure       = "PARTIAL_FAILURE"
	CodeCanceled             = "CANCELED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeMissingCredentials   = "MISSING_CREDENTIALS"
	CodeDataProcessingFailed = "DATA_PROCESSING_ERROR"
)

// User Errors

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

func NewMissingCredentialsError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMissingCredentials, message)
}

// NewPartialFailureError reports a fan-out where some branches failed.
func NewPartialFailureError(failed, total int) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(CodePartialFailure, fmt.Sprintf("%d of %d requests failed", failed, total))
	env, _ = env.WithContext(map[string]interface{}{
		"failed": failed,
		"total":  total,
	})
	env, _ = env.WithSeverity(errors.SeverityMedium)
	return env
}

// Wrap functions for existing errors

func WrapInvalidInput(err error, message string) *errors.ErrorEnvelope {
	return withWrappedError(errors.NewErrorEnvelope(CodeInvalidInput, message), err)
}

func WrapConfigInvalid(err error, message string) *errors.ErrorEnvelope {
	return withWrappedError(errors.NewErrorEnvelope(CodeConfigInvalid, message), err)
}

func WrapDataProcessing(err error, message string) *errors.ErrorEnvelope {
	return withWrappedError(errors.NewErrorEnvelope(CodeDataProcessingFailed, message), err)
}

// FromAPIError converts a normalized request error into an envelope. The
// request id of the failing attempt becomes the correlation id.
func FromAPIError(apiErr *api.Error) *errors.ErrorEnvelope {
	if apiErr == nil {
		return EnsureEnvelope(nil)
	}

	code := codeForKind(apiErr.Kind)
	if stderrors.Is(apiErr.Err, context.Canceled) {
		code = CodeCanceled
	}
	env := errors.NewErrorEnvelope(code, apiErr.Error())

	details := map[string]interface{}{
		"kind": string(apiErr.Kind),
	}
	if apiErr.StatusCode != 0 {
		details["status_code"] = apiErr.StatusCode
	}
	if apiErr.Detail != "" {
		details["detail"] = apiErr.Detail
	}
	if updated, err := env.WithContext(details); err == nil {
		env = updated
	}

	severity := errors.SeverityMedium
	if apiErr.Transient() || apiErr.Kind == api.KindTransport {
		severity = errors.SeverityHigh
	}
	if updated, err := env.WithSeverity(severity); err == nil {
		env = updated
	}

	if apiErr.RequestID != "" {
		env = env.WithCorrelationID(apiErr.RequestID)
	}
	env.Original = apiErr
	return env
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	if apiErr, ok := api.AsError(err); ok {
		return FromAPIError(apiErr)
	}

	switch {
	case stderrors.Is(err, config.ErrConfigNotFound):
		return withOriginal(errors.NewErrorEnvelope(CodeConfigNotFound, err.Error()), err)
	case stderrors.Is(err, context.Canceled):
		return withOriginal(errors.NewErrorEnvelope(CodeCanceled, "canceled"), err)
	}

	env := errors.NewErrorEnvelope(CodeInternal, err.Error())
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return withOriginal(env, err)
}

// ExitCode resolves the process exit code for err.
func ExitCode(err error) foundry.ExitCode {
	return ExitCodeFromEnvelope(EnsureEnvelope(err))
}

// ExitCodeFromEnvelope resolves the exit code corresponding to an envelope.
func ExitCodeFromEnvelope(envelope *errors.ErrorEnvelope) foundry.ExitCode {
	if envelope == nil {
		return foundry.ExitFailure
	}
	return ExitCodeFromCode(envelope.Code)
}

// ExitCodeFromCode resolves the exit code corresponding to an error code.
func ExitCodeFromCode(code string) foundry.ExitCode {
	switch code {
	case CodeExternalService, CodeTimeout, CodeRateLimited:
		return foundry.ExitExternalServiceUnavailable
	case CodeUnauthorized, CodeConfigInvalid, CodeMissingCredentials:
		return foundry.ExitConfigInvalid
	case CodeConfigNotFound:
		return foundry.ExitFileNotFound
	default:
		return foundry.ExitFailure
	}
}

func codeForKind(kind api.Kind) string {
	switch kind {
	case api.KindConnectionRefused, api.KindServer:
		return CodeExternalService
	case api.KindTimeout:
		return CodeTimeout
	case api.KindUnauthorized:
		return CodeUnauthorized
	case api.KindForbidden:
		return CodeForbidden
	case api.KindNotFound:
		return CodeNotFound
	case api.KindRateLimited:
		return CodeRateLimited
	case api.KindRequestFailed:
		return CodeRequestFailed
	default:
		return CodeExternalService
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return withOriginal(envelope, err)
	}
	return withOriginal(updated, err)
}

func withOriginal(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	envelope.Original = err
	return envelope
}
