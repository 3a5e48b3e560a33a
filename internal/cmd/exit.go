package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
)

// HandleError reports err on stderr and returns the semantic exit code for
// it. A nil err returns 0.
func HandleError(err error) int {
	if err == nil {
		return 0
	}
	return reportError(os.Stderr, observability.Logger(), err)
}

// reportError logs the envelope for err with exit code metadata, prints one
// short line (plus an optional hint) to w, and returns the exit code.
func reportError(w io.Writer, logger *logging.Logger, err error) int {
	envelope := errwrap.EnsureEnvelope(err)
	exitCode := errwrap.ExitCodeFromEnvelope(envelope)

	if logger != nil {
		logger.Debug("Command failed", errorFields(envelope, exitCode)...)
	}

	_, _ = fmt.Fprintf(w, "Error: %s\n", envelope.Message)
	if hint := errorHint(envelope.Code); hint != "" {
		_, _ = fmt.Fprintln(w, hint)
	}
	return int(exitCode)
}

func errorFields(envelope *errors.ErrorEnvelope, exitCode foundry.ExitCode) []zap.Field {
	fields := []zap.Field{
		zap.Int("exit_code", int(exitCode)),
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}

	// Get exit code metadata from foundry catalog
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fields = append(fields,
			zap.String("exit_name", info.Name),
			zap.String("exit_category", info.Category),
		)
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if envelope.Original != nil {
		if originalErr, ok := envelope.Original.(error); ok {
			fields = append(fields, zap.Error(originalErr))
		}
	}
	return fields
}

func errorHint(code string) string {
	switch code {
	case errwrap.CodeUnauthorized, errwrap.CodeMissingCredentials:
		return fmt.Sprintf("Run '%s login' to store a valid API key.", binaryName)
	case errwrap.CodeRateLimited:
		return "The platform is rate limiting requests; try again shortly or lower rate_limit.max_requests."
	case errwrap.CodeConfigNotFound:
		return fmt.Sprintf("Check --config, or run '%s config path' to see the default location.", binaryName)
	default:
		return ""
	}
}
