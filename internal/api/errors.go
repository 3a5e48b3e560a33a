package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
)

// Kind classifies a failed request.
type Kind string

const (
	KindConnectionRefused Kind = "connection_refused"
	KindTimeout           Kind = "timeout"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindRateLimited       Kind = "rate_limited"
	KindServer            Kind = "server_error"
	KindRequestFailed     Kind = "request_failed"
	KindTransport         Kind = "transport"
)

// Error is the normalized failure returned by Client.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	// Detail is the error/message field of the response body, when present.
	Detail    string
	RequestID string
	Err       error

	retryAfter time.Duration
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" && e.Detail != e.Message {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient reports whether the failure is expected to clear on retry.
func (e *Error) Transient() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindConnectionRefused, KindTimeout, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// AsError extracts the normalized error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransient reports whether err is a retryable *Error.
func IsTransient(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Transient()
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// classifyTransport maps a failure before any HTTP status was received.
// parent is the caller's context: its cancellation is reported as a terminal
// transport error, while the per-attempt deadline is a retryable timeout.
func classifyTransport(parent context.Context, err error, host string, timeout time.Duration) *Error {
	if parent != nil && parent.Err() != nil {
		return &Error{Kind: KindTransport, Message: "request canceled", Err: parent.Err()}
	}

	if isTimeout(err) {
		return &Error{Kind: KindTimeout, Message: fmt.Sprintf("request timed out after %s", timeout), Err: err}
	}

	if isConnectFailure(err) {
		return &Error{Kind: KindConnectionRefused, Message: fmt.Sprintf("cannot connect to %s", host), Err: err}
	}

	return &Error{Kind: KindTransport, Message: transportMessage(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// transportMessage strips the url.Error prefix so the message names the cause.
func transportMessage(err error) string {
	if err == nil {
		return "request failed"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// classifyStatus maps a non-2xx response.
func classifyStatus(statusCode int, header http.Header, body []byte) *Error {
	detail := bodyMessage(body)
	apiErr := &Error{StatusCode: statusCode, Detail: detail}

	switch {
	case statusCode == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
		apiErr.Message = "invalid credentials"
	case statusCode == http.StatusForbidden:
		apiErr.Kind = KindForbidden
		apiErr.Message = "access forbidden"
	case statusCode == http.StatusNotFound:
		apiErr.Kind = KindNotFound
		apiErr.Message = "resource not found"
	case statusCode == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimited
		apiErr.Message = "rate limit exceeded"
		apiErr.retryAfter = retryAfter(header)
	case statusCode >= http.StatusInternalServerError:
		apiErr.Kind = KindServer
		apiErr.Message = fmt.Sprintf("server error (%d)", statusCode)
	default:
		apiErr.Kind = KindRequestFailed
		if detail != "" {
			apiErr.Message = detail
			apiErr.Detail = ""
		} else if text := http.StatusText(statusCode); text != "" {
			apiErr.Message = fmt.Sprintf("request failed: %s (%d)", strings.ToLower(text), statusCode)
		} else {
			apiErr.Message = fmt.Sprintf("request failed with status %d", statusCode)
		}
	}

	return apiErr
}

// bodyMessage pulls a human-readable message out of a JSON error body.
// Accepts {"error":"..."}, {"error":{"message":"..."}} and {"message":"..."}.
func bodyMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	errField := gjson.GetBytes(body, "error")
	switch {
	case errField.Type == gjson.String:
		if msg := strings.TrimSpace(errField.String()); msg != "" {
			return msg
		}
	case errField.IsObject():
		if msg := strings.TrimSpace(errField.Get("message").String()); msg != "" {
			return msg
		}
	}

	return strings.TrimSpace(gjson.GetBytes(body, "message").String())
}

func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(value); err == nil {
		if wait := time.Until(parsed); wait > 0 {
			return wait
		}
	}
	return 0
}
