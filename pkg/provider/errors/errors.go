// Package errors implements the gateway's closed error-kind taxonomy, in a
// struct-per-kind style: Error()/Unwrap()/IsXError/NewXError.
package errors

import (
	"errors"
	"fmt"
)

// BadRequestError: malformed inbound JSON, missing/invalid model id.
type BadRequestError struct {
	Message string
	Cause   error
}

func (e *BadRequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bad request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bad request: %s", e.Message)
}
func (e *BadRequestError) Unwrap() error { return e.Cause }
func IsBadRequestError(err error) bool {
	var e *BadRequestError
	return errors.As(err, &e)
}
func NewBadRequestError(message string, cause error) *BadRequestError {
	return &BadRequestError{Message: message, Cause: cause}
}

// NoCredentialsError: provider has no credential record or no apiKey.
type NoCredentialsError struct {
	Provider string
}

func (e *NoCredentialsError) Error() string {
	return fmt.Sprintf("no credentials configured for provider %q", e.Provider)
}
func IsNoCredentialsError(err error) bool {
	var e *NoCredentialsError
	return errors.As(err, &e)
}
func NewNoCredentialsError(provider string) *NoCredentialsError {
	return &NoCredentialsError{Provider: provider}
}

// UnknownProviderError: provider id not registered.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("Unsupported provider: %s", e.Provider)
}
func IsUnknownProviderError(err error) bool {
	var e *UnknownProviderError
	return errors.As(err, &e)
}
func NewUnknownProviderError(provider string) *UnknownProviderError {
	return &UnknownProviderError{Provider: provider}
}

// AuthRefreshFailedError: an OAuth refresh call failed.
type AuthRefreshFailedError struct {
	Provider string
	Cause    error
}

func (e *AuthRefreshFailedError) Error() string {
	return fmt.Sprintf("refresh failed for provider %q: %v", e.Provider, e.Cause)
}
func (e *AuthRefreshFailedError) Unwrap() error { return e.Cause }
func IsAuthRefreshFailedError(err error) bool {
	var e *AuthRefreshFailedError
	return errors.As(err, &e)
}
func NewAuthRefreshFailedError(provider string, cause error) *AuthRefreshFailedError {
	return &AuthRefreshFailedError{Provider: provider, Cause: cause}
}

// UpstreamRejectedError: upstream responded with a non-2xx status.
type UpstreamRejectedError struct {
	Provider    string
	Status      int
	BodyExcerpt string
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("%s rejected the request (status %d): %s", e.Provider, e.Status, e.BodyExcerpt)
}
func IsUpstreamRejectedError(err error) bool {
	var e *UpstreamRejectedError
	return errors.As(err, &e)
}
func NewUpstreamRejectedError(provider string, status int, bodyExcerpt string) *UpstreamRejectedError {
	const maxExcerpt = 2048
	if len(bodyExcerpt) > maxExcerpt {
		bodyExcerpt = bodyExcerpt[:maxExcerpt]
	}
	return &UpstreamRejectedError{Provider: provider, Status: status, BodyExcerpt: bodyExcerpt}
}

// UpstreamUnreachableError: socket/connection failure reaching upstream.
type UpstreamUnreachableError struct {
	Provider string
	Cause    error
}

func (e *UpstreamUnreachableError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Provider, e.Cause)
}
func (e *UpstreamUnreachableError) Unwrap() error { return e.Cause }
func IsUpstreamUnreachableError(err error) bool {
	var e *UpstreamUnreachableError
	return errors.As(err, &e)
}
func NewUpstreamUnreachableError(provider string, cause error) *UpstreamUnreachableError {
	return &UpstreamUnreachableError{Provider: provider, Cause: cause}
}

// TimeoutError: a streaming call or subprocess exceeded its wall-clock budget.
type TimeoutError struct {
	Provider string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Provider)
}
func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}
func NewTimeoutError(provider string) *TimeoutError {
	return &TimeoutError{Provider: provider}
}

// SubprocessFailedError: the cursor-agent child process exited abnormally.
type SubprocessFailedError struct {
	ExitCode      int
	StderrExcerpt string
}

func (e *SubprocessFailedError) Error() string {
	return fmt.Sprintf("cursor-agent exited with code %d: %s", e.ExitCode, e.StderrExcerpt)
}
func IsSubprocessFailedError(err error) bool {
	var e *SubprocessFailedError
	return errors.As(err, &e)
}
func NewSubprocessFailedError(exitCode int, stderrExcerpt string) *SubprocessFailedError {
	return &SubprocessFailedError{ExitCode: exitCode, StderrExcerpt: stderrExcerpt}
}

// ProtocolParseFailedError: a stream line or response body could not be
// decoded. A single malformed stream line is swallowed by the adapter (the
// line is skipped); this kind surfaces only for non-recoverable parse
// failures (e.g. the initial non-streaming response body).
type ProtocolParseFailedError struct {
	Provider string
	Cause    error
}

func (e *ProtocolParseFailedError) Error() string {
	return fmt.Sprintf("%s protocol parse failed: %v", e.Provider, e.Cause)
}
func (e *ProtocolParseFailedError) Unwrap() error { return e.Cause }
func IsProtocolParseFailedError(err error) bool {
	var e *ProtocolParseFailedError
	return errors.As(err, &e)
}
func NewProtocolParseFailedError(provider string, cause error) *ProtocolParseFailedError {
	return &ProtocolParseFailedError{Provider: provider, Cause: cause}
}
