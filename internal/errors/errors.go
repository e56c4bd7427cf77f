// Package errors provides standardized error handling for the dropd
// application. It defines common error types, constants, and helper functions
// for consistent error creation, wrapping, and handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound          = NewFileError("file not found", "", FileNotFound, nil)
	ErrFileAccess            = NewFileError("file access denied", "", FileAccessDenied, nil)
	ErrInvalidPath           = NewFileError("invalid file path", "", InvalidPath, nil)
	ErrInvalidConfig         = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrNegotiationExhausted  = NewKind("no usable representation offered", NegotiationExhausted)
	ErrClassificationUnknown = NewKind("type identifier not recognized", ClassificationUnknown)
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileCreateFailed
	WriteFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Drop resolution error kinds
	NegotiationExhausted
	RepresentationLoadFailed
	ClassificationUnknown
	// Network error kinds
	NetworkFetchFailed
	UnsupportedScheme
	// Watch error kinds
	WatchFailed
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// kinder is implemented by every error type in this package.
type kinder interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first kinded error in err's chain,
// or Unknown if the chain carries none.
func KindOf(err error) ErrorKind {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// FetchError represents errors related to remote content retrieval
type FetchError struct {
	ApplicationError
	url string
}

// NewFetchError creates a new fetch error
func NewFetchError(msg string, url string, kind ErrorKind, err error) *FetchError {
	return &FetchError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		url: url,
	}
}

// Error returns the fetch error message
func (e *FetchError) Error() string {
	if e.url != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.url, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.url)
	}
	return e.ApplicationError.Error()
}

// URL returns the url associated with the error
func (e *FetchError) URL() string {
	return e.url
}

// ResolveError represents errors raised while resolving a payload
// representation into concrete content
type ResolveError struct {
	ApplicationError
	identifier string
}

// NewResolveError creates a new resolve error
func NewResolveError(msg string, identifier string, kind ErrorKind, err error) *ResolveError {
	return &ResolveError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		identifier: identifier,
	}
}

// Error returns the resolve error message
func (e *ResolveError) Error() string {
	if e.identifier != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.identifier, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.identifier)
	}
	return e.ApplicationError.Error()
}

// Identifier returns the type identifier associated with the error
func (e *ResolveError) Identifier() string {
	return e.identifier
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// NewKind creates a new error with a message and an explicit kind
func NewKind(msg string, kind ErrorKind) error {
	return &ApplicationError{
		msg:  msg,
		kind: kind,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// WrapKind wraps an existing error with additional context and an explicit kind
func WrapKind(err error, msg string, kind ErrorKind) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: kind,
	}
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsFileAccessDenied checks if the error is a file access denied error
func IsFileAccessDenied(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileAccessDenied
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsWriteFailed checks if the error is a destination write error
func IsWriteFailed(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == WriteFailed || fileErr.Kind() == FileCreateFailed
	}
	kind := KindOf(err)
	return kind == WriteFailed || kind == FileCreateFailed
}

// IsNegotiationExhausted checks if the error means no offered representation
// was usable
func IsNegotiationExhausted(err error) bool {
	return KindOf(err) == NegotiationExhausted
}

// IsRepresentationLoadFailed checks if the error is a provider load failure
func IsRepresentationLoadFailed(err error) bool {
	var resErr *ResolveError
	if errors.As(err, &resErr) {
		return resErr.Kind() == RepresentationLoadFailed
	}
	return KindOf(err) == RepresentationLoadFailed
}

// IsClassificationUnknown checks if the error is an unrecognized type identifier
func IsClassificationUnknown(err error) bool {
	return KindOf(err) == ClassificationUnknown
}

// IsNetworkFetchFailed checks if the error is a remote retrieval failure.
// Scheme rejections count: they are fetch failures that never reached the
// network.
func IsNetworkFetchFailed(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind() == NetworkFetchFailed || fetchErr.Kind() == UnsupportedScheme
	}
	kind := KindOf(err)
	return kind == NetworkFetchFailed || kind == UnsupportedScheme
}

// IsUnsupportedScheme checks if the error is a rejected url scheme
func IsUnsupportedScheme(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind() == UnsupportedScheme
	}
	return KindOf(err) == UnsupportedScheme
}

// IsWatchFailed checks if the error is a directory watch failure
func IsWatchFailed(err error) bool {
	return KindOf(err) == WatchFailed
}
