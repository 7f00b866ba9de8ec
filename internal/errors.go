package internal

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrBlankInput        = errors.New("blank input")
	ErrTurnInProgress    = errors.New("turn in progress")
	ErrGatewayFailure    = errors.New("gateway failure")
)

// IdentifierError reports a persona or model id missing from its catalog
type IdentifierError struct {
	Kind string // "persona", "model"
	ID   string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *IdentifierError) Is(target error) bool {
	return target == ErrUnknownIdentifier
}

// FailureKind classifies a gateway failure
type FailureKind string

const (
	FailureNetwork  FailureKind = "network"
	FailureRemote   FailureKind = "remote"
	FailureProtocol FailureKind = "protocol"
	FailureCanceled FailureKind = "canceled"
)

// GatewayError represents a failed completion stream
type GatewayError struct {
	Kind    FailureKind
	Status  int // HTTP status when the remote service answered, else 0
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway failure [%s] status %d: %s", e.Kind, e.Status, e.Reason())
	}
	return fmt.Sprintf("gateway failure [%s]: %s", e.Kind, e.Reason())
}

// Reason returns the human-readable cause
func (e *GatewayError) Reason() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "unspecified failure"
	}
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGatewayFailure
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// CatalogError represents errors loading persona and model catalogs
type CatalogError struct {
	Source string
	Op     string // "read", "parse", "validate"
	Err    error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error: %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UserMessage turns a session error into text suitable for a chat front-end
func UserMessage(err error) string {
	var gwErr *GatewayError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBlankInput):
		return "Please enter a message."
	case errors.Is(err, ErrTurnInProgress):
		return "Please wait for the current reply to finish."
	case errors.As(err, &gwErr):
		if gwErr.Kind == FailureCanceled {
			return "The reply was canceled."
		}
		return "The completion service failed: " + gwErr.Reason()
	default:
		return err.Error()
	}
}
