package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrConnectorNotFound    = errors.New("connector not found")
	ErrConnectorInUse       = errors.New("connector is used by a tracked extension")
	ErrUnknownConnectorType = errors.New("unknown connector type")
	ErrExtensionNotFound    = errors.New("extension not found")
	ErrRepositoryRequired   = errors.New("the repository field must not be empty")
	ErrRepositoryExists     = errors.New("the repository already exists")
	ErrOwnerRequired        = errors.New("the owner field must not be empty")
	ErrNoRemoteVersion      = errors.New("no remote version to install")
	ErrGitCheckout          = errors.New("installation folder is a git checkout")
)

// ConnectorError wraps errors with connector context
type ConnectorError struct {
	ID  string
	Op  string
	Err error
}

func (e *ConnectorError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("connector: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connector %s: %s: %v", e.ID, e.Op, e.Err)
}

func (e *ConnectorError) Unwrap() error {
	return e.Err
}

// NewConnectorError creates a new connector error
func NewConnectorError(id, op string, err error) *ConnectorError {
	return &ConnectorError{ID: id, Op: op, Err: err}
}

// ExtensionError wraps errors with extension context
type ExtensionError struct {
	Kind       string
	Repository string
	Op         string
	Err        error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Repository, e.Op, e.Err)
}

func (e *ExtensionError) Unwrap() error {
	return e.Err
}

// NewExtensionError creates a new extension error
func NewExtensionError(kind, repository, op string, err error) *ExtensionError {
	return &ExtensionError{Kind: kind, Repository: repository, Op: op, Err: err}
}
