package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the provider error taxonomy. Callers branch with
// errors.Is; the concrete types below carry the human-readable detail.
var (
	// ErrConnectionFailed marks engines that cannot be opened or reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSafetyViolation marks contract violations that would otherwise
	// widen a mutation: an empty identifier filter, an empty update set.
	ErrSafetyViolation = errors.New("safety violation")

	// ErrQuerySyntax marks query text that matches no recognized shape or
	// contains an unparseable filter literal.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrUnsupportedFeature marks recognized-but-unimplemented operations,
	// reported distinctly from syntax errors.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrDataShape marks malformed transfer data (mismatched CSV rows,
	// empty export sources).
	ErrDataShape = errors.New("data shape error")

	// ErrAdapterNotFound is returned when no adapter is registered for an
	// engine.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrTableNotFound is returned when a table or collection does not
	// exist.
	ErrTableNotFound = errors.New("table not found")
)

// DatabaseError wraps an engine error with the engine and operation it came
// from so messages stay actionable without caller-side reinterpretation.
type DatabaseError struct {
	Engine    Engine
	Operation string
	Cause     error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Engine, e.Operation, e.Cause)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// WrapError wraps err with engine context unless it is already wrapped.
func WrapError(engine Engine, operation string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return &DatabaseError{Engine: engine, Operation: operation, Cause: err}
}

// SafetyError reports a mutation that was refused before reaching the
// engine.
type SafetyError struct {
	Engine    Engine
	Operation string
	Reason    string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf("[%s] %s refused: %s", e.Engine, e.Operation, e.Reason)
}

func (e *SafetyError) Is(target error) bool {
	return target == ErrSafetyViolation
}

// NewSafetyViolationError creates a SafetyError.
func NewSafetyViolationError(engine Engine, operation, reason string) *SafetyError {
	return &SafetyError{Engine: engine, Operation: operation, Reason: reason}
}

// QuerySyntaxError reports unparseable query text together with guidance on
// the accepted syntaxes.
type QuerySyntaxError struct {
	Engine   Engine
	Detail   string
	Guidance string
}

func (e *QuerySyntaxError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("[%s] %s. %s", e.Engine, e.Detail, e.Guidance)
	}
	return fmt.Sprintf("[%s] %s", e.Engine, e.Detail)
}

func (e *QuerySyntaxError) Is(target error) bool {
	return target == ErrQuerySyntax
}

// NewQuerySyntaxError creates a QuerySyntaxError.
func NewQuerySyntaxError(engine Engine, detail, guidance string) *QuerySyntaxError {
	return &QuerySyntaxError{Engine: engine, Detail: detail, Guidance: guidance}
}

// UnsupportedError reports an operation an engine recognizes but does not
// implement.
type UnsupportedError struct {
	Engine    Engine
	Operation string
	Reason    string
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.Engine, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.Engine, e.Operation)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupportedFeature
}

// NewUnsupportedError creates an UnsupportedError.
func NewUnsupportedError(engine Engine, operation, reason string) *UnsupportedError {
	return &UnsupportedError{Engine: engine, Operation: operation, Reason: reason}
}

// ConnectionError reports a failure to open or reach an engine. The native
// client message is preserved verbatim in Cause.
type ConnectionError struct {
	Engine Engine
	Cause  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Engine, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a ConnectionError.
func NewConnectionError(engine Engine, cause error) *ConnectionError {
	return &ConnectionError{Engine: engine, Cause: cause}
}

// DataShapeError reports malformed transfer data.
type DataShapeError struct {
	Engine Engine
	Detail string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Engine, e.Detail)
}

func (e *DataShapeError) Is(target error) bool {
	return target == ErrDataShape
}

// NewDataShapeError creates a DataShapeError.
func NewDataShapeError(engine Engine, detail string) *DataShapeError {
	return &DataShapeError{Engine: engine, Detail: detail}
}

// IsSafetyViolation reports whether err is a refused mutation.
func IsSafetyViolation(err error) bool {
	return errors.Is(err, ErrSafetyViolation)
}

// IsUnsupported reports whether err is a recognized-but-unimplemented
// operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedFeature)
}

// IsQuerySyntax reports whether err is a query syntax error.
func IsQuerySyntax(err error) bool {
	return errors.Is(err, ErrQuerySyntax)
}
