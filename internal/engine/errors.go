package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/bluedoc/internal/blue"
)

// RuntimeError is a fatal condition detected while dispatching contracts.
// It aborts the current Initialize or ProcessEvents call.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// NodePath is the document node being processed, if any.
	NodePath string

	// Contract is the contract name being processed, if any.
	Contract string

	// Details carries extra diagnostic context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeLoopDetected means a non-external event chain reached the same
	// node and contract twice.
	ErrCodeLoopDetected RuntimeErrorCode = "LOOP_DETECTED"

	// ErrCodeCycleOverflow means a drain exceeded the step circuit breaker.
	ErrCodeCycleOverflow RuntimeErrorCode = "CYCLE_OVERFLOW"

	// ErrCodeInlineDepth means adapters re-emitted events too deeply.
	ErrCodeInlineDepth RuntimeErrorCode = "INLINE_DEPTH_EXCEEDED"

	// ErrCodeAdapterPatch means an adapter tried to patch the document.
	ErrCodeAdapterPatch RuntimeErrorCode = "ADAPTER_PATCH"

	// ErrCodeNotInitialized means ProcessEvents got an uninitialized document.
	ErrCodeNotInitialized RuntimeErrorCode = "NOT_INITIALIZED"

	// ErrCodeDuplicateProcessor means two processors claim one contract type.
	ErrCodeDuplicateProcessor RuntimeErrorCode = "DUPLICATE_PROCESSOR"

	// ErrCodeReservedKey means a reserved contract key holds the wrong type.
	ErrCodeReservedKey RuntimeErrorCode = "RESERVED_KEY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.NodePath != "" && e.Contract != "":
		return fmt.Sprintf("%s: %s (node=%s, contract=%s)", e.Code, e.Message, e.NodePath, e.Contract)
	case e.NodePath != "":
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodePath)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsLoopError reports whether err is a loop detection error.
func IsLoopError(err error) bool { return hasCode(err, ErrCodeLoopDetected) }

// IsCycleOverflowError reports whether err is a step breaker overflow.
func IsCycleOverflowError(err error) bool { return hasCode(err, ErrCodeCycleOverflow) }

// IsNotInitializedError reports whether err rejects an uninitialized document.
func IsNotInitializedError(err error) bool { return hasCode(err, ErrCodeNotInitialized) }

// IsDuplicateProcessorError reports whether err is a registration conflict.
func IsDuplicateProcessorError(err error) bool { return hasCode(err, ErrCodeDuplicateProcessor) }

func newLoopError(nodePath, contract, hop string) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeLoopDetected,
		Message:  fmt.Sprintf("event already passed %s", hop),
		NodePath: nodePath,
		Contract: contract,
		Details:  map[string]string{"hop": hop},
	}
}

func newCycleOverflowError(steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCycleOverflow,
		Message: fmt.Sprintf("drain exceeded max steps (%d > %d)", steps, maxSteps),
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

func newInlineDepthError(nodePath, contract string, depth int) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeInlineDepth,
		Message:  fmt.Sprintf("adapter recursion reached depth %d", depth),
		NodePath: nodePath,
		Contract: contract,
	}
}

func newAdapterPatchError(nodePath, contract string, p blue.Patch) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeAdapterPatch,
		Message:  fmt.Sprintf("adapters may only emit events, got patch %s", p),
		NodePath: nodePath,
		Contract: contract,
	}
}

func newNotInitializedError() *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotInitialized,
		Message: "document carries no initialized marker; call Initialize first",
	}
}

func newDuplicateProcessorError(contractType string, id blue.BlueID) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDuplicateProcessor,
		Message: fmt.Sprintf("processor for %q already registered", contractType),
		Details: map[string]string{"blue_id": string(id)},
	}
}

func newReservedKeyError(key string) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeReservedKey,
		Message:  fmt.Sprintf("reserved contract key %q holds a contract of another type", key),
		NodePath: "/",
		Contract: key,
	}
}

// GasBudgetExceededError is returned when a call spends more gas than its
// budget. Consumed includes the charge that crossed the budget.
type GasBudgetExceededError struct {
	Budget     int64
	Consumed   int64
	ExceededBy int64
	Reason     string
}

func (e *GasBudgetExceededError) Error() string {
	return fmt.Sprintf("gas budget %d exceeded by %d (consumed %d) at %s",
		e.Budget, e.ExceededBy, e.Consumed, e.Reason)
}

// IsGasError reports whether err is a GasBudgetExceededError.
func IsGasError(err error) bool {
	var ge *GasBudgetExceededError
	return errors.As(err, &ge)
}

// PatchApplicationError wraps a patch the document rejected.
type PatchApplicationError struct {
	Patch blue.Patch
	Cause error
}

func (e *PatchApplicationError) Error() string {
	return fmt.Sprintf("apply patch %s: %v", e.Patch, e.Cause)
}

func (e *PatchApplicationError) Unwrap() error {
	return e.Cause
}

// IsPatchError reports whether err is a PatchApplicationError.
func IsPatchError(err error) bool {
	var pe *PatchApplicationError
	return errors.As(err, &pe)
}

// EmbeddedDocumentModificationError rejects a patch that reaches into an
// embedded document from outside of it.
type EmbeddedDocumentModificationError struct {
	Patch           blue.Patch
	OffendingRegion string
	WriterPath      string
}

func (e *EmbeddedDocumentModificationError) Error() string {
	return fmt.Sprintf("patch %s from %s crosses into embedded document %s",
		e.Patch, e.WriterPath, e.OffendingRegion)
}

// IsIsolationError reports whether err is an EmbeddedDocumentModificationError.
func IsIsolationError(err error) bool {
	var ie *EmbeddedDocumentModificationError
	return errors.As(err, &ie)
}
