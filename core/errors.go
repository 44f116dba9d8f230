package core

import "fmt"

// ErrorKind enumerates the executor's own infrastructure failures, distinct
// from the per-call ServiceResponse error codes services return.
type ErrorKind int

const (
	// ErrNotFoundService means a transaction or genesis param named a
	// service the registry never registered.
	ErrNotFoundService ErrorKind = iota
	// ErrNotFoundMethod means the requested method string matched no
	// dispatch target ("write" vs "read" mismatch, or unknown verb).
	ErrNotFoundMethod
	// ErrJSONParse means a payload failed to unmarshal.
	ErrJSONParse
	// ErrInitService means a service's Genesis call returned an error or
	// panicked.
	ErrInitService
	// ErrQueryService means a read-only call panicked or returned an
	// infrastructure error.
	ErrQueryService
	// ErrCallService means a write call panicked or returned an
	// infrastructure error.
	ErrCallService
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFoundService:
		return "not_found_service"
	case ErrNotFoundMethod:
		return "not_found_method"
	case ErrJSONParse:
		return "json_parse"
	case ErrInitService:
		return "init_service"
	case ErrQueryService:
		return "query_service"
	case ErrCallService:
		return "call_service"
	default:
		return "unknown"
	}
}

// ExecutorError is the executor's infrastructure error type. It is distinct
// from a ServiceResponse error: a ServiceResponse error is business logic
// the caller is meant to see; an ExecutorError means the pipeline itself
// could not complete the requested operation.
type ExecutorError struct {
	Kind    ErrorKind
	Service string
	Method  string
	Detail  string
}

func (e *ExecutorError) Error() string {
	switch {
	case e.Service != "" && e.Method != "":
		return fmt.Sprintf("executor: %s: service=%q method=%q: %s", e.Kind, e.Service, e.Method, e.Detail)
	case e.Service != "":
		return fmt.Sprintf("executor: %s: service=%q: %s", e.Kind, e.Service, e.Detail)
	default:
		return fmt.Sprintf("executor: %s: %s", e.Kind, e.Detail)
	}
}
