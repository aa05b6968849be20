package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Class is the stage a request failed in. It decides the public error kind
// and the HTTP status.
type Class int

const (
	ClassValidation Class = iota + 1
	ClassTranslation
	ClassCompile
	ClassEvaluation
	ClassProjection
	ClassLoad
)

// Kind returns the error type reported to clients.
func (c Class) Kind() string {
	switch c {
	case ClassValidation:
		return "validation_error"
	case ClassTranslation:
		return "llm_error"
	case ClassCompile:
		return "query_execution_error"
	default:
		return "response_build_error"
	}
}

// Status returns the HTTP status for the class.
func (c Class) Status() int {
	switch c {
	case ClassValidation, ClassCompile:
		return http.StatusBadRequest
	case ClassTranslation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (c Class) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassTranslation:
		return "translation"
	case ClassCompile:
		return "compile"
	case ClassEvaluation:
		return "evaluation"
	case ClassProjection:
		return "projection"
	case ClassLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure. Message is safe to show to
// clients; Err is the cause and is only logged.
type Error struct {
	Class   Class
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Class, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(class Class, message string, err error) *Error {
	return &Error{Class: class, Message: message, Err: err}
}

// classify maps any error to its public kind, status and message. Errors
// outside the taxonomy are internal failures.
func classify(err error) (kind string, status int, message string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class.Kind(), e.Class.Status(), e.Message
	}
	return ClassEvaluation.Kind(), http.StatusInternalServerError, "Internal error while building the response"
}
