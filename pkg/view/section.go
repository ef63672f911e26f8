// Package view turns query and mutation state into renderable sections for the
// console front-ends. Every read surface resolves to exactly one Section tone.
package view

import (
	"net/http"

	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

// Tone is the kind of a section.
type Tone string

const (
	ToneLoading Tone = "loading"
	ToneError   Tone = "error"
	ToneEmpty   Tone = "empty"
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
)

// Section is one titled block of a screen.
type Section struct {
	Title   string
	Tone    Tone
	Message string
	Lines   []string
}

// Scope names the read an error belongs to.
type Scope int

const (
	ScopeTenant Scope = iota
	ScopeServices
	ScopeSlots
	ScopeAppointment
	ScopeAdmin
)

// Messages shown when nothing more specific is known.
const (
	TenantNotFoundMessage = "Tenant not found for this link."
	ConnectionMessage     = "Could not reach the server. Check your connection and try again."
)

// ErrorMessage picks the text shown for err. API messages are shown verbatim,
// except a 404 on the tenant lookup.
func ErrorMessage(err error, fallback string, scope Scope) string {
	if err == nil {
		return fallback
	}
	if transport.IsNetworkError(err) {
		return ConnectionMessage
	}
	if apiErr, ok := transport.AsApiError(err); ok {
		if scope == ScopeTenant && apiErr.StatusCode == http.StatusNotFound {
			return TenantNotFoundMessage
		}
		return apiErr.Message
	}
	if errs, ok := validation.AsErrors(err); ok && len(errs) > 0 {
		return errs[0].Message
	}
	return fallback
}

// Texts holds the fixed wording of a read section.
type Texts struct {
	Idle    string
	Loading string
	Error   string
	Empty   string
}

// Read renders a query state. lines formats a success result; no lines means
// the result is empty.
func Read[T any](title string, s query.State[T], scope Scope, texts Texts, lines func(T) []string) Section {
	sec := Section{Title: title}
	switch {
	case s.IsError():
		sec.Tone = ToneError
		sec.Message = ErrorMessage(s.Err, texts.Error, scope)
	case s.IsSuccess() || (s.IsLoading() && s.HasData):
		sec.Lines = lines(s.Data)
		if len(sec.Lines) == 0 {
			sec.Tone = ToneEmpty
			sec.Message = texts.Empty
		} else {
			sec.Tone = ToneSuccess
		}
	case s.IsLoading():
		sec.Tone = ToneLoading
		sec.Message = texts.Loading
	default:
		sec.Tone = ToneInfo
		sec.Message = texts.Idle
	}
	return sec
}

// Info is a section carrying only a hint.
func Info(title, message string) Section {
	return Section{Title: title, Tone: ToneInfo, Message: message}
}
