// Package apperr классифицирует ошибки по категориям, чтобы HTTP слой и бот
// могли выбрать ответ без разбора текста ошибки.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindPayment    Kind = "payment"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindNetwork    Kind = "network"
	KindInternal   Kind = "internal"
)

type Error struct {
	Kind    Kind
	Op      string // операция, например "call.accept"
	Message string // безопасно показывать клиенту
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) *Error { return New(KindValidation, op, message) }
func NotFound(op, message string) *Error   { return New(KindNotFound, op, message) }
func Conflict(op, message string) *Error   { return New(KindConflict, op, message) }
func Forbidden(op, message string) *Error  { return New(KindForbidden, op, message) }
func Auth(op, message string) *Error       { return New(KindAuth, op, message) }

func Payment(op string, err error) *Error {
	return &Error{Kind: KindPayment, Op: op, Message: "payment was not completed", Err: err}
}

func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: "upstream service unavailable", Err: err}
}

func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf возвращает категорию ошибки; неклассифицированные считаются internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is проверяет категорию ошибки
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage текст для клиента. Для internal ошибок детали не раскрываются.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind) + " error"
}
