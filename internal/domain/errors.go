package domain

import (
	"errors"
	"net/http"
)

// ErrorKind names one failure class of the ledger
type ErrorKind string

const (
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindServiceNotFound   ErrorKind = "service_not_found"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindNotFound          ErrorKind = "not_found"
	KindDuplicateInvoice  ErrorKind = "duplicate_invoice"
	KindStorageFailure    ErrorKind = "storage_failure"
)

// Error is the tagged error every ledger operation returns. HTTPStatus and Code
// are what the envelope carries, Err is the underlying cause and is never shown
// to API callers.
type Error struct {
	Kind       ErrorKind
	HTTPStatus int
	Code       int
	Message    string
	Err        error
}

var (
	ErrInvalidAmount       = &Error{Kind: KindInvalidAmount, HTTPStatus: http.StatusBadRequest, Code: 102, Message: "Paramter amount hanya boleh angka dan tidak boleh lebih kecil dari 0"}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds, HTTPStatus: http.StatusBadRequest, Code: 102, Message: "Balance tidak mencukupi"}
	ErrServiceNotFound     = &Error{Kind: KindServiceNotFound, HTTPStatus: http.StatusBadRequest, Code: 102, Message: "Service ataus Layanan tidak ditemukan"}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest, HTTPStatus: http.StatusBadRequest, Code: 102, Message: "Parameter request tidak valid"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, HTTPStatus: http.StatusUnauthorized, Code: 108, Message: "User ID diperlukan"}
	ErrBalanceNotFound     = &Error{Kind: KindNotFound, HTTPStatus: http.StatusNotFound, Code: 102, Message: "Balance tidak ditemukan"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, HTTPStatus: http.StatusNotFound, Code: 102, Message: "Transaksi tidak ditemukan"}
	ErrDuplicateInvoice    = &Error{Kind: KindDuplicateInvoice, HTTPStatus: http.StatusConflict, Code: 999, Message: "Invoice number sudah digunakan"}
	ErrStorageFailure      = &Error{Kind: KindStorageFailure, HTTPStatus: http.StatusInternalServerError, Code: 999, Message: "Terjadi kesalahan pada server"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, so copies made by Wrap and WithMessage still satisfy
// errors.Is against the package level values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// WithMessage returns a copy of e with a different caller facing message
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// AsError extracts the tagged error from err. Anything untagged is reported
// as a storage failure wrapping err.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return ErrStorageFailure.Wrap(err)
}
