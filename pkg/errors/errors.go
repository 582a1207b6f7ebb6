// Package errors classifies failures of the flow lookup pipeline.
package errors

import "errors"

// Error codes used across the application.
const (
	CodeNetwork      = "network"
	CodeDecode       = "decode"
	CodeAPIStatus    = "api_status"
	CodeConfig       = "config"
	CodeNoData       = "no_data"
	CodeInvalidInput = "invalid_input"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode reports whether the first AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code returns the code of the first AppError in err's chain, or "".
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
