package service

import (
    "errors"
    "fmt"
)

// Kind 面向调用方的错误类别
type Kind string

const (
    KindValidation   Kind = "VALIDATION_FAILED"
    KindRateLimited  Kind = "RATE_LIMITED"
    KindUnauthorized Kind = "UNAUTHORIZED"
    KindInternal     Kind = "INTERNAL_ERROR"
)

var (
    ErrAuthorNotFound  = errors.New("author not found")
    ErrUnauthenticated = errors.New("unauthenticated")
)

// AppError 请求边界上的结构化错误；Err 只用于日志，不返回给调用方
type AppError struct {
    Kind       Kind
    Field      string
    Message    string
    RetryAfter int64 // 秒，仅 RATE_LIMITED
    Err        error
}

func (e *AppError) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
    }
    return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func Validation(field, message string) *AppError {
    return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func RateLimited(retryAfter int64) *AppError {
    return &AppError{Kind: KindRateLimited, Message: "Too many requests", RetryAfter: retryAfter}
}

func Internal(message string, err error) *AppError {
    return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 非 AppError 一律视为内部错误
func KindOf(err error) Kind {
    var ae *AppError
    if errors.As(err, &ae) {
        return ae.Kind
    }
    return KindInternal
}
