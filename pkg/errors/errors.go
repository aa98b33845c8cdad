package errors

import (
	"errors"
	"fmt"
)

// Kind 错误类别，封闭枚举
// HTTP层按Kind映射状态码，禁止通过错误消息字符串判断类别
type Kind int

const (
	KindInternal Kind = iota
	KindDuplicateVote
	KindNotFound
	KindUnauthorized
	KindClaimResolved
	KindValidation
	KindPersistenceConflict
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindDuplicateVote:
		return "DUPLICATE_VOTE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindClaimResolved:
		return "CLAIM_RESOLVED"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindPersistenceConflict:
		return "PERSISTENCE_CONFLICT"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf 提取错误类别，非AppError一律视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
