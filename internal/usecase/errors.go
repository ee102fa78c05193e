package usecase

import (
	"errors"
	"fmt"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeWriteFailed = "WRITE_FAILED"
	CodeReadFailed  = "READ_FAILED"
)

type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func validationFailed(fields []ValidationError) *DomainError {
	return &DomainError{Code: CodeValidation, Message: fields[0].Message, Fields: fields}
}

func notFound(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func writeFailed(err error) *TechnicalError {
	return &TechnicalError{Code: CodeWriteFailed, Message: "write failed", Err: err}
}

func readFailed(err error) *TechnicalError {
	return &TechnicalError{Code: CodeReadFailed, Message: "read failed", Err: err}
}

func lookupError(err error) error {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return notFound("Lead não encontrado")
	case errors.Is(err, entity.ErrOwnerNotFound):
		return notFound("Responsável não encontrado")
	}
	return readFailed(err)
}

// mutationError keeps not-found failures from the store distinguishable.
func mutationError(err error) error {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return notFound("Lead não encontrado")
	case errors.Is(err, entity.ErrOwnerNotFound):
		return notFound("Responsável não encontrado")
	}
	return writeFailed(err)
}
