package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

type ErrorResponse struct {
	Code    string                    `json:"code"`
	Message string                    `json:"message"`
	Errors  []usecase.ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func statusForCode(code string) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeResult: 200 em sucesso, senão o status correspondente ao código do Result.
func writeResult(w http.ResponseWriter, res usecase.Result) {
	status := http.StatusOK
	if !res.Success {
		status = statusForCode(res.Code)
	}
	writeJSON(w, status, res)
}

// writeUseCaseError converte erros das consultas; falhas técnicas usam a mensagem genérica.
func writeUseCaseError(w http.ResponseWriter, err error, fallback string) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, statusForCode(de.Code), ErrorResponse{Code: de.Code, Message: de.Message, Errors: de.Fields})
		return
	}

	code := usecase.CodeReadFailed
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		code = te.Code
	}
	writeErrorResponse(w, http.StatusInternalServerError, code, fallback)
}
