package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var nonDigits = regexp.MustCompile(`\D`)

func validateLeadID(field, id string) []ValidationError {
	if strings.TrimSpace(id) == "" {
		return []ValidationError{{field, "Identificador é obrigatório"}}
	}
	if _, err := uuid.Parse(id); err != nil {
		return []ValidationError{{field, "Identificador inválido"}}
	}
	return nil
}

func validateStatus(raw string) (entity.Status, []ValidationError) {
	status, err := entity.ParseStatus(raw)
	if err != nil {
		return "", []ValidationError{{"status", "Status inválido"}}
	}
	return status, nil
}

func ValidateUpdateStatusInput(input UpdateStatusInput) (entity.Status, []ValidationError) {
	errors := validateLeadID("id", input.LeadID)
	status, statusErrs := validateStatus(input.Status)
	return status, append(errors, statusErrs...)
}

func ValidateAssignLeadInput(input AssignLeadInput) []ValidationError {
	errors := validateLeadID("id", input.LeadID)
	if input.OwnerID != nil && *input.OwnerID != "" {
		errors = append(errors, validateLeadID("owner_id", *input.OwnerID)...)
	}
	return errors
}

func ValidateAddNoteInput(input AddNoteInput) []ValidationError {
	errors := validateLeadID("id", input.LeadID)
	if strings.TrimSpace(input.Note) == "" {
		errors = append(errors, ValidationError{"note", "A nota não pode estar vazia"})
	}
	return errors
}

// normalizeIDs validates every id and drops duplicates, keeping input order.
func normalizeIDs(ids []string) ([]string, []ValidationError) {
	if len(ids) == 0 {
		return nil, []ValidationError{{"ids", "Selecione ao menos um lead"}}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	var errors []ValidationError
	for i, id := range ids {
		if errs := validateLeadID(fmt.Sprintf("ids[%d]", i), id); len(errs) > 0 {
			errors = append(errors, errs...)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, errors
}

func ValidateBulkStatusInput(input BulkStatusInput) ([]string, entity.Status, []ValidationError) {
	ids, errors := normalizeIDs(input.LeadIDs)
	status, statusErrs := validateStatus(input.Status)
	return ids, status, append(errors, statusErrs...)
}

func ValidateBulkDeleteInput(input BulkDeleteInput) ([]string, []ValidationError) {
	return normalizeIDs(input.LeadIDs)
}

func ValidateCaptureLeadInput(input CaptureLeadInput) []ValidationError {
	var errors []ValidationError

	if len([]rune(strings.TrimSpace(input.Name))) < 3 {
		errors = append(errors, ValidationError{"name", "Nome deve ter pelo menos 3 caracteres"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "Email é obrigatório"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errors = append(errors, ValidationError{"email", "Email inválido"})
	}

	if len(nonDigits.ReplaceAllString(input.Phone, "")) < 10 {
		errors = append(errors, ValidationError{"phone", "Telefone deve ter pelo menos 10 dígitos"})
	}

	if strings.TrimSpace(input.Treatment) == "" {
		errors = append(errors, ValidationError{"treatment", "Tratamento é obrigatório"})
	}

	if len(input.Message) > 5000 {
		errors = append(errors, ValidationError{"message", "Mensagem deve ter no máximo 5000 caracteres"})
	}

	return errors
}
