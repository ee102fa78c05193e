package usecase

import (
	"context"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/export"
)

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportLeadsUseCase renders the filtered lead set, newest first.
type ExportLeadsUseCase struct {
	Leads entity.LeadRepositoryInterface
}

func NewExportLeadsUseCase(leads entity.LeadRepositoryInterface) *ExportLeadsUseCase {
	return &ExportLeadsUseCase{Leads: leads}
}

func (uc *ExportLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput, format ExportFormat) ([]byte, error) {
	filter, errs := BuildFilter(input)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	leads, err := uc.Leads.List(ctx, filter)
	if err != nil {
		return nil, readFailed(err)
	}

	switch format {
	case ExportXLSX:
		data, err := export.XLSX(leads)
		if err != nil {
			return nil, &TechnicalError{Code: "EXPORT_FAILED", Message: "Erro ao gerar planilha", Err: err}
		}
		return data, nil
	default:
		return export.CSV(leads), nil
	}
}
