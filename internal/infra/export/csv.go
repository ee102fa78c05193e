package export

import (
	"strings"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

var Header = []string{
	"ID",
	"Nome",
	"Email",
	"Telefone",
	"Tratamento",
	"Mensagem",
	"Status",
	"Notas",
	"Data Criação",
	"UTM Source",
	"UTM Medium",
	"UTM Campaign",
}

func row(l entity.Lead) []string {
	return []string{
		l.ID,
		l.Name,
		l.Email,
		l.Phone,
		l.Treatment,
		l.Message,
		string(l.Status),
		l.Notes,
		l.CreatedAt.UTC().Format(timestampLayout),
		l.UTMSource,
		l.UTMMedium,
		l.UTMCampaign,
	}
}

// CSV renders leads in the given order. Rows are separated by "\n" and a
// field is quoted only when it holds a comma, quote or line break.
func CSV(leads []entity.Lead) []byte {
	var b strings.Builder
	writeLine(&b, Header)
	for _, l := range leads {
		b.WriteByte('\n')
		writeLine(&b, row(l))
	}
	return []byte(b.String())
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(f))
	}
}

func escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
