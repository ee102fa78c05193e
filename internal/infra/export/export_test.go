package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

func sampleLeads() []entity.Lead {
	return []entity.Lead{
		{
			ID:          "7c1f8a52-8d3e-4a51-9f4e-1f6f2a9b0c11",
			Name:        "Maria Souza",
			Email:       "maria@example.com",
			Phone:       "(11) 98888-7777",
			Treatment:   "Placa miorrelaxante",
			Message:     "Olá, tenho bruxismo, \"muito\" forte\ne acordo com dor",
			Status:      entity.StatusContacted,
			Notes:       "ligar à tarde",
			CreatedAt:   time.Date(2026, 2, 3, 14, 5, 6, 789000000, time.UTC),
			UTMSource:   "google",
			UTMMedium:   "cpc",
			UTMCampaign: "bruxismo-sp",
		},
		{
			ID:        "0b0f3b5e-2f6e-4b55-8d0a-6b7c1e2d3f44",
			Name:      "João",
			Email:     "joao@example.com",
			Phone:     "11977776666",
			Treatment: "Botox",
			Status:    entity.StatusNew,
			CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
		},
	}
}

func TestCSVHeaderAndLayout(t *testing.T) {
	out := string(CSV(sampleLeads()))
	lines := strings.SplitN(out, "\n", 2)

	assert.Equal(t, "ID,Nome,Email,Telefone,Tratamento,Mensagem,Status,Notas,Data Criação,UTM Source,UTM Medium,UTM Campaign", lines[0])
	assert.False(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "2026-02-01T12:00:00.000Z")
	assert.Contains(t, out, ",Botox,,new,,2026-02-01T12:00:00.000Z,,,")
}

func TestCSVRoundTripWithStandardParser(t *testing.T) {
	leads := sampleLeads()

	records, err := csv.NewReader(bytes.NewReader(CSV(leads))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, leads[0].Message, records[1][5])
	assert.Equal(t, "2026-02-03T14:05:06.789Z", records[1][8])
	assert.Equal(t, "João", records[2][1])
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "plain", escape("plain"))
	assert.Equal(t, " leading space", escape(" leading space"))
	assert.Equal(t, `"a,b"`, escape("a,b"))
	assert.Equal(t, `"say ""hi"""`, escape(`say "hi"`))
	assert.Equal(t, "\"two\nlines\"", escape("two\nlines"))
}

func TestCSVEmpty(t *testing.T) {
	assert.Equal(t, strings.Join(Header, ","), string(CSV(nil)))
}

func TestXLSXContainsSameColumns(t *testing.T) {
	leads := sampleLeads()

	data, err := XLSX(leads)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, leads[0].Message, rows[1][5])
	assert.Equal(t, "Maria Souza", rows[1][1])
}
