package entity

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusConverted}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return s, nil
}

// Labels is the single lookup table for human-readable status, column and
// source names. Build it once and inject it where text is rendered.
type Labels struct {
	status  map[Status]string
	columns map[Status]string
	sources map[string]string
}

func NewLabels(status, columns map[Status]string, sources map[string]string) *Labels {
	return &Labels{status: status, columns: columns, sources: sources}
}

func DefaultLabels() *Labels {
	return NewLabels(
		map[Status]string{
			StatusNew:       "Novo",
			StatusContacted: "Contactado",
			StatusQualified: "Qualificado",
			StatusConverted: "Convertido",
		},
		map[Status]string{
			StatusNew:       "Novos",
			StatusContacted: "Contactados",
			StatusQualified: "Qualificados",
			StatusConverted: "Convertidos",
		},
		map[string]string{
			"contact_page":        "Contato",
			"contact-page":        "Contato",
			"homepage":            "Home",
			"botox-bruxismo":      "Botox",
			"placa-miorrelaxante": "Placa",
			"tratamento-bruxismo": "Bruxismo",
			"google":              "Google",
			"facebook":            "Facebook",
			"instagram":           "Instagram",
			"direct":              "Direto",
		},
	)
}

// Status falls back to the raw value for anything outside the table.
func (l *Labels) Status(s Status) string {
	if label, ok := l.status[s]; ok {
		return label
	}
	return string(s)
}

func (l *Labels) Column(s Status) string {
	if label, ok := l.columns[s]; ok {
		return label
	}
	return string(s)
}

func (l *Labels) Source(source string) string {
	if label, ok := l.sources[source]; ok {
		return label
	}
	return source
}
