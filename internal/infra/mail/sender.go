package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
)

func NewEmailSender(host string, port int, user, password, from, clinicInbox, adminURL string) *EmailSender {
	return &EmailSender{
		Dialer:      gomail.NewDialer(host, port, user, password),
		From:        from,
		ClinicInbox: clinicInbox,
		AdminURL:    adminURL,
	}
}

func (s *EmailSender) SendNewLeadAlert(event queue.LeadEvent) error {
	if s.ClinicInbox == "" {
		return nil
	}

	body, err := render(newLeadTemplate, NewLeadEmailData{
		LeadID:    event.LeadID,
		Name:      event.LeadName,
		Email:     event.LeadEmail,
		Phone:     event.LeadPhone,
		Treatment: event.Treatment,
		Source:    event.Source,
		Message:   event.Message,
		AdminURL:  s.AdminURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Novo lead: %s (%s)", event.LeadName, event.Treatment)
	return s.send(s.ClinicInbox, subject, body)
}

func (s *EmailSender) SendAssignmentNotice(event queue.LeadEvent) error {
	body, err := render(assignmentTemplate, AssignmentEmailData{
		OwnerName:  event.OwnerName,
		LeadName:   event.LeadName,
		Treatment:  event.Treatment,
		Phone:      event.LeadPhone,
		AssignedBy: event.AssignedBy,
		AdminURL:   s.AdminURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Lead atribuído a você: %s", event.LeadName)
	return s.send(event.OwnerEmail, subject, body)
}

func (s *EmailSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}
