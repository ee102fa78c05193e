package mail

import "gopkg.in/gomail.v2"

type NewLeadEmailData struct {
	LeadID    string
	Name      string
	Email     string
	Phone     string
	Treatment string
	Source    string
	Message   string
	AdminURL  string
}

type AssignmentEmailData struct {
	OwnerName  string
	LeadName   string
	Treatment  string
	Phone      string
	AssignedBy string
	AdminURL   string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	Dialer      Dialer
	From        string
	ClinicInbox string
	AdminURL    string
}
