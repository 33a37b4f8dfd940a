package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewEmailSender(host string, port int, user, password string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     "alerts@leadfeed.local",
	}
}

type LeadAlertData struct {
	LeadName string
	Company  string
	Campaign string
}

// SendLeadAlert notifies the sales rep that a webhook just created a lead.
// Operator mail only; outbound messaging to leads is out of scope.
func (s *EmailSender) SendLeadAlert(to, leadName, company, campaign string) error {
	data := LeadAlertData{
		LeadName: leadName,
		Company:  company,
		Campaign: campaign,
	}

	tmplPath := filepath.Join("templates", "lead_alert.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to read mail template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render mail template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s", leadName))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}

	return nil
}
