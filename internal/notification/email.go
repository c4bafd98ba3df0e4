package notification

import (
	"fmt"
	"net/smtp"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type EmailService struct {
	config EmailConfig
}

func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendWelcomeEmail(to, orgName, orgSlug string) error {
	subject := fmt.Sprintf("Your organization %s is ready", orgName)
	body := fmt.Sprintf(`<html><body>
		<h2>Welcome to %s</h2>
		<p>Your organization has been provisioned. Its identifier is <strong>%s</strong>.</p>
		<p>You can sign in with the admin email this message was sent to.</p>
	</body></html>`, orgName, orgSlug)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) SendPasswordChangedEmail(to string) error {
	subject := "Your password was changed"
	body := `<html><body>
		<h2>Password Changed</h2>
		<p>The admin password for your organization was just changed. All previously issued sessions have been signed out.</p>
		<p>If you did not make this change, contact support immediately.</p>
	</body></html>`
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg))
}
