package utils

import (
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrEmailNotConfigured = errors.New("email configuration not set")

const companyName = "SwiftServe"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #1f6feb; margin: 0;">SwiftServe</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

type MailerConfig struct {
	From     string
	Password string
	SMTPHost string
	SMTPPort string
	BaseURL  string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends the transactional emails of the marketplace over SMTP.
type Mailer struct {
	cfg  MailerConfig
	send sendFunc
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.From != "" && m.cfg.Password != "" && m.cfg.SMTPHost != "" && m.cfg.SMTPPort != ""
}

func (m *Mailer) sendEmail(to []string, subject, body string) error {
	if !m.Enabled() {
		return ErrEmailNotConfigured
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", companyName, m.cfg.From),
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
		"X-Mailer":     "SwiftServe-Mailer",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, headers[k])
	}
	msg.WriteString("\r\n" + body)

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.SMTPHost)
	if err := m.send(m.cfg.SMTPHost+":"+m.cfg.SMTPPort, auth, m.cfg.From, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("email sent")
	return nil
}

func (m *Mailer) page(title string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(emailHeader)
	b.WriteString(`		<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">` + "\n")
	fmt.Fprintf(&b, `			<h1 style="color: #2c3e50; text-align: center;">%s</h1>`+"\n", html.EscapeString(title))
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "			<p>%s</p>\n", p)
	}
	if m.cfg.BaseURL != "" {
		fmt.Fprintf(&b, `			<p style="text-align: center;"><a href="%s/login">Log in to SwiftServe</a></p>`+"\n", m.cfg.BaseURL)
	}
	b.WriteString("			<p>Best regards,<br>The SwiftServe Team</p>\n		</div>")
	b.WriteString(emailFooter)
	return b.String()
}

func (m *Mailer) SendWelcomeOwner(email, name string) error {
	body := m.page("Welcome to SwiftServe",
		fmt.Sprintf("Hello %s,", html.EscapeString(name)),
		"Your account is ready. Book a pickup and we will take your car to a trusted garage and bring it back.")
	return m.sendEmail([]string{email}, "Welcome to SwiftServe", body)
}

// SendRegistrationReceived tells a new driver or garage that staff will
// review the application.
func (m *Mailer) SendRegistrationReceived(email, name, role string) error {
	body := m.page("Application Received",
		fmt.Sprintf("Hello %s,", html.EscapeString(name)),
		fmt.Sprintf("Thank you for registering as a %s. Our team will review your details and notify you once your account is approved.", role))
	return m.sendEmail([]string{email}, "SwiftServe Registration Received", body)
}

func (m *Mailer) SendApprovalDecision(email, name, role string, approved bool) error {
	decision, title := "approved", "Account Approved"
	line := fmt.Sprintf("Your %s account has been approved. You can now log in and start receiving jobs.", role)
	if !approved {
		decision, title = "rejected", "Account Not Approved"
		line = fmt.Sprintf("Unfortunately your %s application was not approved. Contact support for more information.", role)
	}
	body := m.page(title,
		fmt.Sprintf("Hello %s,", html.EscapeString(name)), line)
	return m.sendEmail([]string{email}, "SwiftServe Account "+decision, body)
}

func (m *Mailer) SendInquiryReceived(email, contact, reference, serviceType string) error {
	body := m.page("Inquiry Received",
		fmt.Sprintf("Hello %s,", html.EscapeString(contact)),
		fmt.Sprintf("Thank you for your interest in our %s services. Your reference number is <strong>%s</strong>.", html.EscapeString(serviceType), reference),
		"Our team will contact you within 24 hours to discuss your requirements.")
	return m.sendEmail([]string{email}, "Thank You for Your "+serviceType+" Inquiry - SwiftServe", body)
}

// SendAdminAlert tells staff that something needs review. Each line is
// escaped and rendered as its own paragraph.
func (m *Mailer) SendAdminAlert(adminEmail, subject string, lines ...string) error {
	if adminEmail == "" {
		return ErrEmailNotConfigured
	}
	paragraphs := make([]string, 0, len(lines))
	for _, l := range lines {
		paragraphs = append(paragraphs, html.EscapeString(l))
	}
	body := m.page(subject, paragraphs...)
	return m.sendEmail([]string{adminEmail}, "SwiftServe - "+subject, body)
}
