package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htemplate "html/template"
	"log/slog"
	"strings"
	ttemplate "text/template"

	gomail "github.com/go-mail/mail/v2"
	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/redact"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = ttemplate.Must(ttemplate.New("reminder").ParseFS(templateFS, "templates/reminder.txt.tmpl"))
	htmlTemplates = htemplate.Must(htemplate.New("reminder").ParseFS(templateFS, "templates/reminder.html.tmpl"))
)

// DueDateLayout is how due dates appear in reminder emails.
const DueDateLayout = "Monday, January 2, 2006"

// senderName is the display name on the From header.
const senderName = "TaskFlow"

// sendAttempts is how many times a message is dialled before giving up.
const sendAttempts = 3

// Badge is the colour pair used for the priority label.
type Badge struct {
	Colour     htemplate.CSS
	Background htemplate.CSS
}

var priorityBadges = map[domain.Priority]Badge{
	domain.PriorityHigh:   {Colour: "#ef4444", Background: "#fee2e2"},
	domain.PriorityMedium: {Colour: "#f59e0b", Background: "#fef3c7"},
	domain.PriorityLow:    {Colour: "#10b981", Background: "#d1fae5"},
}

var defaultBadge = Badge{Colour: "#6366f1", Background: "#e0e7ff"}

// BadgeFor returns the badge colours for p, falling back to indigo.
func BadgeFor(p domain.Priority) Badge {
	if b, ok := priorityBadges[p]; ok {
		return b
	}
	return defaultBadge
}

// templateData feeds the reminder templates.
type templateData struct {
	Name        string
	Title       string
	Description string
	Priority    string
	DueDate     string
	TasksURL    string
	Badge       Badge
}

// Rendered is a reminder ready to send.
type Rendered struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

// dialer is satisfied by *gomail.Dialer.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers reminder emails over SMTP. It implements reminder.Notifier.
type Mailer struct {
	dialer dialer
	from   string
	appURL string
	logger *slog.Logger
}

var _ reminder.Notifier = (*Mailer)(nil)

// NewMailer creates a Mailer from the mail settings. Links in the email point
// at appURL.
func NewMailer(cfg config.MailConfig, appURL string, logger *slog.Logger) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout

	from := cfg.Sender
	if from == "" {
		from = cfg.Username
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		dialer: d,
		from:   from,
		appURL: strings.TrimRight(appURL, "/"),
		logger: logger.With("component", "mailer"),
	}
}

// Render produces the subject and both bodies for p.
func (m *Mailer) Render(p reminder.Payload) (Rendered, error) {
	data := templateData{
		Name:        p.ToName,
		Title:       p.TaskTitle,
		Description: p.TaskDescription,
		Priority:    string(p.Priority),
		DueDate:     p.DueDate.UTC().Format(DueDateLayout),
		TasksURL:    m.appURL + "/tasks",
		Badge:       BadgeFor(p.Priority),
	}

	var subject, plain, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := textTemplates.ExecuteTemplate(&plain, "plainBody", data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render plain body: %w", err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, "htmlBody", data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render html body: %w", err)
	}

	return Rendered{
		Subject:   strings.TrimSpace(subject.String()),
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	}, nil
}

// SendReminder renders and sends the reminder, retrying the SMTP exchange up
// to three times. It gives up early when ctx is done.
func (m *Mailer) SendReminder(ctx context.Context, p reminder.Payload) error {
	r, err := m.Render(p)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("To", p.ToEmail)
	msg.SetAddressHeader("From", m.from, senderName)
	msg.SetHeader("Subject", r.Subject)
	msg.SetBody("text/plain", r.PlainBody)
	msg.AddAlternative("text/html", r.HTMLBody)

	log := m.logger.With("to", redact.Email(p.ToEmail))
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = m.dialAndSend(ctx, msg); err == nil {
			log.Debug("reminder email sent", "attempt", attempt)
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		log.Warn("reminder email attempt failed", "attempt", attempt, "error", redact.Error(err))
	}

	return fmt.Errorf("failed to send reminder email to %s: %w", p.ToEmail, err)
}

// dialAndSend runs one SMTP exchange. The dialer has its own timeout; ctx
// only stops the caller from waiting. An exchange abandoned that way keeps
// running and may still deliver, so the caller can end up sending twice.
func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Message) error {
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
