package alert

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/model"

	"github.com/wneessen/go-mail"
)

// SubjectFormat is the alert subject; the verb receives the video identifier.
const SubjectFormat = "ACCIDENT DETECTED in %s"

var bodyTemplate = template.Must(template.New("alert").Parse(`<html>
  <body>
    <h2>Accident Alert!</h2>
    <p>An accident has been detected in the video <b>{{.Video}}</b> at timestamp <b>{{.Timestamp}}</b>.</p>
    <p>Please review the video immediately.</p>
    {{- if .ImageCID}}
    <p><img src="cid:{{.ImageCID}}" alt="Accident screenshot"></p>
    {{- end}}
  </body>
</html>
`))

// AlertService emails accident notifications. Each alert is a single
// synchronous delivery attempt.
type AlertService struct {
	email  config.EmailConfig
	logger *logger.Logger
}

// NewAlertService creates an AlertService from the email section of config.
func NewAlertService(config *config.Config, logger *logger.Logger) *AlertService {
	return &AlertService{
		email:  config.Email,
		logger: logger,
	}
}

// Recipient returns the fixed alert recipient.
func (s *AlertService) Recipient() string {
	return s.email.Recipient
}

// SendAlert builds and submits the alert for event. Any failure is logged and
// reported as false.
func (s *AlertService) SendAlert(ctx context.Context, event model.AccidentEvent) bool {
	msg, err := s.BuildMessage(event)
	if err != nil {
		s.logger.Error("Failed to build alert email for %s: %v", event.VideoIdentifier, err)
		return false
	}

	client, err := s.newClient()
	if err != nil {
		s.logger.Error("Failed to create SMTP client: %v", err)
		return false
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Failed to send email: %v", err)
		return false
	}

	s.logger.Info("Email alert for %s at %s sent to %s", event.VideoIdentifier, event.Timestamp, s.email.Recipient)
	return true
}

// BuildMessage assembles the alert. The screenshot is embedded inline only
// when the path is set and the file exists.
func (s *AlertService) BuildMessage(event model.AccidentEvent) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.email.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.email.Sender, err)
	}
	if err := msg.To(s.email.Recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", s.email.Recipient, err)
	}
	msg.Subject(fmt.Sprintf(SubjectFormat, event.VideoIdentifier))
	msg.SetDate()
	msg.SetMessageID()

	imageCID := ""
	if event.ScreenshotPath != "" {
		if _, err := os.Stat(event.ScreenshotPath); err == nil {
			// the file name doubles as Content-ID, which must not contain spaces
			imageCID = strings.ReplaceAll(filepath.Base(event.ScreenshotPath), " ", "_")
			msg.EmbedFile(event.ScreenshotPath, mail.WithFileName(imageCID))
		} else {
			s.logger.Warning("Screenshot %s not attached: %v", event.ScreenshotPath, err)
		}
	}

	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		Video     string
		Timestamp string
		ImageCID  string
	}{event.VideoIdentifier, event.Timestamp, imageCID})
	if err != nil {
		return nil, fmt.Errorf("failed to render alert body: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	return msg, nil
}

// newClient opens an authenticated client that refuses to send in the clear:
// implicit TLS on 465, mandatory STARTTLS elsewhere.
func (s *AlertService) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.email.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.email.Sender),
		mail.WithPassword(s.email.Password),
	}
	if s.email.SMTPPort == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return mail.NewClient(s.email.SMTPServer, opts...)
}
