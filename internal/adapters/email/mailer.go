package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"rsvpdesk/internal/domain"
)

// SESConfig holds AWS SES credentials and region settings.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig selects and configures the outgoing mail provider.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer builds a mailer for the configured provider. "ses" sends through
// AWS SES; anything else falls back to a mailer that only logs.
func NewMailer(cfg MailerConfig) (domain.Mailer, error) {
	switch cfg.Provider {
	case "ses":
		return &sesMailer{
			client: newSESClient(cfg.SES),
			from:   formatSender(cfg.FromName, cfg.FromAddress),
		}, nil
	case "noop":
		return &noopMailer{}, nil
	default:
		slog.Warn("unknown email provider, falling back to noop", "provider", cfg.Provider)
		return &noopMailer{}, nil
	}
}

func newSESClient(cfg SESConfig) *ses.Client {
	if cfg.InsecureSkipVerify {
		slog.Warn("TLS certificate verification disabled for SES, do not use in production")
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: cfg.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		},
	}
	return ses.NewFromConfig(awsCfg)
}

func formatSender(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

type sesMailer struct {
	client *ses.Client
	from   string
}

func (m *sesMailer) Send(to, subject, html, text string) error {
	body := &types.Body{}
	if html != "" {
		body.Html = utf8Content(html)
	}
	if text != "" {
		body.Text = utf8Content(text)
	}

	out, err := m.client.SendEmail(context.Background(), &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}

	slog.Info("email sent via SES", "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

// noopMailer logs instead of sending. Used in development and tests.
type noopMailer struct{}

func (*noopMailer) Send(to, subject, _, _ string) error {
	slog.Info("email suppressed (noop mailer)", "to", to, "subject", subject)
	return nil
}
