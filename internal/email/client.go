package email

import (
	"context"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/resend/resend-go/v2"
)

// Sender sends one email and returns the provider's message id
type Sender interface {
	Send(ctx context.Context, req *SendEmailRequest) (string, error)
}

// SendEmailRequest is a plain text email
type SendEmailRequest struct {
	To      string
	Subject string
	Text    string
}

// Config holds the email client configuration
type Config struct {
	APIKey      string
	FromAddress string
	ReplyTo     string
}

// EmailClient sends email through resend
type EmailClient struct {
	client      *resend.Client
	fromAddress string
	replyTo     string
}

// NewEmailClient creates a new email client
func NewEmailClient(cfg Config) (*EmailClient, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, ierr.NewError("email client is not configured").
			WithHint("Email notifications need notifier.resend_api_key and notifier.from_address").
			Mark(ierr.ErrValidation)
	}

	return &EmailClient{
		client:      resend.NewClient(cfg.APIKey),
		fromAddress: cfg.FromAddress,
		replyTo:     cfg.ReplyTo,
	}, nil
}

func (c *EmailClient) Send(ctx context.Context, req *SendEmailRequest) (string, error) {
	params := &resend.SendEmailRequest{
		From:    c.fromAddress,
		To:      []string{req.To},
		Subject: req.Subject,
		Text:    req.Text,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			Mark(ierr.ErrHTTPClient)
	}
	return sent.Id, nil
}
