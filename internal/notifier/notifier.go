package notifier

import (
	"context"
	"strconv"

	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/email"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
)

// Notifier delivers a message to a customer
type Notifier interface {
	Notify(ctx context.Context, ownerID int64, msg *Message) error
}

// NewNotifier returns the notifier selected by notifier.type
func NewNotifier(cfg *config.Configuration, logger *logger.Logger) (Notifier, error) {
	switch cfg.Notifier.Type {
	case types.NotifierTypeLog:
		return &logNotifier{logger: logger}, nil
	case types.NotifierTypeEmail:
		client, err := email.NewEmailClient(email.Config{
			APIKey:      cfg.Notifier.ResendAPIKey,
			FromAddress: cfg.Notifier.FromAddress,
			ReplyTo:     cfg.Notifier.ReplyTo,
		})
		if err != nil {
			return nil, err
		}
		return NewEmailNotifier(client, cfg.Notifier.Recipients, logger), nil
	}
	return nil, ierr.NewError("unsupported notifier type").
		WithHintf("Unsupported notifier %q", cfg.Notifier.Type).
		Mark(ierr.ErrValidation)
}

type logNotifier struct {
	logger *logger.Logger
}

func (n *logNotifier) Notify(ctx context.Context, ownerID int64, msg *Message) error {
	n.logger.WithContext(ctx).Infow("customer notification",
		"owner_id", ownerID,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

type emailNotifier struct {
	sender     email.Sender
	recipients map[string]string
	logger     *logger.Logger
}

// NewEmailNotifier sends notifications by email. recipients maps an owner id
// to an address; owners without one are skipped.
func NewEmailNotifier(sender email.Sender, recipients map[string]string, logger *logger.Logger) Notifier {
	return &emailNotifier{
		sender:     sender,
		recipients: recipients,
		logger:     logger,
	}
}

func (n *emailNotifier) Notify(ctx context.Context, ownerID int64, msg *Message) error {
	to, ok := n.recipients[strconv.FormatInt(ownerID, 10)]
	if !ok || to == "" {
		n.logger.WithContext(ctx).Debugw("no email address for owner, skipping notification",
			"owner_id", ownerID,
			"subject", msg.Subject,
		)
		return nil
	}

	id, err := n.sender.Send(ctx, &email.SendEmailRequest{
		To:      to,
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	n.logger.WithContext(ctx).Infow("sent notification email",
		"owner_id", ownerID,
		"message_id", id,
		"subject", msg.Subject,
	)
	return nil
}
