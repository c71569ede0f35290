package mailx

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"sync/atomic"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig configures the Postmark transport.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
	ReplyTo      string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// PostmarkSender sends mail through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	cfg    PostmarkConfig
	closed atomic.Bool
}

// NewPostmarkSender validates cfg and builds the API client. No network
// traffic happens until Verify or Send.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("%w: sender address %q", ErrInvalidConfig, cfg.From)
	}
	if cfg.ReplyTo != "" {
		if _, err := mail.ParseAddress(cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to address %q", ErrInvalidConfig, cfg.ReplyTo)
		}
	}

	client := postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return &PostmarkSender{client: client, cfg: cfg}, nil
}

// Send implements Sender.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	email := postmark.Email{
		From:     s.cfg.From,
		ReplyTo:  s.cfg.ReplyTo,
		To:       msg.To,
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		HTMLBody: msg.HTML,
		TextBody: msg.Text,
	}
	for _, a := range msg.Attachments {
		email.Attachments = append(email.Attachments, postmark.Attachment{
			Name:        a.Name,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
			ContentID:   a.ContentID,
		})
	}

	resp, err := s.client.SendEmail(ctx, email)
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

// Verify fetches the server the token belongs to, which fails on a bad
// token or an unreachable API.
func (s *PostmarkSender) Verify(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.client.GetCurrentServer(ctx); err != nil {
		return fmt.Errorf("mailx: postmark verify: %w", err)
	}
	return nil
}

// Close implements Sender. The HTTP client holds no dedicated resources.
func (s *PostmarkSender) Close() error {
	s.closed.Store(true)
	return nil
}

var _ Sender = (*PostmarkSender)(nil)
