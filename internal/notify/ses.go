package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESAPI is the subset of the SES v2 client used by SESMailer
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig holds configuration for AWS SES
type SESConfig struct {
	FromEmail string
	FromName  string
}

// SESMailer sends email through AWS SES
type SESMailer struct {
	client    SESAPI
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSESMailer creates an SES mailer
func NewSESMailer(client SESAPI, cfg SESConfig, logger *zap.Logger) (*SESMailer, error) {
	if client == nil {
		return nil, fmt.Errorf("notify: SES client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SESMailer{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

// Deliver sends msg via SES
func (s *SESMailer) Deliver(ctx context.Context, msg Message) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	output, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("SES send failed", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("email sent via SES", zap.String("to", msg.To), zap.String("message_id", aws.ToString(output.MessageId)))
	return nil
}

// StubMailer logs messages instead of sending them
type StubMailer struct {
	logger *zap.Logger
}

// NewStubMailer creates a mailer for development and tests
func NewStubMailer(logger *zap.Logger) *StubMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubMailer{logger: logger}
}

// Deliver logs msg
func (s *StubMailer) Deliver(_ context.Context, msg Message) error {
	s.logger.Info("stub mailer: would send email", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
