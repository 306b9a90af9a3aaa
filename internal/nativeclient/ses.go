package nativeclient

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESClient sends through the AWS SES API. Attachments are not supported on
// this path; messages that need one fall through to the browser pipeline.
type SESClient struct {
	fromName  string
	fromEmail string
	client    *sesv2.Client
}

// NewSESClient creates an SES-backed native client. Returns an error when
// the SDK config cannot be assembled; a nil client is never returned
// silently.
func NewSESClient(accessKey, secretKey, region, fromName, fromEmail string) (*SESClient, error) {
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return &SESClient{
		fromName:  fromName,
		fromEmail: fromEmail,
		client:    sesv2.NewFromConfig(cfg),
	}, nil
}

func (s *SESClient) Name() string { return "ses" }

func (s *SESClient) Send(ctx context.Context, recipient, subject, htmlBody string, attachments []string) error {
	if len(attachments) > 0 {
		return fmt.Errorf("ses path does not carry attachments")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		log.Printf("[SES] send to %s failed: %v", recipient, err)
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
