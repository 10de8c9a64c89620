package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESTransport is the default Transport, delivering through AWS SES v2.
// Provider-specific transports (Gmail, Microsoft) plug in behind the same
// interface from outside this module.
type SESTransport struct {
	client *sesv2.Client
}

// NewSESTransport initializes the SES client. Empty credentials fall back
// to the default AWS credential chain (IAM role on ECS).
func NewSESTransport(accessKey, secretKey, region string) (*SESTransport, error) {
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
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send delivers one message through SES.
func (t *SESTransport) Send(ctx context.Context, msg *OutboundMessage) (*SendResult, error) {
	if t.client == nil {
		return nil, fmt.Errorf("SES client not initialized")
	}

	var headers []types.MessageHeader
	for name, value := range msg.Headers {
		headers = append(headers, types.MessageHeader{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.ToEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.BodyHTML), Charset: aws.String("UTF-8")},
				},
				Headers: headers,
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("email_id"), Value: aws.String(msg.EmailID)},
		},
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return nil, err
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	log.Printf("[SESTransport] Sent email %s (message_id=%s)", msg.EmailID, messageID)
	return &SendResult{Success: true, MessageID: messageID, SentAt: time.Now()}, nil
}
