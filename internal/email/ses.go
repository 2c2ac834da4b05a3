package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

const charsetUTF8 = "UTF-8"

// SES tag values allow only ASCII letters, digits, '_' and '-'.
var sesTagValue = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends booking confirmations and reminders through SESv2.
type SESClient struct {
	api    sesAPI
	sender string
}

// NewSESClient builds a client from static credentials. sender is the
// venue's verified From address.
func NewSESClient(accessKeyID, secretAccessKey, region, sender string) (*SESClient, error) {
	if accessKeyID == "" || secretAccessKey == "" || region == "" {
		return nil, fmt.Errorf("ses credentials and region are required")
	}
	if sender == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Info().Str("region", region).Str("sender", sender).Msg("SES booking mailer ready")
	return &SESClient{api: sesv2.NewFromConfig(awsCfg), sender: sender}, nil
}

// Send delivers a plain-text message. A booking tag on ctx is forwarded as
// SES message tags and logged with the outcome.
func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	if c == nil || c.api == nil {
		return errors.New("ses client is not initialized")
	}
	if recipient == "" {
		return errors.New("recipient is required")
	}

	mail, _ := BookingMailFromContext(ctx)
	logger := log.Ctx(ctx).With().
		Str("recipient", recipient).
		Str("kind", mail.Kind).
		Str("order_number", mail.OrderNumber).
		Logger()

	out, err := c.api.SendEmail(ctx, buildSendInput(c.sender, recipient, subject, body, mail))
	if err != nil {
		logger.Error().Err(err).Str("subject", subject).Msg("SES rejected booking email")
		return fmt.Errorf("send ses email: %w", err)
	}
	logger.Debug().Str("message_id", aws.ToString(out.MessageId)).Msg("SES accepted booking email")
	return nil
}

func buildSendInput(from, recipient, subject, body string, mail BookingMail) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	}
	for _, tag := range []types.MessageTag{
		{Name: aws.String("kind"), Value: aws.String(mail.Kind)},
		{Name: aws.String("order_number"), Value: aws.String(mail.OrderNumber)},
	} {
		if sesTagValue.MatchString(aws.ToString(tag.Value)) {
			input.EmailTags = append(input.EmailTags, tag)
		}
	}
	return input
}
