package medium

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// SNSMessenger sends SMS through Amazon SNS direct publish.
type SNSMessenger struct {
	client  *sns.SNS
	smsType string
}

func NewSNSMessenger(cfg config.SNS) (*SNSMessenger, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	smsType := cfg.SMSType
	if smsType == "" {
		smsType = "Transactional"
	}

	return &SNSMessenger{client: sns.New(sess), smsType: smsType}, nil
}

func (s *SNSMessenger) Name() string {
	return consts.TransportSNS
}

func (s *SNSMessenger) Send(ctx context.Context, to, from, body string) error {
	log := utilities.NewLoggerWithFields("SNSMessenger.Send", map[string]interface{}{
		"to": to,
	})

	attrs := map[string]*sns.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(s.smsType),
		},
	}
	if from != "" {
		attrs["AWS.MM.SMS.OriginationNumber"] = &sns.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(from),
		}
	}

	out, err := s.client.PublishWithContext(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}

	log.Debugf("sns accepted message %s", aws.StringValue(out.MessageId))

	return nil
}
