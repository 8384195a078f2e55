package medium

import (
	"context"
	"fmt"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go/aws"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// EmailReporter mails run reports to operators through SES.
type EmailReporter struct {
	client *sesv2.Client
	from   string
	sender string
	to     []string
}

func NewEmailReporter(ctx context.Context, cfg config.EmailReport) (*EmailReporter, error) {
	log := utilities.NewLogger("NewEmailReporter")

	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("email report needs from and to addresses")
	}

	amazonConfiguration, err :=
		awsConfig.LoadDefaultConfig(
			ctx,
			awsConfig.WithRegion(cfg.Region),
			awsConfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.Username, cfg.Password, "",
				),
			),
		)
	if err != nil {
		log.WithError(err).Error("failed to create amazon config")
		return nil, err
	}

	return &EmailReporter{
		client: sesv2.NewFromConfig(amazonConfiguration),
		from:   cfg.From,
		sender: cfg.SenderName,
		to:     cfg.To,
	}, nil
}

func (e *EmailReporter) Name() string {
	return "email"
}

func (e *EmailReporter) Report(ctx context.Context, summary *entities.NudgeRunSummary, runErr error) error {
	body, err := RenderReport(summary, runErr)
	if err != nil {
		return err
	}

	return e.SendMail(ctx, reportSubject(summary, runErr), body)
}

func (e *EmailReporter) SendMail(ctx context.Context, subject, body string) error {
	log := utilities.NewLoggerWithFields("EmailReporter.SendMail", map[string]interface{}{
		"to":   e.to,
		"from": e.from,
	})

	from := e.from
	if e.sender != "" {
		from = fmt.Sprintf("%s <%s>", e.sender, e.from)
	}
	charset := aws.String("UTF-8")

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: e.to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Charset: charset,
					Data:    aws.String(subject),
				},
				Body: &types.Body{
					Text: &types.Content{
						Charset: charset,
						Data:    aws.String(body),
					},
				},
			},
		},
		FromEmailAddress: aws.String(from),
	}

	_, err := e.client.SendEmail(ctx, input)
	if err != nil {
		log.WithError(err).Error("failed to send email")
		return err
	}
	log.Debug("Email sent!")

	return nil
}
