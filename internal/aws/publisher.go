package aws

import (
	"context"
	"encoding/json"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendMessage sends a raw body. attributes are sent as String message attributes.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) (string, error) {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := make(map[string]sqstypes.MessageAttributeValue, len(attributes))
		for k, v := range attributes {
			if v == "" {
				continue
			}
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	out, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return sdkaws.ToString(out.MessageId), nil
}

// SendBatch marshals records as one JSON array and sends it as a single message.
func (p *Publisher) SendBatch(ctx context.Context, records any, attributes map[string]string) (string, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}
	return p.SendMessage(ctx, string(body), attributes)
}
