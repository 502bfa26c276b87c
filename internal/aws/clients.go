package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
	S3Presign  PresignAPI
}

// NewAWSClients loads AWS config and returns concrete service clients that
// implement our interfaces. A non-empty endpoint (e.g. LocalStack) overrides
// every service endpoint.
func NewAWSClients(ctx context.Context, region, endpoint string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	var base *string
	if endpoint != "" {
		base = sdkaws.String(endpoint)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = base
		o.UsePathStyle = base != nil
	})

	return &AWSClients{
		DynamoDB: dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = base
		}),
		SQS: sqs.NewFromConfig(cfg, func(o *sqs.Options) {
			o.BaseEndpoint = base
		}),
		CloudWatch: cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
			o.BaseEndpoint = base
		}),
		S3Presign: s3.NewPresignClient(s3Client),
	}, nil
}
