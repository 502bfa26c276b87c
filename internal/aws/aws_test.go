package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadAWSConfig_ExplicitRegionWins(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadAWSConfig(context.Background(), "sa-east-1")
	require.NoError(t, err)
	assert.Equal(t, "sa-east-1", cfg.Region)
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: sdkaws.String("msg-1")}, nil
}

func TestPublisher_SendBatch(t *testing.T) {
	q := &fakeSQS{}
	p := NewPublisher(q, "https://sqs.local/builder")

	id, err := p.SendBatch(context.Background(), []map[string]int{{"order_id": 1}, {"order_id": 2}},
		map[string]string{"product_id": "316", "correlation_id": ""})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, q.inputs, 1)
	in := q.inputs[0]
	assert.Equal(t, "https://sqs.local/builder", *in.QueueUrl)
	assert.JSONEq(t, `[{"order_id":1},{"order_id":2}]`, *in.MessageBody)
	require.Contains(t, in.MessageAttributes, "product_id")
	assert.Equal(t, "316", *in.MessageAttributes["product_id"].StringValue)
	assert.NotContains(t, in.MessageAttributes, "correlation_id")
}

func TestPublisher_SendError(t *testing.T) {
	p := NewPublisher(&fakeSQS{err: errors.New("boom")}, "q")

	_, err := p.SendMessage(context.Background(), "{}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send message")
}

type fakePresign struct {
	in      *s3.GetObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresign) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3/" + *in.Key + "?sig=1"}, nil
}

func TestPresigner_CertificateDownloadURL(t *testing.T) {
	fp := &fakePresign{}
	p := NewPresigner(fp, "certs", zap.NewNop())

	url := p.CertificateDownloadURL(context.Background(), "certs/1.pdf")
	assert.Equal(t, "https://bucket.s3/certs/1.pdf?sig=1", url)
	assert.Equal(t, "certs", *fp.in.Bucket)
	assert.Equal(t, "inline", *fp.in.ResponseContentDisposition)
	assert.Equal(t, 30*time.Minute, fp.expires)
}

func TestPresigner_FailureReturnsEmpty(t *testing.T) {
	p := NewPresigner(&fakePresign{err: errors.New("no creds")}, "certs", zap.NewNop())
	assert.Empty(t, p.GetURL(context.Background(), "k", time.Minute))
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_Count(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics(cw, "CertifiedBuilder", "dev", zap.NewNop())

	m.Count(context.Background(), "CertificatesCreated", 3, "ProductId", "316")

	require.Len(t, cw.inputs, 1)
	in := cw.inputs[0]
	assert.Equal(t, "CertifiedBuilder", *in.Namespace)
	require.Len(t, in.MetricData, 1)
	datum := in.MetricData[0]
	assert.Equal(t, "CertificatesCreated", *datum.MetricName)
	assert.Equal(t, 3.0, *datum.Value)
	require.Len(t, datum.Dimensions, 2)
	assert.Equal(t, "ProductId", *datum.Dimensions[1].Name)
}

func TestMetrics_ErrorsAreSwallowed(t *testing.T) {
	m := NewMetrics(&fakeCloudWatch{err: errors.New("throttled")}, "ns", "dev", zap.NewNop())
	assert.NotPanics(t, func() {
		m.Count(context.Background(), "X", 1)
	})

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.Count(context.Background(), "X", 1)
	})
}
