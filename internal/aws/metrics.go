package aws

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes custom counters to CloudWatch. Publishing is best
// effort: failures are logged and never returned to callers.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	env       string
	logger    *zap.Logger
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics publisher. A nil client disables publishing.
func NewMetrics(client CloudWatchAPI, namespace, env string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		env:       env,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Count records value under name with an Environment dimension plus any
// extra dimensions given as key/value pairs.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dims ...string) {
	if m == nil || m.client == nil {
		return
	}

	dimensions := []cwtypes.Dimension{
		{Name: sdkaws.String("Environment"), Value: sdkaws.String(m.env)},
	}
	for i := 0; i+1 < len(dims); i += 2 {
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(dims[i]),
			Value: sdkaws.String(dims[i+1]),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Value:      sdkaws.Float64(value),
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  sdkaws.Time(m.nowFunc()),
				Dimensions: dimensions,
			},
		},
	})
	if err != nil {
		m.logger.Warn("put metric data failed", zap.String("metric", name), zap.Error(err))
	}
}
