package aws

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// CertificateURLTTL is how long a certificate download link stays valid.
const CertificateURLTTL = 30 * time.Minute

// Presigner issues time-limited GET URLs for objects in one bucket.
type Presigner struct {
	client PresignAPI
	bucket string
	logger *zap.Logger
}

// NewPresigner returns a Presigner for bucket.
func NewPresigner(client PresignAPI, bucket string, logger *zap.Logger) *Presigner {
	return &Presigner{client: client, bucket: bucket, logger: logger}
}

// GetURL returns a presigned URL that renders the object inline in the
// browser. It returns "" when signing fails; the failure is logged.
func (p *Presigner) GetURL(ctx context.Context, key string, expires time.Duration) string {
	p.logger.Info("presigning object",
		zap.String("bucket", p.bucket),
		zap.String("key", key),
		zap.Duration("expires", expires),
	)

	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     sdkaws.String(p.bucket),
		Key:                        sdkaws.String(key),
		ResponseContentDisposition: sdkaws.String("inline"),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		p.logger.Error("presign failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return req.URL
}

// CertificateDownloadURL presigns a certificate object with CertificateURLTTL.
func (p *Presigner) CertificateDownloadURL(ctx context.Context, key string) string {
	return p.GetURL(ctx, key, CertificateURLTTL)
}
