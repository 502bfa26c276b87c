// Package download resolves a certificate id to a time-limited file link.
package download

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/certificates"
)

// ErrNotFound is returned when no certificate has the requested id.
var ErrNotFound = errors.New("certificate not found")

type CertificateGetter interface {
	GetByID(ctx context.Context, id string) (*certificates.Certificate, error)
}

// URLSigner issues download links. It returns "" when signing fails.
type URLSigner interface {
	CertificateDownloadURL(ctx context.Context, key string) string
}

// Response is the body returned to the caller.
type Response struct {
	CertificateURL string `json:"certificate_url"`
	Email          string `json:"email"`
	ProductID      int64  `json:"product_id"`
	Success        bool   `json:"success"`
}

type Service struct {
	certs  CertificateGetter
	signer URLSigner
	logger *zap.Logger
}

func NewService(certs CertificateGetter, signer URLSigner, logger *zap.Logger) *Service {
	return &Service{certs: certs, signer: signer, logger: logger}
}

// Download returns the link for certificate id. The link is empty unless
// the certificate was built and has a storage key.
func (s *Service) Download(ctx context.Context, id string) (*Response, error) {
	c, err := s.certs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var url string
	switch {
	case c.Success && c.HasKey():
		url = s.signer.CertificateDownloadURL(ctx, *c.CertificateKey)
		s.logger.Info("download url issued", zap.String("id", id))
	case c.Success:
		s.logger.Warn("certificate marked successful without a storage key", zap.String("id", id))
	default:
		s.logger.Info("certificate not built yet", zap.String("id", id))
	}

	return &Response{
		CertificateURL: url,
		Email:          c.ParticipantEmail,
		ProductID:      c.ProductID,
		Success:        c.Success,
	}, nil
}
