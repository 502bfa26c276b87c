package lookup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/certificates"
)

// Dispatcher selects a strategy for a request and runs it.
type Dispatcher struct {
	repo   Repository
	logger *zap.Logger
}

// NewDispatcher returns a Dispatcher reading from repo.
func NewDispatcher(repo Repository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, logger: logger}
}

// Select returns the first strategy accepting req, or a *NoStrategyError.
func (d *Dispatcher) Select(req SearchRequest) (Strategy, error) {
	for _, s := range strategies {
		if s.CanHandle(req) {
			return s, nil
		}
	}
	return Strategy{}, &NoStrategyError{
		OrderID:   req.OrderID,
		Email:     req.Email,
		ProductID: req.ProductID,
	}
}

// Execute runs the selected strategy. The result is never empty: when the
// lookup finds nothing it holds the single not-found projection.
func (d *Dispatcher) Execute(ctx context.Context, req SearchRequest) ([]Projection, error) {
	s, err := d.Select(req)
	if err != nil {
		d.logger.Info("no lookup strategy for request", zap.String("request", req.String()))
		return nil, err
	}

	d.logger.Info("fetching certificates",
		zap.String("strategy", s.Name),
		zap.String("request", req.String()),
	)

	certs, err := s.Fetch(ctx, d.repo, req)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", s.Name, err)
	}

	d.logger.Info("certificates found", zap.String("strategy", s.Name), zap.Int("count", len(certs)))

	if len(certs) == 0 {
		return []Projection{s.NotFound(req)}, nil
	}

	out := make([]Projection, 0, len(certs))
	for i := range certs {
		out = append(out, d.project(&certs[i]))
	}
	return out, nil
}

func (d *Dispatcher) project(c *certificates.Certificate) Projection {
	if c.Success && !c.HasKey() {
		d.logger.Warn("certificate marked successful without a storage key",
			zap.String("id", c.ID),
			zap.Int64("order_id", c.OrderID),
		)
	}

	id := c.ID
	orderID := c.OrderID
	productID := c.ProductID
	name := strings.TrimSpace(c.ParticipantFirstName + " " + c.ParticipantLastName)
	email := c.ParticipantEmail
	document := c.ParticipantCPF

	url := ""
	if c.CertificateURL != nil {
		url = *c.CertificateURL
	}

	return Projection{
		ID:                  &id,
		OrderID:             &orderID,
		ProductID:           &productID,
		ParticipantName:     &name,
		ParticipantEmail:    &email,
		ParticipantDocument: &document,
		CertificateURL:      &url,
		CreatedAt:           c.GeneratedDate,
		UpdatedAt:           c.GeneratedDate,
		Email:               &email,
		Success:             true,
	}
}
