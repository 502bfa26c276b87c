// Package registration turns the orders of a product into certificate
// records and queues the new ones for rendering.
package registration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/certificates"
	"github.com/imrishuroy/certified-builder-api/internal/orders"
	"github.com/imrishuroy/certified-builder-api/internal/ordersource"
	"github.com/imrishuroy/certified-builder-api/internal/participants"
	"github.com/imrishuroy/certified-builder-api/internal/products"
)

type OrderSource interface {
	FetchOrders(ctx context.Context, productID int64) ([]ordersource.TechOrder, error)
}

type ParticipantStore interface {
	GetByEmail(ctx context.Context, email string) (*participants.Participant, error)
	Create(ctx context.Context, p *participants.Participant) (*participants.Participant, error)
}

type ProductStore interface {
	Get(ctx context.Context, productID int64) (*products.Product, error)
	Create(ctx context.Context, p *products.Product) (*products.Product, error)
}

type OrderStore interface {
	Get(ctx context.Context, orderID int64) (*orders.Order, error)
	Create(ctx context.Context, o *orders.Order) (*orders.Order, error)
}

type CertificateStore interface {
	GetByOrderID(ctx context.Context, orderID int64) ([]certificates.Certificate, error)
	Create(ctx context.Context, c *certificates.Certificate) (*certificates.Certificate, error)
}

// Publisher sends a batch of records as one queue message.
type Publisher interface {
	SendBatch(ctx context.Context, records any, attributes map[string]string) (string, error)
}

// Counter records a metric. *aws.Metrics satisfies it.
type Counter interface {
	Count(ctx context.Context, name string, value float64, dims ...string)
}

// Deps groups the collaborators of a Service. Publisher and Metrics are
// optional.
type Deps struct {
	Source       OrderSource
	Participants ParticipantStore
	Products     ProductStore
	Orders       OrderStore
	Certificates CertificateStore
	Publisher    Publisher
	Metrics      Counter
	Logger       *zap.Logger
}

// Result summarises one registration run.
type Result struct {
	CertificateQuantity int       `json:"certificate_quantity"`
	ExistingOrders      []int64   `json:"existing_orders"`
	NewOrders           []int64   `json:"new_orders"`
	InvalidOrders       []int64   `json:"invalid_orders"`
	ProcessingDate      time.Time `json:"processing_date"`
}

// Service runs registrations.
type Service struct {
	Deps
	nowFunc func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{Deps: d, nowFunc: time.Now}
}

// Register fetches the orders of productID and makes sure every checked-in
// order has a participant, product, order and certificate record. Orders
// without a check-in are reported as invalid. A failure on one order is
// logged and the order is left out of the result; the run continues.
//
// Orders that received a new certificate are published as one message.
//
// The certificate existence check and the create are separate calls, so
// two concurrent runs can both create the certificate of one order. The id
// is derived from the order id, so the second write replaces the first
// instead of adding a duplicate.
func (s *Service) Register(ctx context.Context, productID int64) (*Result, error) {
	s.Logger.Info("starting registration", zap.Int64("product_id", productID))

	fetched, err := s.Source.FetchOrders(ctx, productID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ExistingOrders: []int64{},
		NewOrders:      []int64{},
		InvalidOrders:  []int64{},
		ProcessingDate: s.nowFunc().UTC(),
	}

	var created []ordersource.TechOrder
	for _, o := range fetched {
		if !o.CheckedIn() {
			res.InvalidOrders = append(res.InvalidOrders, o.OrderID)
			continue
		}
		isNew, err := s.registerOrder(ctx, o)
		if err != nil {
			s.Logger.Error("order registration failed", zap.Int64("order_id", o.OrderID), zap.Error(err))
			continue
		}
		if isNew {
			res.NewOrders = append(res.NewOrders, o.OrderID)
			created = append(created, o)
		} else {
			res.ExistingOrders = append(res.ExistingOrders, o.OrderID)
		}
	}
	res.CertificateQuantity = len(res.NewOrders) + len(res.ExistingOrders)

	if len(res.InvalidOrders) > 0 {
		s.Logger.Warn("orders without check-in skipped", zap.Int("count", len(res.InvalidOrders)))
	}

	product := strconv.FormatInt(productID, 10)
	s.count(ctx, "OrdersFetched", len(fetched), product)
	s.count(ctx, "CertificatesCreated", len(res.NewOrders), product)
	s.count(ctx, "InvalidOrders", len(res.InvalidOrders), product)

	if len(created) > 0 {
		if err := s.publish(ctx, productID, created); err != nil {
			return nil, err
		}
	} else {
		s.Logger.Info("no new orders to build", zap.Int64("product_id", productID))
	}

	s.Logger.Info("registration finished",
		zap.Int64("product_id", productID),
		zap.Int("new", len(res.NewOrders)),
		zap.Int("existing", len(res.ExistingOrders)),
		zap.Int("invalid", len(res.InvalidOrders)),
	)
	return res, nil
}

// registerOrder reports whether a certificate was created for o.
func (s *Service) registerOrder(ctx context.Context, o ordersource.TechOrder) (bool, error) {
	p, err := s.Participants.GetByEmail(ctx, o.Email)
	if err != nil {
		return false, err
	}
	if p == nil {
		if _, err := s.Participants.Create(ctx, &participants.Participant{
			FirstName: o.FirstName,
			LastName:  o.LastName,
			Email:     o.Email,
			Phone:     o.Phone,
			CPF:       o.CPF,
			City:      o.City,
		}); err != nil {
			return false, err
		}
	}

	prod, err := s.Products.Get(ctx, o.ProductID)
	if err != nil {
		return false, err
	}
	if prod == nil {
		if _, err := s.Products.Create(ctx, &products.Product{
			ProductID:             o.ProductID,
			ProductName:           o.ProductName,
			CertificateDetails:    o.CertificateDetails,
			CertificateLogo:       o.CertificateLogo,
			CertificateBackground: o.CertificateBackground,
			CheckinLatitude:       o.CheckinLatitude,
			CheckinLongitude:      o.CheckinLongitude,
			TimeCheckin:           o.TimeCheckin,
		}); err != nil {
			return false, err
		}
	}

	existingOrder, err := s.Orders.Get(ctx, o.OrderID)
	if err != nil {
		return false, err
	}
	if existingOrder == nil {
		if _, err := s.Orders.Create(ctx, toOrder(o)); err != nil {
			return false, err
		}
	}

	certs, err := s.Certificates.GetByOrderID(ctx, o.OrderID)
	if err != nil {
		return false, err
	}
	if len(certs) > 0 {
		s.Logger.Debug("certificate already exists", zap.Int64("order_id", o.OrderID))
		return false, nil
	}
	if _, err := s.Certificates.Create(ctx, toCertificate(o)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) publish(ctx context.Context, productID int64, batch []ordersource.TechOrder) error {
	if s.Publisher == nil {
		s.Logger.Warn("no builder queue configured, new orders not published", zap.Int("count", len(batch)))
		return nil
	}
	id, err := s.Publisher.SendBatch(ctx, batch, map[string]string{
		"product_id": strconv.FormatInt(productID, 10),
	})
	if err != nil {
		return fmt.Errorf("publish %d new orders: %w", len(batch), err)
	}
	s.Logger.Info("new orders sent to build", zap.Int("count", len(batch)), zap.String("message_id", id))
	return nil
}

func (s *Service) count(ctx context.Context, name string, n int, productID string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Count(ctx, name, float64(n), "ProductId", productID)
}

func toOrder(o ordersource.TechOrder) *orders.Order {
	return &orders.Order{
		OrderID:               o.OrderID,
		OrderDate:             o.OrderDate,
		ProductID:             o.ProductID,
		ProductName:           o.ProductName,
		CertificateDetails:    o.CertificateDetails,
		CertificateLogo:       o.CertificateLogo,
		CertificateBackground: o.CertificateBackground,
		CheckinLatitude:       o.CheckinLatitude,
		CheckinLongitude:      o.CheckinLongitude,
		TimeCheckin:           o.TimeCheckin,
		ParticipantEmail:      o.Email,
		ParticipantFirstName:  o.FirstName,
		ParticipantLastName:   o.LastName,
		ParticipantCPF:        o.CPF,
		ParticipantPhone:      o.Phone,
		ParticipantCity:       o.City,
	}
}

func toCertificate(o ordersource.TechOrder) *certificates.Certificate {
	return &certificates.Certificate{
		ID:                    certificates.IDForOrder(o.OrderID),
		OrderID:               o.OrderID,
		OrderDate:             o.OrderDate,
		ProductID:             o.ProductID,
		ProductName:           o.ProductName,
		CertificateDetails:    o.CertificateDetails,
		CertificateLogo:       o.CertificateLogo,
		CertificateBackground: o.CertificateBackground,
		ParticipantEmail:      o.Email,
		ParticipantFirstName:  o.FirstName,
		ParticipantLastName:   o.LastName,
		ParticipantCPF:        o.CPF,
		ParticipantPhone:      o.Phone,
		ParticipantCity:       o.City,
	}
}
