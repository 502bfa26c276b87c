package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/download"
	"github.com/imrishuroy/certified-builder-api/internal/idempotency"
	"github.com/imrishuroy/certified-builder-api/internal/lookup"
	"github.com/imrishuroy/certified-builder-api/internal/registration"
	"github.com/imrishuroy/certified-builder-api/internal/validation"
)

// Registrar runs the registration workflow for one product.
type Registrar interface {
	Register(ctx context.Context, productID int64) (*registration.Result, error)
}

// Searcher resolves a certificate search request.
type Searcher interface {
	Execute(ctx context.Context, req lookup.SearchRequest) ([]lookup.Projection, error)
}

// Downloader produces the download answer for one certificate.
type Downloader interface {
	Download(ctx context.Context, id string) (*download.Response, error)
}

// IdempotencyStore guards the create endpoint.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key string, productID int64) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	Retry(ctx context.Context, key string) error
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// HandlerConfig groups dependencies for the certificate handlers.
type HandlerConfig struct {
	Prefix      string // e.g. /api/v1
	Registrar   Registrar
	Searcher    Searcher
	Downloader  Downloader
	Idempotency IdempotencyStore // optional
	Logger      *zap.Logger
}

type certificateHandler struct {
	HandlerConfig
}

// RegisterCertificateRoutes registers routes for the certificate API.
func RegisterCertificateRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &certificateHandler{HandlerConfig: cfg}
	v := validation.New()

	g := r.Group(cfg.Prefix + "/certificate")
	g.POST("/create", func(c *gin.Context) {
		var req validation.CreateCertificateRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}
		h.create(c, req.ProductID)
	})
	g.GET("/fetch", func(c *gin.Context) {
		var q validation.FetchQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			return
		}
		h.fetch(c, lookup.SearchRequest{OrderID: q.OrderID, Email: q.Email, ProductID: q.ProductID})
	})
	g.GET("/download", func(c *gin.Context) {
		var q validation.DownloadQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			return
		}
		h.download(c, q.ID)
	})
}

func (h *certificateHandler) create(c *gin.Context, productID int64) {
	ctx := c.Request.Context()
	key := c.GetHeader("Idempotency-Key")
	if key == "" || h.Idempotency == nil {
		res, err := h.Registrar.Register(ctx, productID)
		if err != nil {
			h.internalError(c, "create certificates", err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	created, err := h.Idempotency.CreateIfNotExists(ctx, key, productID)
	if err != nil {
		h.internalError(c, "idempotency check", err)
		return
	}
	if !created && !h.resume(c, key) {
		return
	}

	res, err := h.Registrar.Register(ctx, productID)
	if err != nil {
		if mErr := h.Idempotency.MarkFailed(ctx, key, err.Error()); mErr != nil {
			h.Logger.Warn("failed to mark idempotency record failed", zap.String("idempotency_key", key), zap.Error(mErr))
		}
		h.internalError(c, "create certificates", err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		h.internalError(c, "encode result", err)
		return
	}
	if err := h.Idempotency.MarkDone(ctx, key, string(body), http.StatusOK); err != nil {
		h.Logger.Warn("failed to mark idempotency record done", zap.String("idempotency_key", key), zap.Error(err))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// resume decides what to do with a request whose key was seen before.
// It returns true when the caller should run the workflow, having already
// answered the request otherwise.
func (h *certificateHandler) resume(c *gin.Context, key string) bool {
	ctx := c.Request.Context()
	rec, err := h.Idempotency.Get(ctx, key)
	if err != nil {
		h.internalError(c, "idempotency check", err)
		return false
	}
	if rec == nil {
		h.internalError(c, "idempotency check", fmt.Errorf("record %s vanished after conditional put", key))
		return false
	}

	switch rec.Status {
	case idempotency.StatusDone:
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		return false
	case idempotency.StatusInProgress:
		inProgress(c, key)
		return false
	case idempotency.StatusFailed:
		err := h.Idempotency.Retry(ctx, key)
		if errors.Is(err, idempotency.ErrConditionFailed) {
			// a concurrent retry claimed it first
			inProgress(c, key)
			return false
		}
		if err != nil {
			h.internalError(c, "idempotency retry", err)
			return false
		}
		h.Logger.Info("retrying failed request", zap.String("idempotency_key", key), zap.String("previous_error", rec.Note))
		return true
	default:
		h.internalError(c, "idempotency check", fmt.Errorf("unknown idempotency status %q", rec.Status))
		return false
	}
}

func (h *certificateHandler) fetch(c *gin.Context, req lookup.SearchRequest) {
	out, err := h.Searcher.Execute(c.Request.Context(), req)
	if err != nil {
		var nse *lookup.NoStrategyError
		if errors.As(err, &nse) {
			h.Logger.Info("no lookup strategy for request", zap.String("request", req.String()))
			c.JSON(http.StatusNotFound, validation.ErrorBody(http.StatusNotFound, "Certificate not found", nse.Details()))
			return
		}
		h.internalError(c, "fetch certificates", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *certificateHandler) download(c *gin.Context, id string) {
	res, err := h.Downloader.Download(c.Request.Context(), id)
	if errors.Is(err, download.ErrNotFound) {
		c.JSON(http.StatusNotFound, validation.ErrorBody(http.StatusNotFound, "Certificate not found", gin.H{"id": id}))
		return
	}
	if err != nil {
		h.internalError(c, "download certificate", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *certificateHandler) internalError(c *gin.Context, op string, err error) {
	h.Logger.Error(op+" failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, validation.ErrorBody(http.StatusInternalServerError, "Internal Server Error", err.Error()))
}

func inProgress(c *gin.Context, key string) {
	c.JSON(http.StatusAccepted, validation.ErrorBody(http.StatusAccepted, "request already in progress", gin.H{"idempotency_key": key}))
}
