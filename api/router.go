// Package api exposes the predictor over HTTP.
package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delhi-house-price/bundle"
	"delhi-house-price/models"
	"delhi-house-price/predict"
	"delhi-house-price/utils"
)

// Predictor is the prediction surface the handlers depend on.
type Predictor interface {
	PredictSingle(req models.PredictionRequest) (*models.PredictionResult, error)
	Metadata() bundle.Metadata
}

// Handler serves prediction requests with an injected Predictor.
type Handler struct {
	predictor Predictor
	logger    *utils.Logger
}

// NewHandler creates a handler around p.
func NewHandler(p Predictor, logger *utils.Logger) *Handler {
	return &Handler{predictor: p, logger: logger}
}

// NewRouter builds the gin engine. allowOrigins enables CORS for the listed
// origins; "*" allows any origin and an empty list disables CORS.
func NewRouter(p Predictor, logger *utils.Logger, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	if len(allowOrigins) > 0 {
		cfg := cors.Config{
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}
		if contains(allowOrigins, "*") {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = allowOrigins
		}
		r.Use(cors.New(cfg))
	}

	h := NewHandler(p, logger)
	g := r.Group("/api")
	{
		g.POST("/predict", h.Predict)
		g.GET("/health", h.Health)
		g.GET("/model", h.Model)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Predict handles POST /api/predict.
func (h *Handler) Predict(c *gin.Context) {
	start := time.Now()
	defer func() { PredictionDuration.Observe(time.Since(start).Seconds()) }()

	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		PredictionsTotal.WithLabelValues("invalid", "").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body: " + err.Error()})
		return
	}

	res, err := h.predictor.PredictSingle(req)
	if err != nil {
		var ve *predict.InputValidationError
		if errors.As(err, &ve) {
			PredictionsTotal.WithLabelValues("invalid", "").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Error(), "field": ve.Field})
			return
		}
		PredictionsTotal.WithLabelValues("error", "").Inc()
		h.logger.Error("[api] Prediction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "prediction failed"})
		return
	}

	PredictionsTotal.WithLabelValues("success", res.PriceSqftSource).Inc()
	PredictedPrice.Observe(res.PredictedPrice)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"predicted_price":   res.PredictedPrice,
		"formatted_price":   res.FormattedPrice,
		"price_sqft":        res.PriceSqft,
		"price_sqft_source": res.PriceSqftSource,
		"region":            res.Region,
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	m := h.predictor.Metadata()
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"model":             m.ModelName,
		"heuristic_version": m.HeuristicVersion,
	})
}

// Model handles GET /api/model.
func (h *Handler) Model(c *gin.Context) {
	m := h.predictor.Metadata()
	c.JSON(http.StatusOK, gin.H{
		"run_id":            m.RunID,
		"model":             m.ModelName,
		"test_rmse":         finiteOrNil(m.TestRMSE),
		"test_mae":          finiteOrNil(m.TestMAE),
		"test_r2":           finiteOrNil(m.TestR2),
		"input_columns":     m.InputColumns,
		"features":          len(m.FeatureNames),
		"heuristic_version": m.HeuristicVersion,
		"seed":              m.Seed,
		"created_at":        m.CreatedAt,
	})
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[api] %s %s -> %d (%v)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// finiteOrNil keeps NaN and infinities out of JSON responses.
func finiteOrNil(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
