package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delhi-house-price/bundle"
	"delhi-house-price/models"
	"delhi-house-price/predict"
	"delhi-house-price/utils"
)

type stubPredictor struct {
	res  *models.PredictionResult
	err  error
	last models.PredictionRequest
}

func (s *stubPredictor) PredictSingle(req models.PredictionRequest) (*models.PredictionResult, error) {
	s.last = req
	return s.res, s.err
}

func (s *stubPredictor) Metadata() bundle.Metadata {
	return bundle.Metadata{ModelName: "Random Forest", HeuristicVersion: "ncr-2024.1", TestR2: math.NaN()}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, r http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestPredictSuccess(t *testing.T) {
	stub := &stubPredictor{res: &models.PredictionResult{
		PredictedPrice:  11650000,
		FormattedPrice:  "₹1.17 Crore",
		PriceSqft:       7767.5,
		PriceSqftSource: predict.SourceHeuristic,
		Region:          "Noida",
	}}
	r := NewRouter(stub, utils.Discard(), nil)

	w, body := do(t, r, http.MethodPost, "/api/predict",
		`{"area": 1500, "latitude": 28.60885, "longitude": 77.46056, "bedrooms": 3, "bathrooms": 3, "furnished_status": "Furnished"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 11650000.0, body["predicted_price"])
	assert.Equal(t, "₹1.17 Crore", body["formatted_price"])
	assert.Equal(t, "Noida", body["region"])

	require.NotNil(t, stub.last.Area)
	assert.Equal(t, 1500.0, *stub.last.Area)
	require.NotNil(t, stub.last.FurnishedStatus)
	assert.Equal(t, "Furnished", *stub.last.FurnishedStatus)
	assert.Nil(t, stub.last.Balcony)
}

func TestPredictValidationError(t *testing.T) {
	stub := &stubPredictor{err: &predict.InputValidationError{Field: "area", Message: "is required"}}
	r := NewRouter(stub, utils.Discard(), nil)

	w, body := do(t, r, http.MethodPost, "/api/predict", `{"latitude": 28.5}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "area", body["field"])
	assert.Contains(t, body["error"], "area")
}

func TestPredictMalformedJSON(t *testing.T) {
	r := NewRouter(&stubPredictor{}, utils.Discard(), nil)

	w, body := do(t, r, http.MethodPost, "/api/predict", `{"area": "large"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestPredictInternalError(t *testing.T) {
	stub := &stubPredictor{err: errors.New("estimator exploded")}
	r := NewRouter(stub, utils.Discard(), nil)

	w, body := do(t, r, http.MethodPost, "/api/predict", `{"area": 1000}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "prediction failed", body["error"])
}

func TestHealthAndModel(t *testing.T) {
	r := NewRouter(&stubPredictor{}, utils.Discard(), nil)

	w, body := do(t, r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Random Forest", body["model"])

	w, body = do(t, r, http.MethodGet, "/api/model", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ncr-2024.1", body["heuristic_version"])
	assert.Nil(t, body["test_r2"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(&stubPredictor{res: &models.PredictionResult{PredictedPrice: 5e6}}, utils.Discard(), nil)
	do(t, r, http.MethodPost, "/api/predict", `{}`, nil)

	w, _ := do(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "houseprice_predictions_total")
}

func TestCORS(t *testing.T) {
	r := NewRouter(&stubPredictor{}, utils.Discard(), []string{"http://localhost:3000"})

	w, _ := do(t, r, http.MethodGet, "/api/health", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	open := NewRouter(&stubPredictor{}, utils.Discard(), []string{"*"})
	w, _ = do(t, open, http.MethodGet, "/api/health", "", map[string]string{"Origin": "http://example.com"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
