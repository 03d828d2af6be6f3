package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"homeprice/db"
	"homeprice/ml"
)

// BundleSource hands out the current artifact bundle. The bundle
// itself is immutable; a source may swap bundles between calls.
type BundleSource interface {
	Bundle() *ml.Bundle
	LoadedAt() time.Time
}

// Service owns the prediction endpoints. Everything it reads is
// immutable or internally synchronized, so one instance serves all
// requests.
type Service struct {
	source  BundleSource
	hub     *PredictionHub
	logger  *zap.Logger
	printer *message.Printer
	cache   *lru.Cache[string, float64]
}

// NewService wires the prediction service. hub may be nil when no live
// feed is wanted.
func NewService(source BundleSource, hub *PredictionHub, logger *zap.Logger) (*Service, error) {
	if source == nil {
		return nil, errors.New("bundle source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, float64](256)
	if err != nil {
		return nil, err
	}
	return &Service{
		source:  source,
		hub:     hub,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		cache:   cache,
	}, nil
}

// Register installs all routes on mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/suburbs", s.handleSuburbs)
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("GET /api/predictions", s.handleRecentPredictions)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	if s.hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", s.hub.HandleFeed)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"loaded_at": s.source.LoadedAt(),
	})
}

func (s *Service) handleSuburbs(w http.ResponseWriter, r *http.Request) {
	bundle := s.source.Bundle()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suburbs": bundle.AllSuburbs,
		"count":   len(bundle.AllSuburbs),
	})
}

func (s *Service) handleModel(w http.ResponseWriter, r *http.Request) {
	bundle := s.source.Bundle()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"manifest":        bundle.Manifest,
		"feature_columns": bundle.FeatureColumns,
		"num_trees":       len(bundle.Model.Trees),
		"loaded_at":       s.source.LoadedAt(),
	})
}

func (s *Service) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := db.RecentPredictions(limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

// PredictResponse is the reply to one prediction request.
type PredictResponse struct {
	Price       float64 `json:"price"`
	Formatted   string  `json:"formatted"`
	SuburbKnown bool    `json:"suburb_known"`
	Cached      bool    `json:"cached"`
}

func (s *Service) handlePredict(w http.ResponseWriter, r *http.Request) {
	input, err := decodePredictionInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bundle := s.source.Bundle()
	_, known := bundle.SuburbEncoding.Mapping[input.Suburb]

	key := s.cacheKey(input)
	if price, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, PredictResponse{
			Price:       price,
			Formatted:   s.formatPrice(price),
			SuburbKnown: known,
			Cached:      true,
		})
		return
	}

	price, err := bundle.Predict(input)
	if err != nil {
		s.logger.Error("prediction failed", zap.Error(err),
			zap.String("request_id", GetRequestID(r.Context())))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	s.cache.Add(key, price)

	if err := db.SavePrediction(input, price); err != nil {
		// history is best effort; the prediction still goes out
		s.logger.Warn("failed to record prediction", zap.Error(err))
	}
	if s.hub != nil {
		s.hub.Broadcast(map[string]interface{}{
			"input":     input,
			"price":     price,
			"formatted": s.formatPrice(price),
			"timestamp": time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		Price:       price,
		Formatted:   s.formatPrice(price),
		SuburbKnown: known,
	})
}

func (s *Service) formatPrice(price float64) string {
	return s.printer.Sprintf("$%.0f AUD", price)
}

// cacheKey is scoped to the loaded bundle so a reload invalidates all
// cached prices.
func (s *Service) cacheKey(in ml.PredictionInput) string {
	return fmt.Sprintf("%d|%s|%s|%d|%g|%g|%g|%g|%d",
		s.source.LoadedAt().UnixNano(),
		in.Suburb, in.Type, in.Rooms, in.Bathroom, in.Car,
		in.Landsize, in.BuildingArea, in.SaleYear)
}

// decodePredictionInput accepts JSON bodies and HTML form posts.
func decodePredictionInput(r *http.Request) (ml.PredictionInput, error) {
	var input ml.PredictionInput

	contentType := r.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return input, fmt.Errorf("invalid request body: %w", err)
		}
		return input, nil
	}

	if err := r.ParseForm(); err != nil {
		return input, fmt.Errorf("invalid form: %w", err)
	}
	input.Suburb = r.PostFormValue("suburb")
	input.Type = r.PostFormValue("type")

	var err error
	if input.Rooms, err = strconv.Atoi(r.PostFormValue("rooms")); err != nil {
		return input, errors.New("rooms must be an integer")
	}
	if input.SaleYear, err = strconv.Atoi(r.PostFormValue("sale_year")); err != nil {
		return input, errors.New("sale_year must be an integer")
	}
	floats := map[string]*float64{
		"bathroom":      &input.Bathroom,
		"car":           &input.Car,
		"landsize":      &input.Landsize,
		"building_area": &input.BuildingArea,
	}
	for name, dst := range floats {
		if *dst, err = strconv.ParseFloat(r.PostFormValue(name), 64); err != nil {
			return input, fmt.Errorf("%s must be a number", name)
		}
	}
	return input, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
