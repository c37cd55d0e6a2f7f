package rpcServer

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/mojo-fit/mojo-indexer/internal/metrics/metricsTypes"
	"go.uber.org/zap"
)

var marshaler = &runtime.JSONBuiltin{}

type errorResponse struct {
	Error string `json:"error"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *RpcServer) instrument(route string, h runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r, pathParams)

		_ = s.metricsSink.Incr(metricsTypes.Metric_Incr_HttpRequest, []metricsTypes.MetricsLabel{
			{Name: "route", Value: route},
			{Name: "status", Value: strconv.Itoa(rec.status)},
		}, 1)
		_ = s.metricsSink.Timing(metricsTypes.Metric_Timing_HttpDuration, time.Since(start), []metricsTypes.MetricsLabel{
			{Name: "route", Value: route},
		})
		s.Logger.Sugar().Debugw("Handled request",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Int("status", rec.status),
		)
	}
}

// requireIndexSecret enforces the bearer secret when one is configured.
func (s *RpcServer) requireIndexSecret(h runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		secret := s.rpcConfig.IndexSecret
		if secret != "" {
			expected := "Bearer " + secret
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				s.writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
		}
		h(w, r, pathParams)
	}
}

func (s *RpcServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := marshaler.Marshal(v)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to marshal response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", marshaler.ContentType(v))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.Logger.Sugar().Debugw("Failed to write response", zap.Error(err))
	}
}

func (s *RpcServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, &errorResponse{Error: err.Error()})
}

// parseLimit returns 0 for a missing limit so the service default applies.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}

// parseStatus returns nil when no status filter was given.
func parseStatus(r *http.Request, max int) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := strconv.Atoi(raw)
	if err != nil || status < 0 || status > max {
		return nil, errors.New("invalid status filter")
	}
	return &status, nil
}
