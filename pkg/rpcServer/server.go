package rpcServer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/internal/metrics"
	"github.com/mojo-fit/mojo-indexer/pkg/checkpoint"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/mojo-fit/mojo-indexer/pkg/pipeline"
	"github.com/mojo-fit/mojo-indexer/pkg/service/indexDataService"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// IndexRunner triggers indexing runs. *pipeline.Pipeline satisfies it.
type IndexRunner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
	State() pipeline.RunState
}

type RpcServerConfig struct {
	HttpPort    int
	IndexSecret string
}

type RpcServer struct {
	Logger           *zap.Logger
	rpcConfig        *RpcServerConfig
	indexDataService *indexDataService.IndexDataService
	runner           IndexRunner
	checkpoints      checkpoint.Store
	eventBus         eventBusTypes.IEventBus
	metricsSink      *metrics.MetricsSink
	globalConfig     *config.Config

	lastRunLock sync.RWMutex
	lastRun     *eventBusTypes.RunCompletedData
	lastRunAt   time.Time
}

func NewRpcServer(
	rpcConfig *RpcServerConfig,
	ids *indexDataService.IndexDataService,
	runner IndexRunner,
	cs checkpoint.Store,
	eb eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	l *zap.Logger,
	cfg *config.Config,
) *RpcServer {
	return &RpcServer{
		Logger:           l,
		rpcConfig:        rpcConfig,
		indexDataService: ids,
		runner:           runner,
		checkpoints:      cs,
		eventBus:         eb,
		metricsSink:      ms,
		globalConfig:     cfg,
	}
}

func (s *RpcServer) registerHandlers(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		route   string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/v1/health", "health", s.handleHealth},
		{http.MethodGet, "/v1/status", "status", s.handleStatus},
		{http.MethodGet, "/v1/sessions", "listSessions", s.handleListSessions},
		{http.MethodGet, "/v1/sessions/{id}", "getSession", s.handleGetSession},
		{http.MethodGet, "/v1/challenges", "listChallenges", s.handleListChallenges},
		{http.MethodGet, "/v1/fighters/{address}", "getFighter", s.handleGetFighter},
		{http.MethodGet, "/v1/leaderboard", "leaderboard", s.handleLeaderboard},
		{http.MethodPost, "/v1/index", "index", s.requireIndexSecret(s.handleIndex)},
		{http.MethodGet, "/v1/index", "index", s.requireIndexSecret(s.handleIndex)},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, s.instrument(r.route, r.handler)); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

// Handler returns the full HTTP handler with routing and CORS applied.
func (s *RpcServer) Handler() (http.Handler, error) {
	mux := runtime.NewServeMux()
	if err := s.registerHandlers(mux); err != nil {
		s.Logger.Sugar().Errorw("Failed to register handlers", zap.Error(err))
		return nil, err
	}
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(mux), nil
}

// Start serves the HTTP API until ctx is cancelled.
func (s *RpcServer) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.ListenForRunEvents(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.rpcConfig.HttpPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.Logger.Sugar().Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger.Sugar().Errorw("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()
	go func() {
		s.Logger.Sugar().Infow("Starting HTTP server", zap.Int("port", s.rpcConfig.HttpPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Sugar().Errorw("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// ListenForRunEvents records the outcome of every run, whoever triggered it.
func (s *RpcServer) ListenForRunEvents(ctx context.Context) {
	consumer := &eventBusTypes.Consumer{
		Id:      eventBusTypes.NewConsumerId("rpcServer"),
		Context: ctx,
		Channel: make(chan *eventBusTypes.Event, 100),
	}
	s.eventBus.Subscribe(consumer)

	go func() {
		defer s.eventBus.Unsubscribe(consumer)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-consumer.Channel:
				if event.Name != eventBusTypes.Event_RunCompleted {
					continue
				}
				if data, ok := event.Data.(*eventBusTypes.RunCompletedData); ok {
					s.setLastRun(data)
				}
			}
		}
	}()
}

func (s *RpcServer) setLastRun(data *eventBusTypes.RunCompletedData) {
	s.lastRunLock.Lock()
	defer s.lastRunLock.Unlock()
	s.lastRun = data
	s.lastRunAt = time.Now().UTC()
}

func (s *RpcServer) getLastRun() (*eventBusTypes.RunCompletedData, time.Time) {
	s.lastRunLock.RLock()
	defer s.lastRunLock.RUnlock()
	return s.lastRun, s.lastRunAt
}
