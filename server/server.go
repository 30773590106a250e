// Package server exposes the network over HTTP. The server keeps no recurrent
// state: every request carries the state of its rollout and gets the next one
// back.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/zeu5/dual-ac/checkpoint"
	"github.com/zeu5/dual-ac/network"
	"gonum.org/v1/gonum/mat"
)

type Config struct {
	Addr string `yaml:"addr"`
}

// Server serves forward passes. Forward calls share the network under a read
// lock; loading a checkpoint swaps the network under the write lock, so a
// forward pass never sees half written parameters.
type Server struct {
	config Config
	store  checkpoint.Store
	logger *logrus.Logger

	lock *sync.RWMutex
	net  *network.DualHeadActorCritic

	metrics *metrics
	engine  *gin.Engine
	server  *http.Server
}

func New(config Config, net *network.DualHeadActorCritic, store checkpoint.Store, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	registry := prometheus.NewRegistry()
	s := &Server{
		config:  config,
		store:   store,
		logger:  logger,
		lock:    new(sync.RWMutex),
		net:     net,
		metrics: newMetrics(registry),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/v1/config", s.handleConfig)
	r.POST("/v1/forward", s.handleForward)
	r.POST("/v1/forward/batch", s.handleBatch)
	r.POST("/v1/checkpoint/:key", s.handleLoad)
	r.PUT("/v1/checkpoint/:key", s.handleSave)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.engine = r
	s.server = &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}
	return s
}

// Handler returns the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is done
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("serving")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) current() *network.DualHeadActorCritic {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.net
}

type forwardRequest struct {
	Observation []float64 `json:"observation" binding:"required"`
	Hidden      []float64 `json:"hidden"`
	Cell        []float64 `json:"cell"`
}

type batchRequest struct {
	Observations [][]float64 `json:"observations" binding:"required"`
	Hidden       [][]float64 `json:"hidden"`
	Cell         [][]float64 `json:"cell"`
}

func (s *Server) handleConfig(c *gin.Context) {
	cfg := s.current().Config()
	c.JSON(http.StatusOK, gin.H{
		"state_size":  cfg.StateSize,
		"action_size": cfg.ActionSize,
		"hidden_size": cfg.HiddenSize,
		"input_size":  cfg.InputSize(),
	})
}

func (s *Server) handleForward(c *gin.Context) {
	req := forwardRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.forwards.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	out, err := s.forward(func(net *network.DualHeadActorCritic) (*network.Output, error) {
		return net.Step(req.Observation, network.StateFromVectors(req.Hidden, req.Cell))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Row(0))
}

func (s *Server) handleBatch(c *gin.Context) {
	req := batchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Observations) == 0 {
		s.metrics.forwards.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	x, err := stack(req.Observations)
	if err != nil {
		s.writeError(c, err)
		return
	}
	state := network.State{}
	if len(req.Hidden) > 0 || len(req.Cell) > 0 {
		if state.Hidden, err = stack(req.Hidden); err != nil {
			s.writeError(c, err)
			return
		}
		if state.Cell, err = stack(req.Cell); err != nil {
			s.writeError(c, err)
			return
		}
	}
	out, err := s.forward(func(net *network.DualHeadActorCritic) (*network.Output, error) {
		return net.Forward(x, state)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	rows := make([]network.StepOutput, len(req.Observations))
	for i := range rows {
		rows[i] = out.Row(i)
	}
	c.JSON(http.StatusOK, gin.H{"outputs": rows})
}

// forward runs fn under the read lock and records metrics
func (s *Server) forward(fn func(*network.DualHeadActorCritic) (*network.Output, error)) (*network.Output, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	start := time.Now()
	out, err := fn(s.net)
	s.metrics.latency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	s.metrics.forwards.WithLabelValues("ok").Inc()
	return out, nil
}

func (s *Server) handleLoad(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no checkpoint store configured"})
		return
	}
	key := c.Param("key")
	snap, err := s.store.Load(c.Request.Context(), key)
	if err != nil {
		s.writeError(c, err)
		return
	}
	next := s.current().Clone()
	if err := checkpoint.Restore(next, snap); err != nil {
		s.writeError(c, err)
		return
	}

	s.lock.Lock()
	s.net = next
	s.lock.Unlock()

	s.metrics.swaps.Inc()
	s.logger.WithField("key", key).Info("loaded checkpoint")
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleSave(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no checkpoint store configured"})
		return
	}
	key := c.Param("key")
	if err := s.store.Save(c.Request.Context(), key, checkpoint.Take(s.current())); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, network.ErrInvalidInputShape):
		status = http.StatusBadRequest
		s.metrics.forwards.WithLabelValues("invalid_shape").Inc()
	case errors.Is(err, checkpoint.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkpoint.ErrShapeMismatch):
		status = http.StatusConflict
	default:
		s.logger.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// stack builds a matrix out of equally long rows
func stack(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, network.ErrInvalidInputShape
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for _, r := range rows {
		if len(r) != width {
			return nil, network.ErrInvalidInputShape
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), width, data), nil
}
