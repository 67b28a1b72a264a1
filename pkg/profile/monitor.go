package profile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

// Monitor exposes the prometheus collectors over http
type Monitor struct {
	enable bool
	port   uint32
	server *http.Server
	logger logrus.FieldLogger
}

func NewMonitor(config *repo.Config) (*Monitor, error) {
	if config.Monitor.Enable && config.Monitor.Port == 0 {
		return nil, errors.New("monitor.port is required when monitor is enabled")
	}
	return &Monitor{
		enable: config.Monitor.Enable,
		port:   config.Monitor.Port,
		logger: loggers.Logger(loggers.App),
	}, nil
}

// Handler routes /metrics to the default prometheus registry
func Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

func (m *Monitor) Start() error {
	if !m.enable {
		return nil
	}

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", m.port),
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		m.logger.WithField("port", m.port).Info("Start monitor")
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithField("err", err).Error("Monitor stopped")
		}
	}()
	return nil
}

func (m *Monitor) Stop() error {
	if m.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.server.Shutdown(ctx)
}
