package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/grischamedia/gmean/internal/config"
	"github.com/grischamedia/gmean/internal/discovery"
	"github.com/grischamedia/gmean/internal/logging"
	"github.com/grischamedia/gmean/internal/urls"
	"github.com/grischamedia/gmean/internal/version"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host      string
	Port      int
	StorePath string // Part store and plugin settings (YAML); empty uses the user config file
	LogLevel  string
	Advertise bool   // Announce the server over mDNS
	Instance  string // mDNS instance name (optional)
	CertPath  string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath   string
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server serves the gm-ean plugin endpoints
type Server struct {
	config    *Config
	registry  *config.Registry
	hub       *Hub
	handler   http.Handler
	tlsConfig *tls.Config

	// saveMu serializes the uniqueness check and write of an EAN
	saveMu sync.Mutex

	mu         sync.Mutex
	httpServer *http.Server
	advert     *discovery.Advertisement
}

// New creates a server from cfg. It initializes logging and loads the part
// store, seeding it with example parts when the file does not exist yet.
func New(cfg *Config) (*Server, error) {
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	registry, err := openStore(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if cfg.CertPath != "" || cfg.KeyPath != "" {
		if cfg.CertPath == "" || cfg.KeyPath == "" {
			return nil, fmt.Errorf("both a certificate and a key are required for TLS")
		}
		tlsConfig, err = NewTLSConfig(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := NewWithRegistry(cfg, registry)
	s.tlsConfig = tlsConfig
	return s, nil
}

// NewWithRegistry creates a server over an already loaded registry.
// Logging is left as configured by the caller.
func NewWithRegistry(cfg *Config, registry *config.Registry) *Server {
	s := &Server{
		config:   cfg,
		registry: registry,
		hub:      NewHub(),
	}
	s.handler = s.routes()
	return s
}

func openStore(path string) (*config.Registry, error) {
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve store path: %w", err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Info("Creating part store with example parts", zap.String("path", path))
		registry, err := config.CreateDefaultConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create part store: %w", err)
		}
		return registry, nil
	}

	registry, err := config.LoadRegistryFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load part store: %w", err)
	}
	return registry, nil
}

// Handler returns the root HTTP handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the part store the server reads and writes
func (s *Server) Registry() *config.Registry {
	return s.registry
}

// Hub returns the event hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := s.config.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	logging.Info("Starting gm-ean server",
		zap.String("addr", listener.Addr().String()),
		zap.String("store", s.registry.Path()),
		zap.String("log_level", s.config.LogLevel),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Serve serves HTTP on listener until Shutdown is called
func (s *Server) Serve(listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
	)

	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) advertise(addr net.Addr) {
	port := s.config.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}

	advert, err := discovery.Advertise(discovery.AdvertiseOptions{
		Instance: s.config.Instance,
		Port:     port,
		Path:     urls.PluginPrefix,
		Version:  version.Version,
	})
	if err != nil {
		logging.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.advert = advert
	s.mu.Unlock()

	logging.Info("Advertising server over mDNS",
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	httpServer := s.httpServer
	advert := s.advert
	s.advert = nil
	s.mu.Unlock()

	advert.Shutdown()

	// Websocket connections are hijacked and not tracked by http.Server
	s.hub.Close()

	var err error
	if httpServer != nil {
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = httpServer.Close()
		} else {
			logging.Info("All connections closed gracefully")
		}
	}

	logging.Sync()

	return err
}

// GetActiveConnections returns the number of connected event subscribers
func (s *Server) GetActiveConnections() int {
	return s.hub.Count()
}
