package weather

import (
	"context"
	"sync"
	"time"

	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Service keeps a fresh METAR for each watched airport and answers wind
// queries from the session. Fetching happens on a background ticker; a
// failed refresh keeps the previous observation.
type Service struct {
	config   config.WeatherConfig
	airports []string
	client   *Client
	logger   *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	mu     sync.RWMutex
	latest map[string]*METARResponse
}

// NewService creates a weather service watching the given airports
func NewService(cfg config.WeatherConfig, airports []string, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		config:   cfg,
		airports: airports,
		client:   NewClient(cfg, log),
		logger:   log.Named("weather"),
		ctx:      ctx,
		cancel:   cancel,
		latest:   make(map[string]*METARResponse),
	}
}

// Start begins the background refresh. The first fetch happens immediately
// so wind is usually available before the first clearance.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || !s.config.Enabled {
		return nil
	}

	s.logger.Info("Starting weather service",
		logger.Any("airports", s.airports),
		logger.Int("refresh_interval_minutes", s.config.RefreshIntervalMinutes))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshAll()
		s.refreshLoop()
	}()

	s.started = true
	return nil
}

// Stop gracefully shuts down the weather service
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("Weather service stopped")
	return nil
}

func (s *Service) refreshLoop() {
	ticker := time.NewTicker(time.Duration(s.config.RefreshIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll()
		}
	}
}

func (s *Service) refreshAll() {
	for _, icao := range s.airports {
		metar, err := s.client.FetchMETAR(icao)
		if err != nil {
			s.logger.Warn("METAR refresh failed, keeping previous observation",
				logger.String("airport", icao),
				logger.Error(err))
			continue
		}
		s.mu.Lock()
		s.latest[icao] = metar
		s.mu.Unlock()
		s.logger.Debug("METAR updated",
			logger.String("airport", icao),
			logger.Int("wind_dir", metar.Wdir.Degrees),
			logger.Int("wind_speed", metar.Wspd))
	}
}

// METAR returns the latest observation for an airport, or nil
func (s *Service) METAR(icao string) *METARResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[icao]
}

// Wind returns the surface wind at an airport. ok is false when no
// observation is available; a variable wind reports ok with direction 0.
func (s *Service) Wind(icao string) (dirDeg, speedKts int, ok bool) {
	metar := s.METAR(icao)
	if metar == nil {
		return 0, 0, false
	}
	return metar.Wdir.Degrees, metar.Wspd, true
}
