// Package announcer delivers controller transmissions to their
// destinations: the application log, the SQLite archive, and any
// connected WebSocket clients.
package announcer

import (
	"time"

	"github.com/walker79/offline-atc/internal/atc"
	"github.com/walker79/offline-atc/internal/storage/sqlite"
	"github.com/walker79/offline-atc/internal/websocket"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Log writes every transmission to the application log.
type Log struct {
	logger *logger.Logger
}

// NewLog creates a log announcer
func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log.Named("radio")}
}

// Announce implements atc.Announcer
func (l *Log) Announce(t atc.Transmission) {
	l.logger.Info(t.Message,
		logger.String("position", string(t.Position)),
		logger.String("frequency", t.Frequency),
		logger.String("phase", t.Phase.String()),
		logger.Duration("delay", t.Delay))
}

// Storage persists transmissions to the SQLite archive.
type Storage struct {
	storage *sqlite.TransmissionStorage
	logger  *logger.Logger
}

// NewStorage creates a storage announcer
func NewStorage(storage *sqlite.TransmissionStorage, log *logger.Logger) *Storage {
	return &Storage{
		storage: storage,
		logger:  log.Named("announcer"),
	}
}

// Announce implements atc.Announcer
func (s *Storage) Announce(t atc.Transmission) {
	record := &sqlite.TransmissionRecord{
		CreatedAt: time.Now().UTC(),
		Message:   t.Message,
		Position:  string(t.Position),
		Phase:     t.Phase.String(),
		Frequency: t.Frequency,
		DelayMS:   t.Delay.Milliseconds(),
	}
	if _, err := s.storage.StoreTransmission(record); err != nil {
		s.logger.Error("Failed to store transmission", logger.Error(err))
	}
}

// WebSocket pushes transmissions to all connected clients.
type WebSocket struct {
	server *websocket.Server
}

// NewWebSocket creates a WebSocket announcer
func NewWebSocket(server *websocket.Server) *WebSocket {
	return &WebSocket{server: server}
}

// Announce implements atc.Announcer
func (w *WebSocket) Announce(t atc.Transmission) {
	w.server.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeTransmission,
		Data: map[string]any{
			"message":   t.Message,
			"position":  string(t.Position),
			"phase":     t.Phase.String(),
			"frequency": t.Frequency,
			"delay_ms":  t.Delay.Milliseconds(),
		},
	})
}

// Multi fans a transmission out to several announcers in order.
type Multi struct {
	sinks []atc.Announcer
}

// NewMulti creates a fan-out announcer
func NewMulti(sinks ...atc.Announcer) *Multi {
	return &Multi{sinks: sinks}
}

// Announce implements atc.Announcer
func (m *Multi) Announce(t atc.Transmission) {
	for _, sink := range m.sinks {
		sink.Announce(t)
	}
}
