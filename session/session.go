// Package session binds a classifier and a device registry to one scanning
// session. Handle must be called from one goroutine at a time, in the order
// packets were delivered.
package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ble-beacon-parser/classifier"
	"ble-beacon-parser/registry"
)

// DiagnosticFunc receives one line of text per dropped packet.
type DiagnosticFunc func(line string)

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(s *Session) { s.diag = fn }
}

func WithClassifier(c *classifier.Classifier) Option {
	return func(s *Session) { s.classifier = c }
}

type Session struct {
	id         string
	classifier *classifier.Classifier
	registry   *registry.Registry
	log        zerolog.Logger
	diag       DiagnosticFunc
	closed     bool
}

func Open(opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		registry: registry.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier == nil {
		s.classifier = classifier.New()
	}
	if s.diag == nil {
		s.diag = func(line string) { s.log.Debug().Str("session", s.id).Msg(line) }
	}
	s.log.Info().Str("session", s.id).Msg("SESSION open")
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Handle classifies one advertisement and records it. Packets that cannot be
// classified, and any packet after Close, come back as Ignored.
func (s *Session) Handle(a classifier.Advertisement) registry.Event {
	if s.closed {
		s.diag(fmt.Sprintf("dev=%s dropped: session closed", a.DeviceID))
		return registry.Event{Kind: registry.Ignored}
	}
	b, err := s.classifier.Classify(a)
	if err != nil {
		s.diag(fmt.Sprintf("dev=%s rssi=%d dropped: %v", a.DeviceID, a.RSSI, err))
	}
	return s.registry.Observe(a.DeviceID, a.RSSI, b)
}

func (s *Session) Get(deviceID string) (registry.DeviceRecord, bool) {
	return s.registry.Get(deviceID)
}

func (s *Session) Records() []registry.DeviceRecord {
	return s.registry.Records()
}

func (s *Session) Len() int {
	return s.registry.Len()
}

// Clear ends the current scanning session and starts a fresh one under a new id.
func (s *Session) Clear() {
	s.log.Info().Str("session", s.id).Int("devices", s.registry.Len()).Msg("SESSION clear")
	s.registry.Clear()
	s.id = uuid.NewString()
}

func (s *Session) Close() {
	if s.closed {
		return
	}
	s.log.Info().Str("session", s.id).Int("devices", s.registry.Len()).Msg("SESSION close")
	s.registry.Clear()
	s.closed = true
}
