package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"ble-beacon-parser/classifier"
	"ble-beacon-parser/logger"
	"ble-beacon-parser/registry"
	"ble-beacon-parser/session"
)

type MQTTMessage struct {
	MessageID  int64  `json:"message_id"`
	GatewayMAC string `json:"gateway_mac"`
	GatewayHW  string `json:"gateway_hw"`
	DeviceMAC  string `json:"device_mac"`
	Payload    string `json:"payload"`
	QoS        int    `json:"qos"`
	Timestamp  int64  `json:"timestamp"`
	RSSI       *int   `json:"rssi,omitempty"`
}

var macSeparators = strings.NewReplacer(":", "", "-", "", ".", "", " ", "")

func main() {
	cfg := loadConfig()
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		Debug:      cfg.LogDebug,
		Output:     cfg.LogOutput,
		TimeFormat: cfg.LogTimeFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("parser")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store Store
	if cfg.DB.enabled() {
		pg, err := connectDB(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		log.Info().Msg("CONNECTED TO DATABASE")
		store = pg
	} else {
		log.Warn().Msg("no database configured; parsed output is not stored")
	}

	var pub EventPublisher
	switch cfg.EventSink {
	case sinkPubSub:
		p, err := newPubSubPublisher(ctx, cfg.PubSub, logger.WithComponent("pubsub"))
		if err != nil {
			log.Fatal().Err(err).Msg("initPubSub")
		}
		pub = p
	case sinkNATS:
		p, err := newNATSPublisher(cfg.NATS, logger.WithComponent("nats"))
		if err != nil {
			log.Fatal().Err(err).Msg("initNATS")
		}
		pub = p
	}

	sess := session.Open(session.WithLogger(logger.WithComponent("session")))
	srv := newServer(cfg, log, sess, store, pub)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", httpSrv.Addr).Msg("parser listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ListenAndServe")
	}
	srv.close()
}

type server struct {
	cfg   Config
	log   zerolog.Logger
	store Store
	pub   EventPublisher

	// sessMu serialises packets into the session in arrival order.
	sessMu sync.Mutex
	sess   *session.Session
}

func newServer(cfg Config, log zerolog.Logger, sess *session.Session, store Store, pub EventPublisher) *server {
	return &server{cfg: cfg, log: log, sess: sess, store: store, pub: pub}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("parser ok"))
	})
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/devices", s.handleDevices)
	mux.HandleFunc("/session/clear", s.handleClear)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("parser"))
	})
	return mux
}

func (s *server) close() {
	s.sessMu.Lock()
	s.sess.Close()
	s.sessMu.Unlock()
	if s.pub != nil {
		if err := s.pub.Close(); err != nil {
			s.log.Warn().Err(err).Msg("publisher close")
		}
	}
	if s.store != nil {
		s.store.Close()
	}
}

// dispatch hands one advertisement to the session and returns the session id
// it was recorded under.
func (s *server) dispatch(adv classifier.Advertisement) (registry.Event, string) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	return s.sess.Handle(adv), s.sess.ID()
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.log.With().Str("trace", genTraceID()).Logger()

	if r.Method != http.MethodPost {
		http.Error(w, "only POST", http.StatusMethodNotAllowed)
		return
	}

	var in MQTTMessage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn().Err(err).Msg("MSG decode error")
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	normalize(&in)
	log.Info().
		Int64("msg_id", in.MessageID).
		Str("gw_mac", in.GatewayMAC).
		Str("gw_hw", in.GatewayHW).
		Str("dev_mac", in.DeviceMAC).
		Int("qos", in.QoS).
		Int64("ts", in.Timestamp).
		Str("rssi", ptrIntStr(in.RSSI)).
		Msg("MSG recv")

	if err := validate(&in); err != nil {
		log.Warn().Err(err).Msg("MSG validation error")
		http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Debug().Int("payload_len", len(in.Payload)).Str("preview", head(in.Payload, s.cfg.PreviewChars)).Msg("MSG payload")

	raw, err := hex.DecodeString(in.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("MSG invalid hex payload")
		http.Error(w, "payload must be hex: "+err.Error(), http.StatusBadRequest)
		return
	}

	rssi := 0
	if in.RSSI != nil {
		rssi = *in.RSSI
	}
	adv, err := parseAdvertisement(log, in.DeviceMAC, rssi, raw)
	if err != nil {
		log.Warn().Err(err).Msg("MSG malformed advertisement")
		http.Error(w, "advertisement: "+err.Error(), http.StatusBadRequest)
		return
	}

	if s.store != nil {
		if gw, err := s.store.FetchGateway(r.Context(), in.GatewayMAC); err != nil {
			log.Warn().Err(err).Str("gw_mac", in.GatewayMAC).Msg("MSG gateway lookup failed")
		} else if gw.Name == "" && gw.HWType == "" {
			log.Info().Str("gw_mac", in.GatewayMAC).Msg("MSG gateway not found")
		} else {
			log.Info().Str("name", gw.Name).Str("hw", gw.HWType).Str("client_id", gw.ClientID).Msg("MSG gateway ok")
		}
	}

	evt, sessionID := s.dispatch(adv)
	log.Info().Str("event", evt.Kind.String()).Str("beacon_type", evt.Record.Kind.String()).Msg("DEC classified")

	if evt.Kind == registry.Ignored {
		s.respond(w, in, evt, start)
		return
	}

	// Publish regardless of the store result: the registry has already
	// recorded the packet and a retry would only come back as updated.
	var storeErr error
	if s.store != nil {
		if storeErr = s.store.UpdateParsedJSON(r.Context(), in.MessageID, parsedOutput(in, evt)); storeErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(storeErr, &pgErr) {
				log.Error().Str("code", pgErr.Code).Str("detail", pgErr.Detail).Msg("MSG db update error: " + pgErr.Message)
			} else {
				log.Error().Err(storeErr).Msg("MSG db update error")
			}
		} else {
			log.Info().Int64("message_id", in.MessageID).Msg("MSG db update ok")
		}
	}

	if s.pub != nil {
		cb := newCallbackEvent(&in, sessionID, evt)
		if evt.Kind == registry.Created {
			if adv.LocalName != "" {
				cb.Data["local_name"] = adv.LocalName
			}
			if s.store != nil {
				if d, err := s.store.FetchDevice(r.Context(), in.DeviceMAC); err == nil && d.Name != "" {
					cb.Data["device_name"] = d.Name
				}
			}
		}
		if err := s.pub.Publish(r.Context(), cb); err != nil {
			log.Error().Err(err).Msg("MSG publishCallback error")
		} else {
			log.Info().Str("type", cb.Type).Str("device", cb.DeviceId).Msg("MSG publishCallback ok")
		}
	} else {
		log.Debug().Msg("MSG no event sink; skipping publish")
	}

	if storeErr != nil {
		http.Error(w, "db update parsed_json: "+storeErr.Error(), http.StatusInternalServerError)
		return
	}
	s.respond(w, in, evt, start)
}

func (s *server) respond(w http.ResponseWriter, in MQTTMessage, evt registry.Event, start time.Time) {
	resp := map[string]any{
		"status":     "ok",
		"message_id": in.MessageID,
		"event":      evt.Kind.String(),
		"ms":         time.Since(start).Milliseconds(),
	}
	if evt.Kind != registry.Ignored {
		resp["beacon_type"] = evt.Record.Kind.String()
		resp["rssi"] = evt.Record.LastRSSI
	}
	if evt.Beacon != nil {
		resp["beacon"] = evt.Beacon
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET", http.StatusMethodNotAllowed)
		return
	}
	s.sessMu.Lock()
	recs := s.sess.Records()
	id := s.sess.ID()
	s.sessMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "devices": recs})
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST", http.StatusMethodNotAllowed)
		return
	}
	s.sessMu.Lock()
	n := s.sess.Len()
	s.sess.Clear()
	id := s.sess.ID()
	s.sessMu.Unlock()
	s.log.Info().Int("devices", n).Str("session", id).Msg("session cleared")
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cleared": n, "session_id": id})
}

func parsedOutput(in MQTTMessage, evt registry.Event) map[string]any {
	out := map[string]any{
		"message_type": slugBeaconKind(evt.Record.Kind),
		"event":        evt.Kind.String(),
		"timestamp":    in.Timestamp,
		"mac":          strings.ToUpper(in.DeviceMAC),
		"rssi":         evt.Record.LastRSSI,
	}
	if evt.Beacon != nil {
		out["beacon"] = evt.Beacon
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func normalize(m *MQTTMessage) {
	m.DeviceMAC = strings.ToLower(macSeparators.Replace(m.DeviceMAC))
	m.GatewayMAC = strings.ToUpper(macSeparators.Replace(m.GatewayMAC))
	m.Payload = strings.TrimSpace(m.Payload)
}

func validate(m *MQTTMessage) error {
	if m.MessageID <= 0 {
		return fmt.Errorf("message_id must be > 0")
	}
	if m.DeviceMAC == "" {
		return fmt.Errorf("device_mac required")
	}
	if m.Payload == "" {
		return fmt.Errorf("payload empty")
	}
	if m.Timestamp <= 0 {
		return fmt.Errorf("timestamp ms required")
	}
	if !isLikelyHex(m.Payload) {
		return fmt.Errorf("payload is not hex-like")
	}
	return nil
}

func head(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func isLikelyHex(s string) bool {
	if len(s) == 0 || (len(s)%2) != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func ptrIntStr(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *p)
}

func genTraceID() string {
	return fmt.Sprintf("%08x", rand.Uint32())
}
