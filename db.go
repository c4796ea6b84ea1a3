package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Store enriches ingested messages and keeps the decode output per message.
type Store interface {
	FetchGateway(ctx context.Context, mac string) (gatewayInfo, error)
	FetchDevice(ctx context.Context, mac string) (deviceInfo, error)
	UpdateParsedJSON(ctx context.Context, backendID int64, v any) error
	Close()
}

type gatewayInfo struct {
	Name     string
	HWType   string
	ClientID string
}

type deviceInfo struct {
	Name     string
	DeviceID string
	HWType   string
}

var errNoBackendMessage = errors.New("no backend_message row")

type pgStore struct {
	pool   *pgxpool.Pool
	dialer *cloudsqlconn.Dialer
}

// connectDB opens a pool either through the Cloud SQL connector (when an
// instance connection name is configured) or straight from DATABASE_URL.
func connectDB(ctx context.Context, c dbConfig) (*pgStore, error) {
	var (
		cfg    *pgxpool.Config
		dialer *cloudsqlconn.Dialer
		err    error
	)

	if c.URL != "" {
		cfg, err = pgxpool.ParseConfig(c.URL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
		}
	} else {
		dsn := fmt.Sprintf("user=%s password=%s database=%s sslmode=disable", c.User, c.Password, c.Name)

		opts := []cloudsqlconn.Option{}
		if c.UsePrivate {
			opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
		}
		dialer, err = cloudsqlconn.NewDialer(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("cloudsql dialer: %w", err)
		}

		cfg, err = pgxpool.ParseConfig(dsn)
		if err != nil {
			_ = dialer.Close()
			return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
		}
		instance := c.Instance
		cfg.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	}

	cfg.MinConns = 0
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		if dialer != nil {
			_ = dialer.Close()
		}
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if dialer != nil {
			_ = dialer.Close()
		}
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &pgStore{pool: pool, dialer: dialer}, nil
}

// macHexToBytea converts a mac in hex (with or without separators) to raw 6 bytes.
func macHexToBytea(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = macSeparators.Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex mac %q: %w", s, err)
	}
	if len(b) != 6 {
		return nil, fmt.Errorf("mac must be 6 bytes, got %d", len(b))
	}
	return b, nil
}

func (s *pgStore) FetchGateway(ctx context.Context, mac string) (gatewayInfo, error) {
	var g gatewayInfo
	bmac, err := macHexToBytea(mac)
	if err != nil {
		return g, err
	}
	err = s.pool.QueryRow(ctx,
		`SELECT gateway_name, gateway_hw_type, client_id
			FROM gateways
			WHERE gateway_mac = $1`, bmac).Scan(&g.Name, &g.HWType, &g.ClientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, nil
	}
	return g, err
}

func (s *pgStore) FetchDevice(ctx context.Context, mac string) (deviceInfo, error) {
	var d deviceInfo
	bmac, err := macHexToBytea(mac)
	if err != nil {
		return d, err
	}
	err = s.pool.QueryRow(ctx,
		`SELECT device_name, device_id, device_hw_type
			FROM devices
			WHERE device_mac = $1`, bmac).Scan(&d.Name, &d.DeviceID, &d.HWType)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, nil
	}
	return d, err
}

// UpdateParsedJSON stores the decode output on the existing backend_message
// row (id == message_id).
func (s *pgStore) UpdateParsedJSON(ctx context.Context, backendID int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal parsed json")
	}
	ct, err := s.pool.Exec(ctx, `UPDATE backend_message SET parser_json = $2 WHERE id = $1`, backendID, b)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.Wrapf(errNoBackendMessage, "id=%d", backendID)
	}
	return nil
}

func (s *pgStore) Close() {
	s.pool.Close()
	if s.dialer != nil {
		_ = s.dialer.Close()
	}
}
