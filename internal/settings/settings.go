// Package settings reads the admin_settings key/value table: enabled payment
// methods, theme, announcement ticker. Values are cached until the change
// feed reports a write.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/storefront/internal/changefeed"
	"github.com/example/storefront/internal/invalidation"
)

// Well-known setting keys.
const (
	KeyPaymentMethods = "payment_methods"
	KeyTheme          = "theme"
	KeyAnnouncement   = "announcement"
)

// Service caches admin_settings rows. Without a registry every read hits the
// database, which is how the edge service runs.
type Service struct {
	db  *sql.DB
	sub *invalidation.Subscription

	mu     sync.RWMutex
	values map[string]string
	loaded bool
}

func NewService(db *sql.DB, registry *invalidation.Registry) *Service {
	s := &Service{db: db}
	if registry != nil {
		s.sub = registry.Subscribe([]string{"admin_settings"}, changefeed.OpAny, func(changefeed.Event) {
			s.mu.Lock()
			s.loaded = false
			s.mu.Unlock()
		})
	}
	return s
}

// Close releases the change-feed subscription.
func (s *Service) Close() {
	if s.sub != nil {
		s.sub.Close()
	}
}

func (s *Service) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM admin_settings`)
	if err != nil {
		return fmt.Errorf("query admin_settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan admin_settings: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.values = values
	s.loaded = s.sub != nil
	s.mu.Unlock()
	return nil
}

// Get returns a setting value. A load failure degrades to the last known
// values rather than surfacing an error.
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		if err := s.load(ctx); err != nil {
			log.Printf("[Settings] Load failed, serving stale values: %v", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Set upserts a setting. Publishing the change event is the caller's job.
func (s *Service) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_settings (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert admin_settings: %w", err)
	}

	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return nil
}

// PaymentMethodEnabled reports whether method appears in the payment_methods
// setting (a JSON array of method names). Missing or unparsable settings
// disable everything.
func (s *Service) PaymentMethodEnabled(ctx context.Context, method string) bool {
	raw, ok := s.Get(ctx, KeyPaymentMethods)
	if !ok {
		return false
	}
	var methods []string
	if err := json.Unmarshal([]byte(raw), &methods); err != nil {
		log.Printf("[Settings] Bad %s value: %v", KeyPaymentMethods, err)
		return false
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
