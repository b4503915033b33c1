package services

import (
	"errors"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smarttrade/internal/domain"
	"smarttrade/internal/repos"
)

// Setting keys used by the core itself. Anything else is free-form
// device-local configuration.
const (
	keyCurrency          = "currency"
	keyLowStockThreshold = "low_stock_threshold"
	keySyncInterval      = "sync_interval"
	keySyncMaxRetries    = "sync_max_retries"
	keyPINHash           = "pin_hash"
)

// SettingsService wraps the key/value table with typed accessors so other
// components take an explicit settings capability instead of reading globals.
type SettingsService struct {
	settings *repos.SettingsRepo
}

func NewSettingsService(settings *repos.SettingsRepo) *SettingsService {
	return &SettingsService{settings: settings}
}

func (s *SettingsService) Get(key string) (string, error) { return s.settings.Get(key) }
func (s *SettingsService) Set(key, value string) error    { return s.settings.Set(key, value) }
func (s *SettingsService) All() ([]domain.Setting, error) { return s.settings.All() }

// LowStockThreshold returns the device default used when a product draft does
// not set one.
func (s *SettingsService) LowStockThreshold() int {
	if v, err := s.settings.Get(keyLowStockThreshold); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return 5
}

func (s *SettingsService) Currency() string {
	if v, err := s.settings.Get(keyCurrency); err == nil && v != "" {
		return v
	}
	return "NGN"
}

// SyncInterval returns the drainer interval override, or def when unset.
func (s *SettingsService) SyncInterval(def time.Duration) time.Duration {
	if v, err := s.settings.Get(keySyncInterval); err == nil {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// SyncMaxRetries returns the retry cap override, or def when unset.
func (s *SettingsService) SyncMaxRetries(def int) int {
	if v, err := s.settings.Get(keySyncMaxRetries); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// SetPIN stores a bcrypt hash of the device PIN.
func (s *SettingsService) SetPIN(pin string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		return err
	}
	return s.settings.Set(keyPINHash, string(h))
}

// VerifyPIN compares against the stored hash. A device without a PIN set
// reports ErrNotFound.
func (s *SettingsService) VerifyPIN(pin string) (bool, error) {
	h, err := s.settings.Get(keyPINHash)
	if err != nil {
		return false, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(h), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
