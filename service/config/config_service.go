/*
 * @module service/config/config_service
 * @description Settings store: persisted key-value settings with env overrides and defaults
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/settings.md
 * @stateFlow read setting -> env override -> database row -> default value
 * @rules the sync core treats settings as read-only; writes happen through the settings API
 * @dependencies gorm.io/gorm, github.com/spf13/cast, golang.org/x/crypto/bcrypt
 * @refs service/models/system_config.go
 */

package config

import (
	"fmt"
	"os"
	"strings"

	"pennylane-sync-service/service/models"

	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys.
const (
	KeyAPIKey               = "pennylane_api_key"
	KeyJournalCode          = "pennylane_journal_code"
	KeyLedgerAccountID      = "pennylane_ledger_account_id"
	KeyAccountNumber        = "pennylane_account_number"
	KeyAutoSyncCustomers    = "auto_sync_customers"
	KeyAutoSyncProducts     = "auto_sync_products"
	KeyAutoSyncOrders       = "auto_sync_orders"
	KeyDebugMode            = "debug_mode"
	KeyBatchLimit           = "batch_limit"
	KeyHistoryRetentionDays = "history_retention_days"
	KeyDefaultCountry       = "default_vat_country"
	KeyCurrency             = "currency"
	KeySyncCron             = "sync_cron"
	KeyWebhookSecretHash    = "webhook_secret_hash"
)

// Defaults applied when neither env nor database provide a value.
const (
	DefaultBatchLimit           = 20
	DefaultHistoryRetentionDays = 90
	DefaultCountry              = "FR"
	DefaultCurrency             = "EUR"
	// Daily automatic pass at 03:00 (seconds-precision cron).
	DefaultSyncCron = "0 0 3 * * *"
)

// envPrefix maps setting keys to environment overrides, e.g.
// pennylane_api_key -> PENNYLANE_SYNC_PENNYLANE_API_KEY.
const envPrefix = "PENNYLANE_SYNC_"

// ConfigService reads and writes the persisted settings.
type ConfigService struct {
	db *gorm.DB
}

// NewConfigService creates a settings service on top of db.
func NewConfigService(db *gorm.DB) *ConfigService {
	return &ConfigService{db: db}
}

// Get returns the raw string value for key, preferring the environment override.
// An empty string means the setting is absent.
func (s *ConfigService) Get(key string) string {
	if v := os.Getenv(envPrefix + strings.ToUpper(key)); v != "" {
		return v
	}

	var row models.SystemConfig
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		return ""
	}
	return row.Value
}

// Set upserts a setting row.
func (s *ConfigService) Set(key, value, description string) error {
	row := models.SystemConfig{Key: key, Value: value, Description: description}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// All returns every persisted setting, with the API key redacted.
func (s *ConfigService) All() ([]models.SystemConfigItem, error) {
	var rows []models.SystemConfig
	if err := s.db.Order("key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	items := make([]models.SystemConfigItem, 0, len(rows))
	for _, row := range rows {
		value := row.Value
		if row.Key == KeyAPIKey || row.Key == KeyWebhookSecretHash {
			value = "***"
		}
		items = append(items, models.SystemConfigItem{
			Key:         row.Key,
			Value:       value,
			Description: row.Description,
		})
	}
	return items, nil
}

// APIKey returns the Pennylane API credential, empty when unconfigured.
func (s *ConfigService) APIKey() string {
	return s.Get(KeyAPIKey)
}

// JournalCode returns the sales journal code used on invoices.
func (s *ConfigService) JournalCode() string {
	return s.Get(KeyJournalCode)
}

// LedgerAccountID returns the default ledger account attached to products.
func (s *ConfigService) LedgerAccountID() string {
	return s.Get(KeyLedgerAccountID)
}

// AccountNumber returns the revenue account number stamped on invoice lines.
func (s *ConfigService) AccountNumber() string {
	return s.Get(KeyAccountNumber)
}

// AutoSyncEnabled reports whether the scheduled pass handles the given kind.
// The toggles default to off so a fresh install never syncs silently.
func (s *ConfigService) AutoSyncEnabled(key string) bool {
	return cast.ToBool(s.Get(key))
}

// DebugMode reports whether verbose request logging is enabled.
func (s *ConfigService) DebugMode() bool {
	return cast.ToBool(s.Get(KeyDebugMode))
}

// BatchLimit returns the maximum number of entities processed per batch step.
func (s *ConfigService) BatchLimit() int {
	if v := cast.ToInt(s.Get(KeyBatchLimit)); v > 0 {
		return v
	}
	return DefaultBatchLimit
}

// HistoryRetentionDays returns the audit log retention horizon.
func (s *ConfigService) HistoryRetentionDays() int {
	if v := cast.ToInt(s.Get(KeyHistoryRetentionDays)); v > 0 {
		return v
	}
	return DefaultHistoryRetentionDays
}

// DefaultVATCountry returns the two-letter country code prefixed to VAT rates.
func (s *ConfigService) DefaultVATCountry() string {
	if v := s.Get(KeyDefaultCountry); len(v) == 2 {
		return strings.ToUpper(v)
	}
	return DefaultCountry
}

// Currency returns the invoicing currency.
func (s *ConfigService) Currency() string {
	if v := s.Get(KeyCurrency); v != "" {
		return strings.ToUpper(v)
	}
	return DefaultCurrency
}

// SyncCron returns the cron expression driving the automatic pass.
func (s *ConfigService) SyncCron() string {
	if v := s.Get(KeySyncCron); v != "" {
		return v
	}
	return DefaultSyncCron
}

// SetWebhookSecret hashes and stores the shared secret presented by the
// storefront's change-notification webhooks.
func (s *ConfigService) SetWebhookSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash webhook secret: %w", err)
	}
	return s.Set(KeyWebhookSecretHash, string(hash), "bcrypt hash of the webhook shared secret")
}

// VerifyWebhookSecret checks a presented secret against the stored hash.
// An unconfigured secret never verifies.
func (s *ConfigService) VerifyWebhookSecret(secret string) bool {
	hash := s.Get(KeyWebhookSecretHash)
	if hash == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
