/*
 * @module service/models/system_config
 * @description Key-value settings storage backing the config service
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/settings.md
 * @stateFlow read on demand, written through the settings API
 * @rules keys are unique, values are stored as strings and coerced by the config service
 * @dependencies gorm.io/gorm
 * @refs service/config
 */

package models

import "time"

// SystemConfig is one persisted setting.
type SystemConfig struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Key         string    `json:"key" gorm:"not null;size:100;uniqueIndex"`
	Value       string    `json:"value" gorm:"type:text"`
	Description string    `json:"description,omitempty" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// SystemConfigItem is the API representation of a setting.
type SystemConfigItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}
