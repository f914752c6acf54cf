package models

import "time"

// Keys stored in the vault_meta table.
const (
	MetaVaultID       = "vault_id"
	MetaCreatedAt     = "created_at"
	MetaSchemaVersion = "schema_version"
)

// SchemaVersion is the vault identity format version.
const SchemaVersion = 1

// VaultMeta is one key/value row of vault identity.
type VaultMeta struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (VaultMeta) TableName() string {
	return "vault_meta"
}

// VaultIdentity is the vault.json document mirroring vault_meta.
type VaultIdentity struct {
	VaultID       string `json:"vault_id"`
	CreatedAt     string `json:"created_at"`
	SchemaVersion int    `json:"schema_version"`
}

// UIState holds the client's persisted UI preferences for one vault.
type UIState struct {
	VaultID   string    `json:"vault_id" gorm:"primaryKey"`
	StateJSON string    `json:"state_json" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (UIState) TableName() string {
	return "ui_state"
}
