package store

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/tailscale/hujson"
	"gorm.io/gorm/clause"

	"vault-planning/internal/apperr"
	"vault-planning/internal/atomicfile"
	"vault-planning/internal/models"
	"vault-planning/internal/pathpolicy"
)

// VaultFile is the identity mirror kept in the vault root.
const VaultFile = "vault.json"

// EnsureVaultID reconciles the vault identity between the vault_meta table
// and vault.json. The database wins when both exist and disagree; a missing
// side is regenerated from the other; with neither, a new identity is minted.
func (s *Store) EnsureVaultID() (string, error) {
	dbMeta, err := s.readVaultMeta()
	if err != nil {
		return "", err
	}
	fileMeta, err := s.readVaultFile()
	if err != nil {
		return "", err
	}

	switch {
	case dbMeta != nil && fileMeta != nil:
		if fileMeta.VaultID != dbMeta.VaultID {
			if err := s.writeVaultFile(*dbMeta); err != nil {
				return "", err
			}
		}
		return dbMeta.VaultID, nil
	case dbMeta != nil:
		return dbMeta.VaultID, s.writeVaultFile(*dbMeta)
	case fileMeta != nil:
		if fileMeta.CreatedAt == "" {
			fileMeta.CreatedAt = now().Format(time.RFC3339)
		}
		return fileMeta.VaultID, s.writeVaultMeta(*fileMeta)
	}

	meta := models.VaultIdentity{
		VaultID:       newID(),
		CreatedAt:     now().Format(time.RFC3339),
		SchemaVersion: models.SchemaVersion,
	}
	if err := s.writeVaultMeta(meta); err != nil {
		return "", err
	}
	return meta.VaultID, s.writeVaultFile(meta)
}

func (s *Store) readVaultMeta() (*models.VaultIdentity, error) {
	var rows []models.VaultMeta
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, dbError(err, "load vault meta")
	}
	meta := models.VaultIdentity{SchemaVersion: models.SchemaVersion}
	for _, row := range rows {
		switch row.Key {
		case models.MetaVaultID:
			meta.VaultID = row.Value
		case models.MetaCreatedAt:
			meta.CreatedAt = row.Value
		case models.MetaSchemaVersion:
			if v, err := strconv.Atoi(row.Value); err == nil {
				meta.SchemaVersion = v
			}
		}
	}
	if meta.VaultID == "" {
		return nil, nil
	}
	if meta.CreatedAt == "" {
		meta.CreatedAt = now().Format(time.RFC3339)
	}
	return &meta, nil
}

func (s *Store) writeVaultMeta(meta models.VaultIdentity) error {
	rows := []models.VaultMeta{
		{Key: models.MetaVaultID, Value: meta.VaultID},
		{Key: models.MetaCreatedAt, Value: meta.CreatedAt},
		{Key: models.MetaSchemaVersion, Value: strconv.Itoa(models.SchemaVersion)},
	}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	return dbError(err, "save vault meta")
}

// readVaultFile returns nil when vault.json is missing or unreadable as JSON.
// Comments and trailing commas are tolerated.
func (s *Store) readVaultFile() (*models.VaultIdentity, error) {
	path, err := pathpolicy.ResolveExistingPath(s.root, VaultFile)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.FileReadError, err, "read %s", VaultFile)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, nil
	}
	var meta models.VaultIdentity
	if err := json.Unmarshal(standardized, &meta); err != nil || meta.VaultID == "" {
		return nil, nil
	}
	return &meta, nil
}

func (s *Store) writeVaultFile(meta models.VaultIdentity) error {
	path, err := pathpolicy.ResolveWritePath(s.root, VaultFile)
	if err != nil {
		return err
	}
	meta.SchemaVersion = models.SchemaVersion
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.FileWriteError, err, "encode %s", VaultFile)
	}
	return atomicfile.WriteFile(path, append(data, '\n'))
}

// Checkpoint folds the write-ahead log back into the database file.
func (s *Store) Checkpoint() error {
	return dbError(s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error, "checkpoint wal")
}
