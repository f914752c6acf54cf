package store

import (
	"bytes"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vault-planning/internal/apperr"
	"vault-planning/internal/models"
)

// GetUIState returns the stored UI state document, or "" if none.
func (s *Store) GetUIState(vaultID string) (string, error) {
	var state models.UIState
	err := s.db.Where("vault_id = ?", vaultID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", dbError(err, "load ui state")
	}
	return state.StateJSON, nil
}

// SetUIState deep-merges partial into the stored document and returns the
// result. Objects merge key by key; any other value in partial replaces.
func (s *Store) SetUIState(vaultID, partialJSON string) (string, error) {
	partial, err := decodeJSON(partialJSON)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, err, "ui state is not valid JSON")
	}

	var merged string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.UIState
		err := tx.Where("vault_id = ?", vaultID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			merged = partialJSON
		case err != nil:
			return dbError(err, "load ui state")
		default:
			current, err := decodeJSON(existing.StateJSON)
			if err != nil {
				return apperr.Wrap(apperr.DatabaseError, err, "stored ui state is corrupt")
			}
			out, err := json.Marshal(mergeJSON(current, partial))
			if err != nil {
				return apperr.Wrap(apperr.DatabaseError, err, "encode ui state")
			}
			merged = string(out)
		}

		row := models.UIState{VaultID: vaultID, StateJSON: merged, UpdatedAt: now()}
		return dbError(tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vault_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_json", "updated_at"}),
		}).Create(&row).Error, "save ui state")
	})
	if err != nil {
		return "", err
	}
	return merged, nil
}

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func mergeJSON(existing, partial any) any {
	base, ok := existing.(map[string]any)
	patch, ok2 := partial.(map[string]any)
	if !ok || !ok2 {
		return partial
	}
	for k, v := range patch {
		if cur, found := base[k]; found {
			base[k] = mergeJSON(cur, v)
			continue
		}
		base[k] = v
	}
	return base
}
