package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-planning/internal/apperr"
	"vault-planning/internal/middleware"
)

// UIStateResponse carries the stored UI state verbatim.
type UIStateResponse struct {
	VaultID string          `json:"vault_id"`
	State   json.RawMessage `json:"state"`
}

// GetUIState returns the UI state of the session's vault
// GET /api/ui-state
func (h *Handler) GetUIState(c *gin.Context) {
	vaultID := c.GetString(middleware.ContextVaultID)
	state, err := h.engine.GetUIState(vaultID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, uiStateResponse(vaultID, state))
}

// PutUIState deep-merges the JSON body into the stored UI state
// PUT /api/ui-state
func (h *Handler) PutUIState(c *gin.Context) {
	vaultID := c.GetString(middleware.ContextVaultID)
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, apperr.Wrap(apperr.InvalidInput, err, "read request body"))
		return
	}
	merged, err := h.engine.SetUIState(vaultID, string(body))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, uiStateResponse(vaultID, merged))
}

func uiStateResponse(vaultID, state string) UIStateResponse {
	resp := UIStateResponse{VaultID: vaultID, State: json.RawMessage("null")}
	if state != "" {
		resp.State = json.RawMessage(state)
	}
	return resp
}
