package permission

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/transport"
	"github.com/danutirta/menu-access/pkg/logger"
)

type ServiceAPI interface {
	Delegatable(identity auth.Identity) ([]NodeCapability, error)
	Assign(ctx context.Context, actor auth.Identity, dto AssignPermissionDTO) error
	Revoke(ctx context.Context, actor auth.Identity, dto RevokePermissionDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetDelegatable lists the (node, capability) pairs the caller may grant to
// others; always a subset of their own access.
func (h *Handler) GetDelegatable(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetDelegatable: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pairs, err := h.Service.Delegatable(identity)
	if err != nil {
		h.Logger.Error("GetDelegatable: service error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"delegatable": pairs,
	})
}

func (h *Handler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AssignPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AssignPermission: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Assign(r.Context(), identity, dto); err != nil {
		h.Logger.Error("AssignPermission: service error", "error", err,
			"menu_id", dto.MenuID, "actor_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto RevokePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RevokePermission: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Revoke(r.Context(), identity, dto); err != nil {
		h.Logger.Error("RevokePermission: service error", "error", err,
			"menu_id", dto.MenuID, "actor_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
