package menu

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/transport"
	"github.com/danutirta/menu-access/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateNode(dto CreateNodeDTO) (*Node, error)
	UpdateNode(id int64, dto UpdateNodeDTO) (*Node, error)
	DeleteNode(id int64) ([]int64, error)
}

// AccessResolver computes the permission-pruned views of the menu forest.
// Implemented by the permission service.
type AccessResolver interface {
	VisibleForest(identity auth.Identity) ([]*Node, error)
	VisibleFlat(identity auth.Identity) ([]ResolvedNode, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Resolver AccessResolver
}

func NewHandler(service ServiceAPI, resolver AccessResolver) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Resolver:    resolver,
	}
}

// GetMenuTree returns the visible forest for the caller: nodes they may read
// plus ancestor folders kept for navigation.
func (h *Handler) GetMenuTree(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetMenuTree: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	roots, err := h.Resolver.VisibleForest(identity)
	if err != nil {
		h.Logger.Error("GetMenuTree: resolver error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"menus": roots,
	})
}

// GetMenuFlat returns the flattened visible list; set-equal to GetMenuTree by
// construction.
func (h *Handler) GetMenuFlat(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetMenuFlat: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.Resolver.VisibleFlat(identity)
	if err != nil {
		h.Logger.Error("GetMenuFlat: resolver error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"menus": entries,
	})
}

func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateNode: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.Service.CreateNode(dto)
	if err != nil {
		h.Logger.Error("CreateNode: service error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateNode: menu node created", "menu_id", node.ID, "user_id", identity.UserID)
	h.WriteJSON(w, http.StatusCreated, node)
}

func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid menu ID")
		return
	}

	var dto UpdateNodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateNode: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.Service.UpdateNode(id, dto)
	if err != nil {
		h.Logger.Error("UpdateNode: service error", "error", err, "menu_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, node)
}

func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid menu ID")
		return
	}

	deleted, err := h.Service.DeleteNode(id)
	if err != nil {
		h.Logger.Error("DeleteNode: service error", "error", err, "menu_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteNode: subtree deleted", "menu_id", id, "deleted_count", len(deleted), "user_id", identity.UserID)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted_ids": deleted,
	})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
