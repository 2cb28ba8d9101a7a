package user

import (
	"log/slog"
	"net/http"

	"github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/transport"
	"github.com/danutirta/menu-access/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Repo RepositoryAPI
}

func NewHandler(repo RepositoryAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Repo:        repo,
	}
}

// GetCurrentUser echoes the profile behind the verified identity, used by the
// UI to bootstrap.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetCurrentUser: identity not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Repo.GetByID(identity.UserID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: repository error", "error", err, "user_id", identity.UserID)
		h.WriteError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if u == nil {
		h.HandleServiceError(w, internal.ErrUserNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
