package auth

import (
	"net/http"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Authenticate resolves a raw bearer token into the request identity.
func (h *Handler) Authenticate(token string) (*internal.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := h.Service.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &internal.User{ID: claims.UserID, Role: claims.Role}, nil
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.Authenticate(h.ExtractTokenFromHeader(r))
		if err != nil {
			h.Logger.Debug("auth middleware: rejected request", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
	})
}
