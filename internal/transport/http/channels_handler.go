package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gradepulse/internal/errors"
	"gradepulse/internal/store"
	"gradepulse/pkg/contracts/domain"
)

// ChannelsHandler manages the list of monitored channels
type ChannelsHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewChannelsHandler creates a new channels handler
func NewChannelsHandler(st store.Store, logger *slog.Logger) *ChannelsHandler {
	return &ChannelsHandler{
		store:  st,
		logger: logger.With(slog.String("handler", "channels")),
	}
}

// Routes returns the channel routes
func (h *ChannelsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListChannels)
	r.Post("/", h.AddChannel)
	return r
}

// channelResponse is the wire shape of a monitored channel
type channelResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Link   string `json:"link,omitempty"`
	Active bool   `json:"active"`
}

// ListChannels handles GET /api/channels
func (h *ChannelsHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.ListChannels(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list channels",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StoreError("list channels", err)))
		return
	}

	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, channelResponse{ID: ch.ID, Name: ch.Name, Link: ch.Link, Active: ch.Active})
	}
	render.JSON(w, r, map[string]interface{}{
		"channels": out,
		"count":    len(out),
	})
}

// addChannelRequest is the POST /api/channels body
type addChannelRequest struct {
	ID     int64  `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Link   string `json:"link"`
	Active *bool  `json:"active"`
}

// Bind implements render.Binder
func (req *addChannelRequest) Bind(r *http.Request) error {
	req.Name = strings.TrimSpace(req.Name)
	if apiErr := validateStruct(req); apiErr != nil {
		return apiErr
	}
	return nil
}

// AddChannel handles POST /api/channels
func (h *ChannelsHandler) AddChannel(w http.ResponseWriter, r *http.Request) {
	req := &addChannelRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(bindError(err)))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	ch := domain.Channel{ID: req.ID, Name: req.Name, Link: req.Link, Active: active}

	if err := h.store.AddChannel(r.Context(), ch); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to add channel",
			slog.Int64("channel_id", req.ID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StoreError("add channel", err)))
		return
	}

	h.logger.InfoContext(r.Context(), "channel registered",
		slog.Int64("channel_id", ch.ID),
		slog.String("name", ch.Name))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, channelResponse{ID: ch.ID, Name: ch.Name, Link: ch.Link, Active: ch.Active})
}
