package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gradepulse/internal/errors"
	"gradepulse/internal/notify"
	"gradepulse/internal/store"
)

// editableSettings are the keys the dashboard may read and write. The
// result template is validated before storage so a broken placeholder
// set can never reach the dispatcher.
var editableSettings = map[string]bool{
	store.SettingWelcomeMessage: true,
	store.SettingResultTemplate: true,
}

// SettingsHandler manages bot settings such as the welcome message and
// the per-student result template.
type SettingsHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(st store.Store, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  st,
		logger: logger.With(slog.String("handler", "settings")),
	}
}

// Routes returns the settings routes
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetSettings)
	r.Put("/{key}", h.PutSetting)
	return r
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string, len(editableSettings))
	for key := range editableSettings {
		value, err := h.store.GetSetting(r.Context(), key)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to read setting",
				slog.String("key", key),
				slog.String("error", err.Error()))
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.StoreError("get setting", err)))
			return
		}
		out[key] = value
	}
	render.JSON(w, r, out)
}

// putSettingRequest is the PUT /api/settings/{key} body
type putSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

// Bind implements render.Binder
func (req *putSettingRequest) Bind(r *http.Request) error {
	if apiErr := validateStruct(req); apiErr != nil {
		return apiErr
	}
	return nil
}

// PutSetting handles PUT /api/settings/{key}
func (h *SettingsHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !editableSettings[key] {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrSettingNotFound))
		return
	}

	req := &putSettingRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(bindError(err)))
		return
	}

	if key == store.SettingResultTemplate {
		if _, err := notify.RenderTemplate(req.Value, map[string]string{
			"subject": "", "grade": "", "rank": "", "percentile": "",
		}); err != nil {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("value", err.Error())))
			return
		}
	}

	if err := h.store.UpsertSetting(r.Context(), key, req.Value); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store setting",
			slog.String("key", key),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.StoreError("put setting", err)))
		return
	}

	h.logger.InfoContext(r.Context(), "setting updated", slog.String("key", key))
	render.JSON(w, r, map[string]string{"key": key, "value": req.Value})
}
