package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/app-bouncer/internal/application"
)

type onboardingService interface {
	Onboard(ctx context.Context, cfg application.OnboardingConfig) (string, error)
}

type preferenceService interface {
	Latest(ctx context.Context, userID string) (application.Preference, error)
	Update(ctx context.Context, userID string, update application.PreferenceUpdate) (application.Preference, error)
}

// UserHandler serves onboarding and preference endpoints.
type UserHandler struct {
	onboarding  onboardingService
	preferences preferenceService
	responder   responder
	logger      *slog.Logger
}

func NewUserHandler(onboarding onboardingService, preferences preferenceService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{onboarding: onboarding, preferences: preferences, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Create onboards a new user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.onboarding == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req onboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode onboarding request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "apps", len(req.Apps))
	userID, err := h.onboarding.Onboard(r.Context(), req.toConfig())
	if err != nil {
		logger.ErrorContext(r.Context(), "onboarding failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", userID).InfoContext(r.Context(), "user onboarded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, onboardingResponse{UserID: userID})
}

// GetPreferences returns the latest preference version.
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.preferences == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	pref, err := h.preferences.Latest(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "GetPreferences", "user_id", userID).ErrorContext(r.Context(), "preference lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPreferenceDTO(pref))
}

// UpdatePreferences appends a new preference version.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.preferences == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := requireUserID(w, r, h.responder)
	if !ok {
		return
	}

	var req preferenceUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdatePreferences", "user_id", userID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode preference update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdatePreferences", "user_id", userID)
	pref, err := h.preferences.Update(r.Context(), userID, req.toUpdate())
	if err != nil {
		logger.ErrorContext(r.Context(), "preference update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "preference updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPreferenceDTO(pref))
}

type timeFactorsDTO struct {
	Morning   int `json:"morning"`
	Worktime  int `json:"worktime"`
	Evening   int `json:"evening"`
	BeforeBed int `json:"before_bed"`
}

func (d timeFactorsDTO) toFactors() application.TimeFactors {
	return application.TimeFactors{
		Morning:   d.Morning,
		Worktime:  d.Worktime,
		Evening:   d.Evening,
		BeforeBed: d.BeforeBed,
	}
}

type onboardingRequest struct {
	Name        string         `json:"name"`
	Surname     string         `json:"surname"`
	Apps        []string       `json:"apps"`
	TimeFactors timeFactorsDTO `json:"time_factors"`
}

func (r onboardingRequest) toConfig() application.OnboardingConfig {
	return application.OnboardingConfig{
		Name:    strings.TrimSpace(r.Name),
		Surname: strings.TrimSpace(r.Surname),
		Apps:    r.Apps,
		Factors: r.TimeFactors.toFactors(),
	}
}

type onboardingResponse struct {
	UserID string `json:"user_id"`
}

type preferenceUpdateRequest struct {
	Personality *string         `json:"personality"`
	Apps        []string        `json:"apps"`
	TimeFactors *timeFactorsDTO `json:"time_factors"`
	Preference  *string         `json:"preference"`
}

func (r preferenceUpdateRequest) toUpdate() application.PreferenceUpdate {
	update := application.PreferenceUpdate{
		Personality: r.Personality,
		Apps:        r.Apps,
		Text:        r.Preference,
	}
	if r.TimeFactors != nil {
		factors := r.TimeFactors.toFactors()
		update.Factors = &factors
	}
	return update
}

type preferenceDTO struct {
	UserID               string          `json:"user_id"`
	DateTime             string          `json:"date_time"`
	Preference           string          `json:"preference"`
	PreferredPersonality string          `json:"preferred_personality"`
	SelectedApps         []string        `json:"selected_apps"`
	TimeFactors          *timeFactorsDTO `json:"time_factors,omitempty"`
}

func toPreferenceDTO(pref application.Preference) preferenceDTO {
	apps := pref.SelectedApps
	if apps == nil {
		apps = []string{}
	}
	dto := preferenceDTO{
		UserID:               pref.UserID,
		DateTime:             pref.DateTime.UTC().Format(time.RFC3339),
		Preference:           pref.Text,
		PreferredPersonality: pref.PreferredPersonality,
		SelectedApps:         apps,
	}
	if f := pref.Factors; f != nil {
		dto.TimeFactors = &timeFactorsDTO{Morning: f.Morning, Worktime: f.Worktime, Evening: f.Evening, BeforeBed: f.BeforeBed}
	}
	return dto
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func requireUserID(w http.ResponseWriter, r *http.Request, resp responder) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		resp.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return "", false
	}
	return userID, true
}
