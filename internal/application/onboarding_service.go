package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DailyGoalHours is the combined daily screen-time ceiling written into every
// onboarding preference.
const DailyGoalHours = 2

// OnboardingService creates a user together with the initial preference.
type OnboardingService struct {
	users       UserRepository
	prefs       PreferenceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewOnboardingService constructs an onboarding service.
func NewOnboardingService(users UserRepository, prefs PreferenceRepository, idGenerator func() string, now func() time.Time) *OnboardingService {
	return NewOnboardingServiceWithLogger(users, prefs, idGenerator, now, nil)
}

// NewOnboardingServiceWithLogger constructs an onboarding service with a specified logger.
func NewOnboardingServiceWithLogger(users UserRepository, prefs PreferenceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OnboardingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OnboardingService{users: users, prefs: prefs, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Onboard validates cfg, stores the user and the first preference version
// and returns the new user id.
func (s *OnboardingService) Onboard(ctx context.Context, cfg OnboardingConfig) (userID string, err error) {
	if s == nil {
		err = fmt.Errorf("OnboardingService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "OnboardingService", "Onboard", "apps", len(cfg.Apps))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to onboard user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", userID).InfoContext(ctx, "user onboarded")
	}()

	apps, vErr := validateOnboarding(cfg)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().Truncate(time.Second)
	user := User{
		ID:      s.idGenerator(),
		Name:    strings.TrimSpace(cfg.Name),
		Surname: strings.TrimSpace(cfg.Surname),
		Joined:  now,
	}
	if user.ID == "" {
		err = fmt.Errorf("onboard: id generator returned an empty id")
		return
	}

	if err = s.users.CreateUser(ctx, user); err != nil {
		err = fmt.Errorf("create user: %w", err)
		return
	}

	factors := cfg.Factors
	pref := Preference{
		UserID:               user.ID,
		DateTime:             now,
		Text:                 ComposePreferenceText(apps, CompileTimePolicy(cfg.Factors)),
		PreferredPersonality: DefaultPersonality.String(),
		SelectedApps:         apps,
		Factors:              &factors,
	}
	if err = s.prefs.AppendPreference(ctx, pref); err != nil {
		err = fmt.Errorf("store initial preference for %s: %w", user.ID, err)
		return
	}

	userID = user.ID
	return
}

func validateOnboarding(cfg OnboardingConfig) ([]string, *ValidationError) {
	vErr := &ValidationError{}
	if strings.TrimSpace(cfg.Name) == "" {
		vErr.add("name", "is required")
	}
	if strings.TrimSpace(cfg.Surname) == "" {
		vErr.add("surname", "is required")
	}
	apps, appErr := normalizeApps(cfg.Apps)
	if appErr != "" {
		vErr.add("apps", appErr)
	}
	return apps, vErr
}

func normalizeApps(in []string) ([]string, string) {
	if len(in) == 0 {
		return nil, "must list at least one app"
	}
	apps := make([]string, 0, len(in))
	for _, app := range in {
		app = strings.TrimSpace(app)
		if app == "" {
			return nil, "must not contain blank names"
		}
		apps = append(apps, app)
	}
	return apps, ""
}

// ComposePreferenceText renders the goal statement stored with a preference.
func ComposePreferenceText(apps []string, timeStatements []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user wants to restrict their usage of the following apps: %s\n\n", strings.Join(apps, ", "))
	fmt.Fprintf(&b, "Their long-term goal is a combined screen time of around %d hours per day across these apps.", DailyGoalHours)
	if policy := RenderTimePolicy(timeStatements); policy != "" {
		b.WriteString("\n\n")
		b.WriteString(policy)
	}
	return b.String()
}
