package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PreferenceService reads and versions user preferences.
type PreferenceService struct {
	users  UserRepository
	prefs  PreferenceRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewPreferenceService constructs a preference service.
func NewPreferenceService(users UserRepository, prefs PreferenceRepository, now func() time.Time) *PreferenceService {
	return NewPreferenceServiceWithLogger(users, prefs, now, nil)
}

// NewPreferenceServiceWithLogger constructs a preference service with a specified logger.
func NewPreferenceServiceWithLogger(users UserRepository, prefs PreferenceRepository, now func() time.Time, logger *slog.Logger) *PreferenceService {
	if now == nil {
		now = time.Now
	}
	return &PreferenceService{users: users, prefs: prefs, now: now, logger: defaultLogger(logger)}
}

// Latest returns the authoritative preference of the user.
func (s *PreferenceService) Latest(ctx context.Context, userID string) (Preference, error) {
	pref, err := s.prefs.LatestPreference(ctx, userID)
	if err != nil {
		return Preference{}, fmt.Errorf("latest preference for %s: %w", userID, err)
	}
	return pref, nil
}

// Update appends a new preference version derived from the current one.
// Older versions are kept.
func (s *PreferenceService) Update(ctx context.Context, userID string, update PreferenceUpdate) (pref Preference, err error) {
	if s == nil {
		err = fmt.Errorf("PreferenceService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "PreferenceService", "Update", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update preference", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "preference updated", "personality", pref.PreferredPersonality, "apps", len(pref.SelectedApps))
	}()

	if _, err = s.users.GetUser(ctx, userID); err != nil {
		err = fmt.Errorf("resolve user %s: %w", userID, err)
		return
	}

	var current Preference
	current, err = s.prefs.LatestPreference(ctx, userID)
	if err != nil {
		err = fmt.Errorf("latest preference for %s: %w", userID, err)
		return
	}

	next := current
	next.DateTime = s.now().Truncate(time.Second)

	vErr := &ValidationError{}
	if update.Personality != nil {
		p, pErr := ParsePersonality(*update.Personality)
		if pErr != nil {
			vErr.add("personality", fmt.Sprintf("must be one of %s", personalityNames()))
		} else {
			next.PreferredPersonality = p.String()
		}
	}
	if update.Apps != nil {
		apps, msg := normalizeApps(update.Apps)
		if msg != "" {
			vErr.add("apps", msg)
		} else {
			next.SelectedApps = apps
		}
	}
	if update.Factors != nil {
		factors := *update.Factors
		next.Factors = &factors
	}
	if update.Text != nil && strings.TrimSpace(*update.Text) == "" {
		vErr.add("preference", "must not be blank")
	}
	if update.Text == nil && update.Apps != nil && next.Factors == nil {
		vErr.add("time_factors", "are required to recompose a preference stored without them")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	switch {
	case update.Text != nil:
		next.Text = strings.TrimSpace(*update.Text)
	case update.Apps != nil || update.Factors != nil:
		next.Text = ComposePreferenceText(next.SelectedApps, CompileTimePolicy(*next.Factors))
	}

	if err = s.prefs.AppendPreference(ctx, next); err != nil {
		err = fmt.Errorf("append preference for %s: %w", userID, err)
		return
	}

	pref = next
	return
}

func personalityNames() string {
	names := make([]string, 0, len(Personalities()))
	for _, p := range Personalities() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
