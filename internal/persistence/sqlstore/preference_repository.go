package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/app-bouncer/internal/persistence"
)

// PreferenceRepository implements persistence.PreferenceRepository.
type PreferenceRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPreferenceRepository creates a preference repository bound to pool.
func NewPreferenceRepository(pool *ConnectionPool) *PreferenceRepository {
	return &PreferenceRepository{helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// AppendPreference inserts a new preference version.
func (r *PreferenceRepository) AppendPreference(ctx context.Context, pref persistence.Preference) error {
	apps := pref.SelectedApps
	if apps == nil {
		apps = []string{}
	}
	encoded, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("sqlstore: encode selected apps: %w", err)
	}
	var factors sql.NullString
	if pref.TimeFactors != nil {
		raw, err := json.Marshal(pref.TimeFactors)
		if err != nil {
			return fmt.Errorf("sqlstore: encode time factors: %w", err)
		}
		factors = sql.NullString{String: string(raw), Valid: true}
	}

	const query = `
		INSERT INTO preferences (user_id, date_time, preference, preferred_personality, selected_apps, time_factors)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.helper.Exec(ctx, query,
		pref.UserID,
		persistence.FormatTimestamp(pref.DateTime),
		pref.Preference,
		pref.PreferredPersonality,
		string(encoded),
		factors,
	); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// LatestPreference returns the newest preference; seq breaks timestamp ties.
func (r *PreferenceRepository) LatestPreference(ctx context.Context, userID string) (persistence.Preference, error) {
	const query = `
		SELECT user_id, date_time, preference, preferred_personality, selected_apps, time_factors
		FROM preferences
		WHERE user_id = ?
		ORDER BY date_time DESC, seq DESC
		LIMIT 1
	`
	var (
		pref     persistence.Preference
		dateTime string
		apps     string
		factors  sql.NullString
	)
	err := r.helper.QueryRow(ctx, query, userID).Scan(&pref.UserID, &dateTime, &pref.Preference, &pref.PreferredPersonality, &apps, &factors)
	if err != nil {
		return persistence.Preference{}, r.mapper.MapError(err)
	}

	if pref.DateTime, err = persistence.ParseTimestamp(dateTime); err != nil {
		return persistence.Preference{}, fmt.Errorf("sqlstore: parse preference time: %w", err)
	}
	if err := json.Unmarshal([]byte(apps), &pref.SelectedApps); err != nil {
		return persistence.Preference{}, fmt.Errorf("sqlstore: decode selected apps: %w", err)
	}
	if len(pref.SelectedApps) == 0 {
		pref.SelectedApps = nil
	}
	if factors.Valid {
		if err := json.Unmarshal([]byte(factors.String), &pref.TimeFactors); err != nil {
			return persistence.Preference{}, fmt.Errorf("sqlstore: decode time factors: %w", err)
		}
	}
	return pref, nil
}
