package testfixtures

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/app-bouncer/internal/application"
)

var onboardingCounter uint64

var referenceTime = time.Date(2025, time.January, 7, 10, 30, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant used by fixtures: a weekday
// morning in UTC.
func ReferenceTime() time.Time {
	return referenceTime
}

// OnboardingOption configures an onboarding fixture.
type OnboardingOption func(*application.OnboardingConfig)

// NewOnboardingConfig returns a valid onboarding payload with a unique
// name. The default user tracks Instagram and YouTube and is strict only
// before bed.
func NewOnboardingConfig(opts ...OnboardingOption) application.OnboardingConfig {
	idx := atomic.AddUint64(&onboardingCounter, 1)
	cfg := application.OnboardingConfig{
		Name:    fmt.Sprintf("Alex%03d", idx),
		Surname: "Tester",
		Apps:    []string{"com.instagram.android", "com.google.android.youtube"},
		Factors: application.TimeFactors{Morning: 2, Worktime: 5, Evening: 3, BeforeBed: 9},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithName sets the user's name and surname.
func WithName(name, surname string) OnboardingOption {
	return func(cfg *application.OnboardingConfig) {
		cfg.Name = name
		cfg.Surname = surname
	}
}

// WithApps replaces the tracked apps.
func WithApps(apps ...string) OnboardingOption {
	return func(cfg *application.OnboardingConfig) {
		cfg.Apps = append([]string(nil), apps...)
	}
}

// WithFactors replaces the time factors.
func WithFactors(morning, worktime, evening, beforeBed int) OnboardingOption {
	return func(cfg *application.OnboardingConfig) {
		cfg.Factors = application.TimeFactors{
			Morning:   morning,
			Worktime:  worktime,
			Evening:   evening,
			BeforeBed: beforeBed,
		}
	}
}

// UsageSample builds a usage sample last used minutesAgo before at.
func UsageSample(pkg string, totalMinutes int, at time.Time, minutesAgo int) application.UsageSample {
	return application.UsageSample{
		PackageName:  pkg,
		TotalMinutes: totalMinutes,
		LastUsed:     at.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

// VerdictJSON renders a verdict the way a compliant oracle answers.
func VerdictJSON(allow bool, minutes int, reply string) string {
	return mustJSON(application.Verdict{Allow: allow, Minutes: minutes, Reply: reply})
}

// ComplianceJSON renders a compliance verdict the way a compliant oracle
// answers.
func ComplianceJSON(onTrack bool, verdict string, score int, feedback, nextStep string) string {
	return mustJSON(application.ComplianceVerdict{
		OnTrack:  onTrack,
		Verdict:  verdict,
		Score:    score,
		Feedback: feedback,
		NextStep: nextStep,
	})
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: marshal %T: %v", v, err))
	}
	return string(raw)
}
