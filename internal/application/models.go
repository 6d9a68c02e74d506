package application

import "time"

// User is an onboarded person. Users are immutable after creation.
type User struct {
	ID      string
	Name    string
	Surname string
	Joined  time.Time
}

// Preference is one version of a user's durable configuration. The latest
// version by DateTime is authoritative.
type Preference struct {
	UserID               string
	DateTime             time.Time
	Text                 string
	PreferredPersonality string
	SelectedApps         []string
	// Factors are the severities the text was compiled from. Nil when the
	// version predates stored factors.
	Factors *TimeFactors
}

// LogEntry is a decided request as recorded in the request log. Answer holds
// the verdict JSON.
type LogEntry struct {
	UserID   string
	Query    string
	Answer   string
	DateTime time.Time
}

// UsageSample is raw foreground-time telemetry for one app package.
type UsageSample struct {
	PackageName  string
	TotalMinutes int
	LastUsed     time.Time
}

// Verdict is the decision returned for a permission request.
type Verdict struct {
	Allow   bool   `json:"allow"`
	Minutes int    `json:"minutes"`
	Reply   string `json:"reply"`
}

// ComplianceVerdict is the result of a follow-through audit.
type ComplianceVerdict struct {
	OnTrack  bool   `json:"on_track"`
	Verdict  string `json:"verdict"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	NextStep string `json:"next_step"`
}

// TimeFactors are the four ordinal severities, 0 to 10, for the fixed
// periods of the day.
type TimeFactors struct {
	Morning   int
	Worktime  int
	Evening   int
	BeforeBed int
}

func (f TimeFactors) values() [4]int {
	return [4]int{f.Morning, f.Worktime, f.Evening, f.BeforeBed}
}

// OnboardingConfig is the one-time payload that creates a user.
type OnboardingConfig struct {
	Name    string
	Surname string
	Apps    []string
	Factors TimeFactors
}

// DecideParams carries a single permission request.
type DecideParams struct {
	UserID string
	Query  string
	Usage  []UsageSample
}

// AuditParams carries a follow-through audit request. Image is optional.
type AuditParams struct {
	UserID         string
	InteractionLog []string
	ScreenState    string
	Image          *Image
}

// Image is an inline picture handed to the oracle.
type Image struct {
	Data     []byte
	MIMEType string
}

// PreferenceUpdate describes a new preference version. Nil fields keep the
// value of the current version. Setting Apps or Factors recomposes the
// preference text from the resulting apps and factors unless Text is also
// given.
type PreferenceUpdate struct {
	Personality *string
	Apps        []string
	Factors     *TimeFactors
	Text        *string
}
