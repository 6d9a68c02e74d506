package persistence

import "time"

// TimestampLayout is the textual layout used for every stored timestamp.
// Values are always UTC with whole-second precision so lexical order equals
// chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// User is a row of the users table.
type User struct {
	ID      string
	Name    string
	Surname string
	Joined  time.Time
}

// Preference is one version of a user's durable configuration.
type Preference struct {
	UserID               string
	DateTime             time.Time
	Preference           string
	PreferredPersonality string
	SelectedApps         []string
	// TimeFactors holds the morning, worktime, evening and before-bed
	// severities the preference text was compiled from. Nil for versions
	// written before factors were stored.
	TimeFactors []int
}

// LogEntry is one decided request in the append-only request log.
// Answer holds the verdict serialized as JSON.
type LogEntry struct {
	UserID   string
	Query    string
	Answer   string
	DateTime time.Time
}

// FormatTimestamp renders t using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// ParseTimestamp parses a value written by FormatTimestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
