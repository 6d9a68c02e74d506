package application

import (
	"fmt"
	"strings"
)

// Personality selects the tone the oracle uses when replying.
type Personality string

const (
	PersonalityChill      Personality = "chill"
	PersonalityStrict     Personality = "strict"
	PersonalitySupportive Personality = "supportive"

	// DefaultPersonality is assigned at onboarding.
	DefaultPersonality = PersonalityChill
)

// Personalities lists every registered personality.
func Personalities() []Personality {
	return []Personality{PersonalityChill, PersonalityStrict, PersonalitySupportive}
}

// ParsePersonality resolves a stored key. Unknown keys yield ErrUnknownPersonality.
func ParsePersonality(key string) (Personality, error) {
	p := Personality(strings.ToLower(strings.TrimSpace(key)))
	if p.Profile() == "" {
		return "", fmt.Errorf("%w %q", ErrUnknownPersonality, key)
	}
	return p, nil
}

// Profile returns the instruction text for the personality, or the empty
// string when p is not registered. The switch must cover every Personality
// constant; TestPersonalityRegistryIsExhaustive enforces that, since Go does
// not check switch exhaustiveness.
func (p Personality) Profile() string {
	switch p {
	case PersonalityChill:
		return `Your personality:
You are a relaxed, easy-going bouncer.
Keep replies between one and three sentences.
When the user is simply bored you may let them in about one time out of five.`
	case PersonalityStrict:
		return `Your personality:
You are a strict bouncer who holds the user to their own goals.
Keep replies to one or two sentences.
Boredom is never a reason to let the user in; grant short windows only for clear, concrete needs.`
	case PersonalitySupportive:
		return `Your personality:
You are a warm, encouraging coach.
Keep replies between one and three sentences and acknowledge how the user feels.
When you deny access, always offer a small, specific alternative the user can do right now.`
	}
	return ""
}

func (p Personality) String() string {
	return string(p)
}
