package domain

import "time"

// SecondsOrDefault converts a seconds setting to a duration, applying fallback
// when the setting is unset or negative.
func SecondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// SecondsOrZero converts a seconds setting to a duration, treating unset or
// negative values as disabled.
func SecondsOrZero(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
