package clock

import "time"

const layout = "2006-01-02T15:04:05Z"

// Func is injected into services so tests can pin the time
type Func func() time.Time

func UTC() time.Time {
	return time.Now().UTC()
}

// Now formats the current UTC time for response envelopes
func Now() string {
	return UTC().Format(layout)
}

func Format(t time.Time) string {
	return t.UTC().Format(layout)
}
