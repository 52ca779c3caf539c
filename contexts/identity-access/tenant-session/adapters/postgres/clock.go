package postgresadapter

import "time"

// SystemClock stamps journal rows and relay sends in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
