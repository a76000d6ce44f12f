package tide

import "time"

// Clock supplies the current instant for windows that start "now"
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
