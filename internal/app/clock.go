package app

import "time"

// Timer is a cancellable delayed callback
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and delayed callbacks to the store
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock is the wall clock backed by the time package
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
