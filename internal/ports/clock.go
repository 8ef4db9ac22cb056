package ports

// Clock supplies the single trusted current time, in unix seconds, read
// once per transaction. The engine never runs its own timers; every
// timeout is a comparison against persisted timestamps.
type Clock interface {
	Now() int64
}
