package nakama

import (
	"time"

	"droog/internal/ports"
)

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// NewSystemClock returns the wall-clock ports.Clock used in production.
func NewSystemClock() ports.Clock { return systemClock{} }
