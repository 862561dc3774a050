package queue

import (
	"fmt"
	"strings"
)

// EventMessage is the broker payload for one raw incoming notification event.
// It carries the event exactly as the device bridge reported it; classification
// and routing happen on the consuming side.
type EventMessage struct {
	EventID     string `json:"eventId"`
	PackageName string `json:"packageName"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PostedAt    int64  `json:"postedAt"`
	NativeKey   string `json:"nativeKey"`
}

func (m EventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if strings.TrimSpace(m.PackageName) == "" {
		return fmt.Errorf("packageName is required")
	}
	if m.PostedAt <= 0 {
		return fmt.Errorf("postedAt must be positive")
	}
	return nil
}
