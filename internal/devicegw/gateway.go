package devicegw

import (
	"context"
)

// SummaryItem is one notification row inside a summary group.
type SummaryItem struct {
	AppName string `json:"appName"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// SummaryGroup is one priority section of the sticky summary, in display order.
type SummaryGroup struct {
	Label    string        `json:"label"`
	Count    int           `json:"count"`
	Expanded bool          `json:"expanded"`
	Items    []SummaryItem `json:"items"`
}

// SummaryRender is the full content of the sticky summary notification. The
// bridge updates a fixed notification slot in place, silently, with the
// ongoing flag set, so refreshes never re-alert or allow swipe-dismiss.
type SummaryRender struct {
	TotalCount int            `json:"totalCount"`
	Digest     string         `json:"digest"`
	Groups     []SummaryGroup `json:"groups"`
}

// Gateway is the outbound port to the device bridge: it suppresses OS-rendered
// notification copies and owns the single sticky summary slot.
type Gateway interface {
	CancelNotification(ctx context.Context, nativeKey string) error
	ShowSummary(ctx context.Context, render SummaryRender) error
	CancelSummary(ctx context.Context) error
}
