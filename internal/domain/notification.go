package domain

import (
	"fmt"
	"strings"
)

// Priority is the AI-assigned importance label for a notification.
type Priority string

const (
	PriorityMyPriority  Priority = "MY_PRIORITY"
	PriorityImportant   Priority = "IMPORTANT"
	PriorityPromotional Priority = "PROMOTIONAL"
	PrioritySpam        Priority = "SPAM"
	PriorityIgnore      Priority = "IGNORE"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityMyPriority, PriorityImportant, PriorityPromotional, PrioritySpam, PriorityIgnore:
		return true
	}
	return false
}

// Label returns the human-facing form used in digests and summary groups.
func (p Priority) Label() string {
	switch p {
	case PriorityMyPriority:
		return "My Priority"
	case PriorityImportant:
		return "Important"
	case PriorityPromotional:
		return "Promotional"
	case PrioritySpam:
		return "Spam"
	case PriorityIgnore:
		return "Ignore"
	}
	return string(p)
}

func ParsePriorityFromString(s string) (Priority, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	p := Priority(normalized)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return p, nil
}

// PriorityGroupOrder is the display order for summary groups, most urgent first.
var PriorityGroupOrder = []Priority{
	PriorityMyPriority,
	PriorityImportant,
	PriorityPromotional,
	PrioritySpam,
}

// Category is the routing decision for display timing, distinct from priority.
type Category string

const (
	CategoryInstant Category = "INSTANT"
	CategoryBatched Category = "BATCHED"
	CategoryIgnore  Category = "IGNORE"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryInstant, CategoryBatched, CategoryIgnore:
		return true
	}
	return false
}

func ParseCategoryFromString(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: invalid category %q", ErrValidation, s)
	}
	return c, nil
}

// Notification is one received OS notification after classification and routing.
type Notification struct {
	ID          uint     `gorm:"primaryKey;autoIncrement"`
	PackageName string   `gorm:"type:varchar(255);not null;index"`
	Title       string   `gorm:"type:text;not null"`
	Body        string   `gorm:"type:text;not null"`
	PostedAt    int64    `gorm:"not null"`
	Priority    Priority `gorm:"type:varchar(20);not null"`
	Summary     *string  `gorm:"type:text"`
	Category    Category `gorm:"type:varchar(10);not null"`
	Read        bool     `gorm:"not null;default:false"`
	Summarized  bool     `gorm:"not null;default:false"`
	// NativeKey is the bridge handle of the OS-rendered copy, used for cancellation.
	NativeKey string `gorm:"type:varchar(255)"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.PackageName) == "" {
		return fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("%w: title and body cannot both be empty", ErrValidation)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, n.Priority)
	}
	if !n.Category.IsValid() {
		return fmt.Errorf("%w: invalid category %q", ErrValidation, n.Category)
	}
	return nil
}
