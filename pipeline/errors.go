package pipeline

import (
	"fmt"

	"github.com/use-agent/lyftr/models"
)

// Errors accumulates non-fatal failures in the order they happen.
type Errors struct {
	items []models.ErrorItem
}

// Add records a formatted failure for phase.
func (e *Errors) Add(phase models.Phase, format string, args ...any) {
	e.items = append(e.items, models.ErrorItem{
		Message: fmt.Sprintf(format, args...),
		Phase:   phase,
	})
}

// Append records already-built items, keeping their order.
func (e *Errors) Append(items ...models.ErrorItem) {
	e.items = append(e.items, items...)
}

// Items returns the recorded failures; never nil.
func (e *Errors) Items() []models.ErrorItem {
	if e.items == nil {
		return []models.ErrorItem{}
	}
	return e.items
}
