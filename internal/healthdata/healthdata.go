package healthdata

import "fmt"

// Entry types accepted by the ingestion dispatcher. Providers send
// free-form tags; anything else is reported back as unsupported.
const (
	TypeStep           = "step"
	TypeWater          = "water"
	TypeActiveCalories = "Active Calories"
)

// Entry is one raw measurement from a health provider sync. Value is left
// untyped because providers disagree: numbers arrive as JSON numbers or as
// digit strings.
type Entry struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	Date  string `json:"date"`
}

// EntryResult summarizes one successfully stored entry.
type EntryResult struct {
	Type   string `json:"type"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// EntryError records why one entry was skipped. Index refers to the
// position in the submitted batch.
type EntryError struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BatchError aggregates a partially failed ingestion batch. Entries that
// stored fine are in Processed; the rest are in Errors.
type BatchError struct {
	Processed []EntryResult `json:"processed"`
	Errors    []EntryError  `json:"errors"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("health data batch: %d stored, %d failed", len(e.Processed), len(e.Errors))
}
