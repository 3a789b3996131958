package storage

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a check does not exist
	ErrNotFound = errors.New("check not found")
	// ErrUnknownDriver is returned by Open for unsupported drivers
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Result types
const (
	ResultEngine = "engine"
	ResultAI     = "ai"
)

// Result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Check is one submitted batch or crawl
type Check struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	RawInput  string    `json:"rawInput,omitempty"`
	URLs      []string  `json:"urls"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCheck holds the fields of a check to create
type NewCheck struct {
	Source   string
	RawInput string
	URLs     []string
}

// Result is an engine or AI result attached to a check
type Result struct {
	ID            int64           `json:"id"`
	CheckID       int64           `json:"checkId"`
	Type          string          `json:"resultType"`
	Status        string          `json:"status"`
	OverallStatus string          `json:"overallStatus,omitempty"`
	Has404        bool            `json:"has404"`
	HasDuplicate  bool            `json:"hasDuplicate"`
	HasSeoIssues  bool            `json:"hasSeoIssues"`
	Raw           json.RawMessage `json:"rawResult,omitempty"`
	AISummary     string          `json:"aiSummary,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// EngineResult holds the fields of an engine result to save
type EngineResult struct {
	CheckID       int64
	Status        string
	OverallStatus string
	Has404        bool
	HasDuplicate  bool
	HasSeoIssues  bool
	Raw           json.RawMessage
}

// CheckRecord is a check with all of its results, oldest first
type CheckRecord struct {
	Check
	Results []Result `json:"results"`
}

// Engine returns the latest engine result, if any
func (r *CheckRecord) Engine() *Result {
	return r.latest(ResultEngine)
}

// AI returns the latest AI result, if any
func (r *CheckRecord) AI() *Result {
	return r.latest(ResultAI)
}

func (r *CheckRecord) latest(kind string) *Result {
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Type == kind {
			return &r.Results[i]
		}
	}
	return nil
}

// CheckSummary is a row of the check history
type CheckSummary struct {
	Check
	OverallStatus string `json:"overallStatus,omitempty"`
	Has404        bool   `json:"has404"`
	HasDuplicate  bool   `json:"hasDuplicate"`
	HasSeoIssues  bool   `json:"hasSeoIssues"`
}
