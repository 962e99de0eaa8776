// Package core implements the bookstore import and query logic.
// It has no HTTP dependencies and owns the reset lifecycle end to end:
// download, validation, transactional load, rejection log, report.
package core

import (
	"errors"
	"time"
)

var (
	// ErrResetInProgress is returned when a reset is started while another
	// one is still running; the store is single-writer.
	ErrResetInProgress = errors.New("reset already in progress")

	// ErrResetNotFound is returned for an unknown reset ID.
	ErrResetNotFound = errors.New("reset not found")

	// ErrBookNotFound is returned when restocking an unknown ISBN.
	ErrBookNotFound = errors.New("book not found")

	// ErrInvalidAmount is returned for a non-positive restock amount.
	ErrInvalidAmount = errors.New("restock amount must be positive")
)

// ResetPhase indicates the current stage of a reset operation.
type ResetPhase string

const (
	PhaseStarting    ResetPhase = "starting"
	PhaseDownloading ResetPhase = "downloading"
	PhaseParsing     ResetPhase = "parsing"
	PhaseLoading     ResetPhase = "loading"
	PhaseComplete    ResetPhase = "complete"
	PhaseFailed      ResetPhase = "failed"
)

// ResetProgress is the observable state of a reset operation.
type ResetProgress struct {
	ResetID string     `json:"resetId"`
	Phase   ResetPhase `json:"phase"`
	Error   string     `json:"error,omitempty"` // non-empty when Phase is failed
}

// ImportCounts tallies the rows inserted per table during one reset.
type ImportCounts struct {
	Authors   int `json:"authors"`
	Books     int `json:"books"`
	Customers int `json:"customers"`
	Orders    int `json:"orders"`
	Items     int `json:"items"`
	Payments  int `json:"payments"`
}

// ResetResult is the final outcome of a reset operation.
type ResetResult struct {
	ResetID   string        `json:"resetId"`
	StoreName string        `json:"storeName,omitempty"`
	Currency  string        `json:"currency,omitempty"`
	Counts    ImportCounts  `json:"counts"`
	Rejected  int           `json:"rejected"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"` // non-empty when the reset failed
}

// StoreMeta is the metadata of the currently loaded snapshot.
type StoreMeta struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}
