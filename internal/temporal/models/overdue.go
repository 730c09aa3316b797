package models

import "time"

// OverdueSweepWorkflowInput starts one overdue sweep
type OverdueSweepWorkflowInput struct {
	// AsOf defaults to the workflow's current time
	AsOf *time.Time `json:"as_of,omitempty"`
}

// MarkOverdueInvoicesActivityInput is the input of the sweep activity
type MarkOverdueInvoicesActivityInput struct {
	AsOf time.Time `json:"as_of"`
}

// OverdueSweepResult reports what a sweep changed
type OverdueSweepResult struct {
	Scanned int      `json:"scanned"`
	Marked  []string `json:"marked"`
	Failed  []string `json:"failed,omitempty"`
}
