// Package types provides shared type definitions used across taskmind packages.
// This package exists to break import cycles between store, extraction, and chat.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"time"
)

// Priority levels for tasks. Anything outside these three normalizes to Normal.
const (
	PriorityLow    = "Low"
	PriorityNormal = "Normal"
	PriorityHigh   = "High"
)

// ValidPriority reports whether p is one of the three enumerated priorities.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Task is a single scheduled task as persisted in the store.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Deadline    time.Time `json:"deadline"`
	Duration    int       `json:"duration"` // minutes
	IsDueDate   bool      `json:"is_due_date"`
	OwnerID     *int64    `json:"user_id,omitempty"`
}

// DeadlineString renders the deadline in the wire format used throughout
// prompts and confirmation blocks.
func (t Task) DeadlineString() string {
	return t.Deadline.Format("2006-01-02 15:04")
}

// User is a registered account. HashedPassword never leaves the store layer.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExtractionResult is the create-contract record produced for one chat turn.
// It is consumed once by the create pipeline and then discarded; only the
// derived Task is persisted.
type ExtractionResult struct {
	IsTask          bool     `json:"is_task"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	Date            string   `json:"date"`       // YYYY-MM-DD
	StartTime       string   `json:"start_time"` // HH:MM or HH:MM AM/PM
	EndTime         string   `json:"end_time"`
	IsDueDate       bool     `json:"is_due_date"`
	UncertainFields []string `json:"uncertain_fields"`
}

// TaskIdentifiers is the criteria object consumed by the task matcher.
// OtherDescriptors is accepted in the contract but never used as a filter;
// it is carried for forward compatibility.
type TaskIdentifiers struct {
	TitleKeywords    []string `json:"title_keywords"`
	DateReference    string   `json:"date_reference"`
	TimeReference    string   `json:"time_reference"`
	OtherDescriptors []string `json:"other_descriptors"`
}

// Empty reports whether no usable criteria were extracted.
func (ti TaskIdentifiers) Empty() bool {
	for _, kw := range ti.TitleKeywords {
		if kw != "" {
			return false
		}
	}
	return ti.DateReference == "" && ti.TimeReference == ""
}

// EditRequest is the edit-contract record for one chat turn.
type EditRequest struct {
	IsEditRequest   bool            `json:"is_edit_request"`
	TaskIdentifiers TaskIdentifiers `json:"task_identifiers"`
	Changes         map[string]any  `json:"changes"`
}

// DeleteRequest is the delete-contract record for one chat turn.
type DeleteRequest struct {
	IsDeleteRequest bool            `json:"is_delete_request"`
	TaskIdentifiers TaskIdentifiers `json:"task_identifiers"`
}

// UncertainFields tracks which creation attributes were defaulted rather than
// explicitly stated. Insertion is idempotent and preserves first-seen order so
// confirmation prompts come out deterministic.
type UncertainFields struct {
	fields []string
}

// NewUncertainFields seeds the set with the fields the extractor already
// flagged, deduplicating as it goes.
func NewUncertainFields(initial []string) *UncertainFields {
	u := &UncertainFields{}
	for _, f := range initial {
		u.Add(f)
	}
	return u
}

// Add inserts a field name unless it is already present.
func (u *UncertainFields) Add(field string) {
	if u.Contains(field) {
		return
	}
	u.fields = append(u.fields, field)
}

// Contains reports whether field was marked uncertain.
func (u *UncertainFields) Contains(field string) bool {
	for _, f := range u.fields {
		if f == field {
			return true
		}
	}
	return false
}

// Fields returns the tracked names in insertion order.
func (u *UncertainFields) Fields() []string {
	return u.fields
}

// Len returns the number of distinct uncertain fields.
func (u *UncertainFields) Len() int {
	return len(u.fields)
}

// NeedsConfirmation reports whether any field was defaulted.
func (u *UncertainFields) NeedsConfirmation() bool {
	return len(u.fields) > 0
}

func (u *UncertainFields) String() string {
	return fmt.Sprintf("%v", u.fields)
}
