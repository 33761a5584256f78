// Package model holds the persisted shapes the ticket service reads and
// writes. Every table lives inside one project schema, so no struct here
// carries a GORM-style static TableName — callers bind a schema-qualified
// table name at query time (see service.tbl).
package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Ticket is a single work item. Type is immutable once set by Create;
// Status only ever changes through the state machine.
type Ticket struct {
	ID          int64             `gorm:"column:id;primaryKey" json:"id"`
	Type        string            `gorm:"column:type" json:"type"`
	Title       string            `gorm:"column:title" json:"title"`
	Description *string           `gorm:"column:description" json:"description,omitempty"`
	Status      string            `gorm:"column:status" json:"status"`
	Priority    string            `gorm:"column:priority" json:"priority"`
	Assignee    *string           `gorm:"column:assignee" json:"assignee,omitempty"`
	Reporter    *string           `gorm:"column:reporter" json:"reporter,omitempty"`
	Tags        pq.StringArray    `gorm:"column:tags;type:text[]" json:"tags"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	SessionID   *string           `gorm:"column:session_id" json:"session_id,omitempty"`
	ContentHash string            `gorm:"column:content_hash" json:"content_hash,omitempty"`
	CreatedAt   int64             `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   int64             `gorm:"column:updated_at" json:"updated_at"`
	ClosedAt    *int64            `gorm:"column:closed_at" json:"closed_at,omitempty"`
	ArchivedAt  *int64            `gorm:"column:archived_at" json:"archived_at,omitempty"`
}

// HistoryEntry is one append-only audit row. Never updated, never deleted.
type HistoryEntry struct {
	ID        int64   `gorm:"column:id;primaryKey" json:"id"`
	TicketID  int64   `gorm:"column:ticket_id" json:"ticket_id"`
	Field     string  `gorm:"column:field" json:"field"`
	OldValue  *string `gorm:"column:old_value" json:"old_value,omitempty"`
	NewValue  *string `gorm:"column:new_value" json:"new_value,omitempty"`
	ChangedBy *string `gorm:"column:changed_by" json:"changed_by,omitempty"`
	ChangedAt int64   `gorm:"column:changed_at" json:"changed_at"`
}

// Link is a directed relationship between two distinct tickets.
type Link struct {
	ID        int64  `gorm:"column:id;primaryKey" json:"id"`
	SourceID  int64  `gorm:"column:source_id" json:"source_id"`
	TargetID  int64  `gorm:"column:target_id" json:"target_id"`
	LinkType  string `gorm:"column:link_type" json:"link_type"`
	CreatedAt int64  `gorm:"column:created_at" json:"created_at"`
}

// LinkedTicket enriches a Link with the counterpart ticket's identifying
// fields, as returned by link_list.
type LinkedTicket struct {
	Link
	CounterpartID     int64  `json:"counterpart_id"`
	CounterpartTitle  string `json:"counterpart_title"`
	CounterpartType   string `json:"counterpart_type"`
	CounterpartStatus string `json:"counterpart_status"`
}

// Priority is the closed set of ticket priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// LinkType is the closed set of relationship kinds between two tickets.
type LinkType string

const (
	LinkBlocks    LinkType = "blocks"
	LinkParent    LinkType = "parent"
	LinkRelated   LinkType = "related"
	LinkDuplicate LinkType = "duplicate"
)

func (l LinkType) Valid() bool {
	switch l {
	case LinkBlocks, LinkParent, LinkRelated, LinkDuplicate:
		return true
	}
	return false
}
