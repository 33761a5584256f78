package service

import (
	"context"
	"encoding/json"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
)

// CreateInput is create's argument set, spec.md §4.2.
type CreateInput struct {
	Type        string
	Title       string
	Description *string
	Priority    string
	Assignee    *string
	Reporter    *string
	Tags        []string
	Metadata    map[string]any
	SessionID   *string
}

// ListFilters is list's argument set, spec.md §4.2 plus the
// include_archived/search supplements from SPEC_FULL.md §4.2.
type ListFilters struct {
	Type            *string
	Status          *string
	Priority        *string
	Assignee        *string
	Tags            []string
	Search          *string
	Limit           int
	Offset          int
	IncludeArchived bool
}

// BoardOptions is board's supplemental filter set (SPEC_FULL.md §4.2).
// IncludeTerminal has no meaningful "unset" zero value on its own — both
// facades default it to true before constructing BoardOptions, so a
// ticketcore-internal caller that wants the original's opt-out behavior
// must pass false explicitly.
type BoardOptions struct {
	IncludeTerminal bool
	IncludeArchived bool
}

// BoardColumn is one status bucket of a board view. Tickets is omitted
// entirely for the "summary" view.
type BoardColumn struct {
	Status  string         `json:"status"`
	Count   int            `json:"count"`
	Tickets []model.Ticket `json:"tickets,omitempty"`
}

// MarshalJSON writes an empty kanban bucket as "tickets": [] and leaves
// the key out only when Tickets is nil (the summary view); omitempty
// alone would drop the empty kanban bucket as well.
func (c BoardColumn) MarshalJSON() ([]byte, error) {
	out := map[string]any{"status": c.Status, "count": c.Count}
	if c.Tickets != nil {
		out["tickets"] = c.Tickets
	}
	return json.Marshal(out)
}

// BoardResult is board's return shape for both "kanban" and "summary".
type BoardResult struct {
	View    string        `json:"view"`
	Columns []BoardColumn `json:"columns"`
}

// SearchHit pairs a ticket with its BM25-style relevance rank.
type SearchHit struct {
	Ticket model.Ticket `json:"ticket"`
	Rank   float64      `json:"rank"`
}

// TicketDetail is get's return shape: the ticket plus its history and
// links in both directions.
type TicketDetail struct {
	model.Ticket
	History  []model.HistoryEntry `json:"history"`
	Outgoing []model.LinkedTicket `json:"outgoing"`
	Incoming []model.LinkedTicket `json:"incoming"`
}

// TicketServicer is the concrete contract both facades depend on. Tests
// use a fake implementation so neither facade needs a live database.
type TicketServicer interface {
	Create(ctx context.Context, in CreateInput) (*model.Ticket, *errs.AppError)
	Get(ctx context.Context, id int64) (*TicketDetail, *errs.AppError)
	List(ctx context.Context, f ListFilters) ([]model.Ticket, *errs.AppError)
	Update(ctx context.Context, id int64, fields map[string]any, changedBy *string) (*model.Ticket, *errs.AppError)
	Transition(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError)
	Close(ctx context.Context, id int64, changedBy *string) (*model.Ticket, *errs.AppError)
	Board(ctx context.Context, view string, typeFilter *string, opts BoardOptions) (*BoardResult, *errs.AppError)
	Search(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]SearchHit, *errs.AppError)
	LinkAdd(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError)
	LinkList(ctx context.Context, id int64) (outgoing, incoming []model.LinkedTicket, verr *errs.AppError)
	LinkRemove(ctx context.Context, linkID int64) *errs.AppError
	Archive(ctx context.Context, ttlSeconds int64) (int, *errs.AppError)
	BatchTransition(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*BatchResult, *errs.AppError)
	BatchClose(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*BatchResult, *errs.AppError)
}
