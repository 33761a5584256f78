// Package service implements the ticket lifecycle: CRUD, transitions,
// close-to-terminal resolution, relationship management, and full-text
// search, all mediated by a schema-templated SQL layer and an
// append-only audit log. Grounded on
// original_source/stompy_ticketing/service.py, translated from
// psycopg2-with-sql.Identifier to gorm.io/gorm bound to one schema per
// instance, following the teacher's TicketService(db) constructor shape.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/statemachine"
)

// TicketService is bound to one (connection, schema) pair for the
// duration of a request; it holds no state of its own across calls.
type TicketService struct {
	db     *gorm.DB
	schema string
}

// NewTicketService binds a ticket service to a schema-qualified
// connection. db is expected to already carry the request's context via
// WithContext at call time.
func NewTicketService(db *gorm.DB, schema string) *TicketService {
	return &TicketService{db: db, schema: schema}
}

var _ TicketServicer = (*TicketService)(nil)

// tbl schema-qualifies a table name. schema is resolved by the host's
// ResolveSchema callable at bind time, never from request data, so this
// is templating against a trusted value, not string-built user input
// (spec.md §9).
func (s *TicketService) tbl(name string) string {
	return pq.QuoteIdentifier(s.schema) + "." + name
}

func nowSeconds() int64 {
	return time.Now().Unix()
}

func (s *TicketService) Create(ctx context.Context, in CreateInput) (*model.Ticket, *errs.AppError) {
	t := statemachine.TicketType(in.Type)
	if !t.Valid() {
		return nil, errs.NewValidation("unknown ticket type %q", in.Type)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errs.NewValidation("title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = string(model.PriorityMedium)
	}
	if !model.Priority(priority).Valid() {
		return nil, errs.NewValidation("unknown priority %q", priority)
	}
	initial, verr := statemachine.Initial(t)
	if verr != nil {
		return nil, verr
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := nowSeconds()
	ticket := &model.Ticket{
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Status:      initial,
		Priority:    priority,
		Assignee:    in.Assignee,
		Reporter:    in.Reporter,
		Tags:        pq.StringArray(tags),
		Metadata:    datatypes.JSONMap(metadata),
		SessionID:   in.SessionID,
		ContentHash: contentHash(in.Title, in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).Create(ticket).Error; err != nil {
		return nil, errs.NewInternal(err, "create ticket")
	}
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (*TicketDetail, *errs.AppError) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("ticket %d not found", id)
		}
		return nil, errs.NewInternal(err, "load ticket")
	}

	var history []model.HistoryEntry
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket_history")).
		Where("ticket_id = ?", id).Order("changed_at ASC").Find(&history).Error; err != nil {
		return nil, errs.NewInternal(err, "load ticket history")
	}

	outgoing, incoming, verr := s.LinkList(ctx, id)
	if verr != nil {
		return nil, verr
	}

	return &TicketDetail{Ticket: t, History: history, Outgoing: outgoing, Incoming: incoming}, nil
}
