package core

import (
	"context"
	"log/slog"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/logging"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/service"
)

// loggingServicer wraps a TicketServicer so that every error crossing the
// service boundary is logged with the ticket id, project schema, and
// operation name before the facade sees it, per SPEC_FULL.md §2.1.
type loggingServicer struct {
	inner  service.TicketServicer
	schema string
	log    *slog.Logger
}

func withLogging(inner service.TicketServicer, schema string) service.TicketServicer {
	return &loggingServicer{inner: inner, schema: schema, log: logging.WithComponent("service")}
}

func (l *loggingServicer) report(ctx context.Context, op string, id int64, ae *errs.AppError) {
	if ae == nil {
		return
	}
	l.log.Error("ticket service error",
		"op", op, "schema", l.schema, "ticket_id", id,
		"request_id", RequestIDFrom(ctx),
		"kind", string(ae.Kind), "error", ae)
}

func (l *loggingServicer) Create(ctx context.Context, in service.CreateInput) (*model.Ticket, *errs.AppError) {
	t, ae := l.inner.Create(ctx, in)
	l.report(ctx, "create", 0, ae)
	return t, ae
}

func (l *loggingServicer) Get(ctx context.Context, id int64) (*service.TicketDetail, *errs.AppError) {
	d, ae := l.inner.Get(ctx, id)
	l.report(ctx, "get", id, ae)
	return d, ae
}

func (l *loggingServicer) List(ctx context.Context, f service.ListFilters) ([]model.Ticket, *errs.AppError) {
	rows, ae := l.inner.List(ctx, f)
	l.report(ctx, "list", 0, ae)
	return rows, ae
}

func (l *loggingServicer) Update(ctx context.Context, id int64, fields map[string]any, changedBy *string) (*model.Ticket, *errs.AppError) {
	t, ae := l.inner.Update(ctx, id, fields, changedBy)
	l.report(ctx, "update", id, ae)
	return t, ae
}

func (l *loggingServicer) Transition(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError) {
	t, ae := l.inner.Transition(ctx, id, newStatus, changedBy)
	l.report(ctx, "transition", id, ae)
	return t, ae
}

func (l *loggingServicer) Close(ctx context.Context, id int64, changedBy *string) (*model.Ticket, *errs.AppError) {
	t, ae := l.inner.Close(ctx, id, changedBy)
	l.report(ctx, "close", id, ae)
	return t, ae
}

func (l *loggingServicer) Board(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
	r, ae := l.inner.Board(ctx, view, typeFilter, opts)
	l.report(ctx, "board", 0, ae)
	return r, ae
}

func (l *loggingServicer) Search(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]service.SearchHit, *errs.AppError) {
	hits, ae := l.inner.Search(ctx, query, typeFilter, statusFilter, limit, includeArchived)
	l.report(ctx, "search", 0, ae)
	return hits, ae
}

func (l *loggingServicer) LinkAdd(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError) {
	link, ae := l.inner.LinkAdd(ctx, sourceID, targetID, linkType)
	l.report(ctx, "link_add", sourceID, ae)
	return link, ae
}

func (l *loggingServicer) LinkList(ctx context.Context, id int64) ([]model.LinkedTicket, []model.LinkedTicket, *errs.AppError) {
	outgoing, incoming, ae := l.inner.LinkList(ctx, id)
	l.report(ctx, "link_list", id, ae)
	return outgoing, incoming, ae
}

func (l *loggingServicer) LinkRemove(ctx context.Context, linkID int64) *errs.AppError {
	ae := l.inner.LinkRemove(ctx, linkID)
	l.report(ctx, "link_remove", linkID, ae)
	return ae
}

func (l *loggingServicer) Archive(ctx context.Context, ttlSeconds int64) (int, *errs.AppError) {
	n, ae := l.inner.Archive(ctx, ttlSeconds)
	l.report(ctx, "archive", 0, ae)
	return n, ae
}

func (l *loggingServicer) BatchTransition(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
	r, ae := l.inner.BatchTransition(ctx, ids, targetStatus, confirm, changedBy)
	l.report(ctx, "batch_move", 0, ae)
	return r, ae
}

func (l *loggingServicer) BatchClose(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
	r, ae := l.inner.BatchClose(ctx, ids, confirm, changedBy)
	l.report(ctx, "batch_close", 0, ae)
	return r, ae
}
