// Package servicetest provides a fake TicketServicer so the RPC and
// HTTP facades can be tested without a database, per SPEC_FULL.md §8.
package servicetest

import (
	"context"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/service"
)

// Fake is a scriptable stand-in for service.TicketServicer. Each field
// is a hook; leaving one nil makes the corresponding method panic if
// called, so a test only wires what it exercises.
type Fake struct {
	CreateFn     func(ctx context.Context, in service.CreateInput) (*model.Ticket, *errs.AppError)
	GetFn        func(ctx context.Context, id int64) (*service.TicketDetail, *errs.AppError)
	ListFn       func(ctx context.Context, f service.ListFilters) ([]model.Ticket, *errs.AppError)
	UpdateFn     func(ctx context.Context, id int64, fields map[string]any, changedBy *string) (*model.Ticket, *errs.AppError)
	TransitionFn func(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError)
	CloseFn      func(ctx context.Context, id int64, changedBy *string) (*model.Ticket, *errs.AppError)
	BoardFn      func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError)
	SearchFn     func(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]service.SearchHit, *errs.AppError)
	LinkAddFn    func(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError)
	LinkListFn   func(ctx context.Context, id int64) ([]model.LinkedTicket, []model.LinkedTicket, *errs.AppError)
	LinkRemoveFn func(ctx context.Context, linkID int64) *errs.AppError
	ArchiveFn    func(ctx context.Context, ttlSeconds int64) (int, *errs.AppError)

	BatchTransitionFn func(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError)
	BatchCloseFn      func(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError)
}

var _ service.TicketServicer = (*Fake)(nil)

func (f *Fake) Create(ctx context.Context, in service.CreateInput) (*model.Ticket, *errs.AppError) {
	return f.CreateFn(ctx, in)
}

func (f *Fake) Get(ctx context.Context, id int64) (*service.TicketDetail, *errs.AppError) {
	return f.GetFn(ctx, id)
}

func (f *Fake) List(ctx context.Context, filters service.ListFilters) ([]model.Ticket, *errs.AppError) {
	return f.ListFn(ctx, filters)
}

func (f *Fake) Update(ctx context.Context, id int64, fields map[string]any, changedBy *string) (*model.Ticket, *errs.AppError) {
	return f.UpdateFn(ctx, id, fields, changedBy)
}

func (f *Fake) Transition(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError) {
	return f.TransitionFn(ctx, id, newStatus, changedBy)
}

func (f *Fake) Close(ctx context.Context, id int64, changedBy *string) (*model.Ticket, *errs.AppError) {
	return f.CloseFn(ctx, id, changedBy)
}

func (f *Fake) Board(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
	return f.BoardFn(ctx, view, typeFilter, opts)
}

func (f *Fake) Search(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]service.SearchHit, *errs.AppError) {
	return f.SearchFn(ctx, query, typeFilter, statusFilter, limit, includeArchived)
}

func (f *Fake) LinkAdd(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError) {
	return f.LinkAddFn(ctx, sourceID, targetID, linkType)
}

func (f *Fake) LinkList(ctx context.Context, id int64) ([]model.LinkedTicket, []model.LinkedTicket, *errs.AppError) {
	return f.LinkListFn(ctx, id)
}

func (f *Fake) LinkRemove(ctx context.Context, linkID int64) *errs.AppError {
	return f.LinkRemoveFn(ctx, linkID)
}

func (f *Fake) Archive(ctx context.Context, ttlSeconds int64) (int, *errs.AppError) {
	return f.ArchiveFn(ctx, ttlSeconds)
}

func (f *Fake) BatchTransition(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
	return f.BatchTransitionFn(ctx, ids, targetStatus, confirm, changedBy)
}

func (f *Fake) BatchClose(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
	return f.BatchCloseFn(ctx, ids, confirm, changedBy)
}
