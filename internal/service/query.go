package service

import (
	"context"
	"strconv"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/statemachine"
)

// List returns tickets matching the conjunction of supplied filters,
// ordered by updated_at descending, id descending as tie-break
// (spec.md §4.2). include_archived and search are SPEC_FULL.md §4.2
// supplements, grounded on TicketListFilters/list_tickets in
// original_source/stompy_ticketing/service.py; the structured filters
// spec.md names (type, status, priority, assignee, tags) are applied
// exactly as specified.
func (s *TicketService) List(ctx context.Context, f ListFilters) ([]model.Ticket, *errs.AppError) {
	s.archiveBestEffort(ctx)

	q := s.db.WithContext(ctx).Table(s.tbl("ticket"))
	if !f.IncludeArchived {
		q = q.Where("archived_at IS NULL")
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", *f.Priority)
	}
	if f.Assignee != nil {
		q = q.Where("assignee = ?", *f.Assignee)
	}
	if f.Search != nil && *f.Search != "" {
		q = q.Where("tsv @@ to_tsquery('english', ?)", buildOrTsQuery(*f.Search))
	}
	if len(f.Tags) > 0 {
		// tags @> array — ticket's tag set is a superset of the filter's,
		// the array-contains semantic SPEC_FULL.md §9 settles on.
		q = q.Where("tags @> ?", pq.StringArray(f.Tags))
	}

	limit := clampLimit(f.Limit, 50, 200)
	offset := clampOffset(f.Offset)

	var rows []model.Ticket
	if err := q.Order("updated_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, errs.NewInternal(err, "list tickets")
	}
	return rows, nil
}

// Board groups tickets into status buckets for the requested type (or the
// union across all four types when typeFilter is nil), per spec.md §4.2,
// which requires every declared status to appear as a bucket — empty
// ones as [] or 0 — unless the caller opts out. opts.IncludeTerminal is
// the opt-out: both facades (internal/rpc, internal/httpapi) default it
// to true before calling Board, so an unqualified board() call matches
// spec.md's literal default exactly. include_terminal=false is the
// original's board_view default, grounded on SPEC_FULL.md §4.2's
// supplement, not spec.md's. include_archived is an independent
// SPEC_FULL.md §4.2 supplement.
func (s *TicketService) Board(ctx context.Context, view string, typeFilter *string, opts BoardOptions) (*BoardResult, *errs.AppError) {
	if view != "kanban" && view != "summary" {
		return nil, errs.NewValidation("unknown board view %q", view)
	}
	s.archiveBestEffort(ctx)

	var statuses []string
	if typeFilter != nil {
		t := statemachine.TicketType(*typeFilter)
		if !t.Valid() {
			return nil, errs.NewValidation("unknown ticket type %q", *typeFilter)
		}
		ss, verr := statemachine.Statuses(t)
		if verr != nil {
			return nil, verr
		}
		statuses = ss
	} else {
		statuses = statemachine.AllStatuses()
	}

	q := s.db.WithContext(ctx).Table(s.tbl("ticket"))
	if !opts.IncludeArchived {
		q = q.Where("archived_at IS NULL")
	}
	if typeFilter != nil {
		q = q.Where("type = ?", *typeFilter)
	}
	if !opts.IncludeTerminal {
		excluded := terminalStatusesFor(typeFilter)
		if len(excluded) > 0 {
			q = q.Where("status NOT IN ?", excluded)
		}
		statuses = filterOutTerminal(statuses, excluded, opts.IncludeTerminal)
	}

	var rows []model.Ticket
	if err := q.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, errs.NewInternal(err, "board view")
	}

	byStatus := map[string][]model.Ticket{}
	for _, t := range rows {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	result := &BoardResult{View: view}
	for _, status := range statuses {
		bucket := byStatus[status]
		col := BoardColumn{Status: status, Count: len(bucket)}
		if view == "kanban" {
			if bucket == nil {
				bucket = []model.Ticket{}
			}
			col.Tickets = bucket
		}
		result.Columns = append(result.Columns, col)
	}
	return result, nil
}

// terminalStatusesFor returns the terminal statuses to exclude from a
// non-include_terminal board view: the requested type's terminals, or
// the union across all four types when no type filter is given.
func terminalStatusesFor(typeFilter *string) []string {
	types := []statemachine.TicketType{statemachine.Task, statemachine.Bug, statemachine.Feature, statemachine.Decision}
	if typeFilter != nil {
		types = []statemachine.TicketType{statemachine.TicketType(*typeFilter)}
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range types {
		statuses, verr := statemachine.Statuses(t)
		if verr != nil {
			continue
		}
		for _, st := range statuses {
			terminal, verr := statemachine.IsTerminal(t, st)
			if verr == nil && terminal && !seen[st] {
				seen[st] = true
				out = append(out, st)
			}
		}
	}
	return out
}

func filterOutTerminal(statuses, excluded []string, includeTerminal bool) []string {
	if includeTerminal || len(excluded) == 0 {
		return statuses
	}
	ex := map[string]bool{}
	for _, s := range excluded {
		ex[s] = true
	}
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if !ex[s] {
			out = append(out, s)
		}
	}
	return out
}

// Search executes a full-text query against the tsvector column, ranked
// by ts_rank, per spec.md §4.2. Grounded on search_tickets in the
// original, including its OR-joined tsquery construction.
func (s *TicketService) Search(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]SearchHit, *errs.AppError) {
	if query == "" {
		return nil, errs.NewValidation("search query is required")
	}
	s.archiveBestEffort(ctx)

	tsq := buildOrTsQuery(query)
	q := s.db.WithContext(ctx).Table(s.tbl("ticket")).
		Select("*, ts_rank(tsv, to_tsquery('english', ?)) AS rank", tsq).
		Where("tsv @@ to_tsquery('english', ?)", tsq)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	if typeFilter != nil {
		q = q.Where("type = ?", *typeFilter)
	}
	if statusFilter != nil {
		q = q.Where("status = ?", *statusFilter)
	}

	type row struct {
		model.Ticket
		Rank float64
	}
	var rows []row
	limit = clampLimit(limit, 20, 100)
	if err := q.Order("rank DESC, id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, errs.NewInternal(err, "search tickets")
	}

	hits := make([]SearchHit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, SearchHit{Ticket: r.Ticket, Rank: r.Rank})
	}
	return hits, nil
}

// archiveBestEffort mirrors the original's "lazy archive trigger": list,
// board, and search each run Archive opportunistically before their main
// query and swallow its error, per SPEC_FULL.md §4.2.
func (s *TicketService) archiveBestEffort(ctx context.Context) {
	_, _ = s.Archive(ctx, defaultArchiveTTLSeconds)
}

// Archive marks terminal tickets past ttlSeconds since closed_at as
// archived and writes one history row per ticket, grounded on
// archive_stale_tickets in the original.
func (s *TicketService) Archive(ctx context.Context, ttlSeconds int64) (int, *errs.AppError) {
	now := nowSeconds()
	cutoff := archiveCutoff(now, ttlSeconds)

	allTerminals := terminalStatusesFor(nil)

	var stale []model.Ticket
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).
		Where("closed_at IS NOT NULL AND closed_at < ? AND archived_at IS NULL AND status IN ?", cutoff, allTerminals).
		Find(&stale).Error; err != nil {
		return 0, errs.NewInternal(err, "find stale tickets")
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(stale))
	for _, t := range stale {
		ids = append(ids, t.ID)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.tbl("ticket")).Where("id IN ?", ids).Update("archived_at", now).Error; err != nil {
			return err
		}
		entries := make([]model.HistoryEntry, 0, len(ids))
		newVal := strconv.FormatInt(now, 10)
		systemActor := "system:auto_archive"
		for _, id := range ids {
			entries = append(entries, model.HistoryEntry{
				TicketID:  id,
				Field:     "archived_at",
				OldValue:  nil,
				NewValue:  &newVal,
				ChangedBy: &systemActor,
				ChangedAt: now,
			})
		}
		return tx.Table(s.tbl("ticket_history")).Create(&entries).Error
	})
	if txErr != nil {
		return 0, errs.NewInternal(txErr, "archive stale tickets")
	}
	return len(ids), nil
}
