package service

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/statemachine"
)

// mutableFields is the set of columns Update is allowed to touch.
// status and type are excluded: status only ever moves through
// Transition/Close, type is immutable once a ticket is created.
var mutableFields = map[string]bool{
	"title":       true,
	"description": true,
	"priority":    true,
	"assignee":    true,
	"reporter":    true,
	"tags":        true,
	"metadata":    true,
}

// Update diffs the supplied fields against the current row inside a
// transaction, writing one ticket_history row per changed field. Fields
// not present in the map are left untouched; a present field set to its
// current value produces no history row. Grounded on
// original_source/stompy_ticketing/service.py::update_ticket.
func (s *TicketService) Update(ctx context.Context, id int64, fields map[string]any, changedBy *string) (*model.Ticket, *errs.AppError) {
	for name := range fields {
		if !mutableFields[name] {
			return nil, errs.NewValidation("field %q cannot be updated directly", name)
		}
	}
	if raw, ok := fields["priority"]; ok {
		p, ok := raw.(string)
		if !ok || !model.Priority(p).Valid() {
			return nil, errs.NewValidation("unknown priority %v", raw)
		}
	}

	var updated model.Ticket
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Ticket
		if err := tx.Table(s.tbl("ticket")).Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFound("ticket %d not found", id)
			}
			return errs.NewInternal(err, "load ticket for update")
		}

		now := nowSeconds()
		changes := map[string]any{}
		var history []model.HistoryEntry

		record := func(field string, oldVal, newVal *string) {
			if oldVal == nil && newVal == nil {
				return
			}
			if oldVal != nil && newVal != nil && *oldVal == *newVal {
				return
			}
			history = append(history, model.HistoryEntry{
				TicketID:  id,
				Field:     field,
				OldValue:  oldVal,
				NewValue:  newVal,
				ChangedBy: changedBy,
				ChangedAt: now,
			})
		}

		if raw, ok := fields["title"]; ok {
			title, ok := raw.(string)
			if !ok {
				return errs.NewValidation("title must be a string")
			}
			record("title", &current.Title, &title)
			changes["title"] = title
		}
		if raw, ok := fields["description"]; ok {
			newVal, ok := toOptionalString(raw)
			if !ok {
				return errs.NewValidation("description must be a string or null")
			}
			record("description", current.Description, newVal)
			changes["description"] = newVal
		}
		if raw, ok := fields["priority"]; ok {
			p := raw.(string)
			old := current.Priority
			record("priority", &old, &p)
			changes["priority"] = p
		}
		if raw, ok := fields["assignee"]; ok {
			newVal, ok := toOptionalString(raw)
			if !ok {
				return errs.NewValidation("assignee must be a string or null")
			}
			record("assignee", current.Assignee, newVal)
			changes["assignee"] = newVal
		}
		if raw, ok := fields["reporter"]; ok {
			newVal, ok := toOptionalString(raw)
			if !ok {
				return errs.NewValidation("reporter must be a string or null")
			}
			record("reporter", current.Reporter, newVal)
			changes["reporter"] = newVal
		}
		if raw, ok := fields["tags"]; ok {
			tags, ok := toStringSlice(raw)
			if !ok {
				return errs.NewValidation("tags must be a list of strings")
			}
			if !tagsEqual([]string(current.Tags), tags) {
				record("tags", encodeStringSlice([]string(current.Tags)), encodeStringSlice(tags))
				changes["tags"] = pq.StringArray(tags)
			}
		}
		if raw, ok := fields["metadata"]; ok {
			meta, ok := toStringMap(raw)
			if !ok {
				return errs.NewValidation("metadata must be an object")
			}
			if !metadataEqual(map[string]any(current.Metadata), meta) {
				record("metadata", encodeMap(map[string]any(current.Metadata)), encodeMap(meta))
				changes["metadata"] = datatypes.JSONMap(normalizeMap(meta))
			}
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}
		changes["updated_at"] = now
		if err := tx.Table(s.tbl("ticket")).Where("id = ?", id).Updates(changes).Error; err != nil {
			return errs.NewInternal(err, "update ticket")
		}
		if len(history) > 0 {
			if err := tx.Table(s.tbl("ticket_history")).Create(&history).Error; err != nil {
				return errs.NewInternal(err, "write ticket history")
			}
		}
		if err := tx.Table(s.tbl("ticket")).First(&updated, "id = ?", id).Error; err != nil {
			return errs.NewInternal(err, "reload ticket after update")
		}
		return nil
	})
	if txErr != nil {
		var ae *errs.AppError
		if errors.As(txErr, &ae) {
			return nil, ae
		}
		return nil, errs.NewInternal(txErr, "update ticket transaction")
	}
	return &updated, nil
}

// Transition moves a ticket to newStatus, locking the row for the
// duration of the check-then-write so a concurrent transition cannot
// race past the state machine's validation. Grounded on
// original_source/stompy_ticketing/service.py::transition_ticket and the
// lock-then-validate-then-write pattern in
// orris-inc-orris/internal/shared/db/transaction.go.
func (s *TicketService) Transition(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError) {
	var updated model.Ticket
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Ticket
		if err := tx.Table(s.tbl("ticket")).Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFound("ticket %d not found", id)
			}
			return errs.NewInternal(err, "load ticket for transition")
		}

		t := statemachine.TicketType(current.Type)
		if verr := statemachine.ValidateTransition(t, current.Status, newStatus); verr != nil {
			return verr
		}

		now := nowSeconds()
		oldStatus := current.Status
		changes := map[string]any{
			"status":     newStatus,
			"updated_at": now,
		}
		terminal, verr := statemachine.IsTerminal(t, newStatus)
		if verr != nil {
			return verr
		}
		if terminal {
			changes["closed_at"] = now
		}
		if err := tx.Table(s.tbl("ticket")).Where("id = ?", id).Updates(changes).Error; err != nil {
			return errs.NewInternal(err, "transition ticket")
		}
		entry := model.HistoryEntry{
			TicketID:  id,
			Field:     "status",
			OldValue:  &oldStatus,
			NewValue:  &newStatus,
			ChangedBy: changedBy,
			ChangedAt: now,
		}
		if err := tx.Table(s.tbl("ticket_history")).Create(&entry).Error; err != nil {
			return errs.NewInternal(err, "write ticket history")
		}
		if err := tx.Table(s.tbl("ticket")).First(&updated, "id = ?", id).Error; err != nil {
			return errs.NewInternal(err, "reload ticket after transition")
		}
		return nil
	})
	if txErr != nil {
		var ae *errs.AppError
		if errors.As(txErr, &ae) {
			return nil, ae
		}
		return nil, errs.NewInternal(txErr, "transition ticket")
	}
	return &updated, nil
}

// Close resolves the single-edge terminal status preferred for the
// ticket's current status and delegates to Transition, so close shares
// transition's locking and history-writing exactly.
func (s *TicketService) Close(ctx context.Context, id int64, changedBy *string) (*model.Ticket, *errs.AppError) {
	var current model.Ticket
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).First(&current, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("ticket %d not found", id)
		}
		return nil, errs.NewInternal(err, "load ticket for close")
	}
	t := statemachine.TicketType(current.Type)
	target, verr := statemachine.CloseTarget(t, current.Status)
	if verr != nil {
		return nil, verr
	}
	return s.Transition(ctx, id, target, changedBy)
}
