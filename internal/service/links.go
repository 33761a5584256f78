package service

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
)

// LinkAdd verifies both tickets exist and are distinct, then inserts a
// directed link. A unique-violation on (source, target, link_type) is
// reported as Conflict, not an error, per spec.md §4.2. Grounded on
// add_link in the original.
func (s *TicketService) LinkAdd(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError) {
	if sourceID == targetID {
		return nil, errs.NewValidation("source_id and target_id must differ")
	}
	if !model.LinkType(linkType).Valid() {
		return nil, errs.NewValidation("unknown link_type %q", linkType)
	}

	for _, id := range []int64{sourceID, targetID} {
		var count int64
		if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, errs.NewInternal(err, "check ticket exists")
		}
		if count == 0 {
			return nil, errs.NewNotFound("ticket %d not found", id)
		}
	}

	link := &model.Link{
		SourceID:  sourceID,
		TargetID:  targetID,
		LinkType:  linkType,
		CreatedAt: nowSeconds(),
	}
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket_link")).Create(link).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, errs.NewConflict("link (%d, %d, %s) already exists", sourceID, targetID, linkType)
		}
		return nil, errs.NewInternal(err, "create link")
	}
	return link, nil
}

// LinkList returns the links with id as source (outgoing) and as target
// (incoming), each enriched with the counterpart ticket's identifying
// fields, per spec.md §4.2.
func (s *TicketService) LinkList(ctx context.Context, id int64) ([]model.LinkedTicket, []model.LinkedTicket, *errs.AppError) {
	outgoing, verr := s.enrichedLinks(ctx, "source_id = ?", id, "target_id")
	if verr != nil {
		return nil, nil, verr
	}
	incoming, verr := s.enrichedLinks(ctx, "target_id = ?", id, "source_id")
	if verr != nil {
		return nil, nil, verr
	}
	return outgoing, incoming, nil
}

func (s *TicketService) enrichedLinks(ctx context.Context, where string, id int64, counterpartCol string) ([]model.LinkedTicket, *errs.AppError) {
	var links []model.Link
	if err := s.db.WithContext(ctx).Table(s.tbl("ticket_link")).Where(where, id).Find(&links).Error; err != nil {
		return nil, errs.NewInternal(err, "list links")
	}
	out := make([]model.LinkedTicket, 0, len(links))
	for _, l := range links {
		counterpartID := l.TargetID
		if counterpartCol == "source_id" {
			counterpartID = l.SourceID
		}
		var t model.Ticket
		if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).First(&t, "id = ?", counterpartID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, errs.NewInternal(err, "load counterpart ticket")
		}
		out = append(out, model.LinkedTicket{
			Link:              l,
			CounterpartID:     t.ID,
			CounterpartTitle:  t.Title,
			CounterpartType:   t.Type,
			CounterpartStatus: t.Status,
		})
	}
	return out, nil
}

// LinkRemove deletes a link by id; absence is reported as NotFound, per
// spec.md §4.2. Grounded on remove_link in the original.
func (s *TicketService) LinkRemove(ctx context.Context, linkID int64) *errs.AppError {
	res := s.db.WithContext(ctx).Table(s.tbl("ticket_link")).Where("id = ?", linkID).Delete(&model.Link{})
	if res.Error != nil {
		return errs.NewInternal(res.Error, "remove link")
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("link %d not found", linkID)
	}
	return nil
}
