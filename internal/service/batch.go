package service

import (
	"context"
	"fmt"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/statemachine"
)

// BatchMax caps the number of tickets a single batch operation may
// touch, grounded on BATCH_MAX in
// original_source/stompy_ticketing/service.py.
const BatchMax = 50

// BatchItemResult is one ticket's outcome within a batch operation.
type BatchItemResult struct {
	TicketID  int64  `json:"ticket_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
}

// BatchResult is batch_move/batch_close's return shape. DryRun mirrors
// confirm: false (the default) previews every item's outcome without
// writing anything; true executes and reports what actually happened.
// A batch over BatchMax writes nothing and reports DryRun true whatever
// confirm was.
type BatchResult struct {
	Action    string            `json:"action"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
	DryRun    bool              `json:"dry_run"`
}

func batchSizeExceeded(action string, n int) *BatchResult {
	return &BatchResult{
		Action: action, Total: n, Succeeded: 0, Failed: n,
		Results: []BatchItemResult{{
			Success: false,
			Error:   fmt.Sprintf("batch size %d exceeds max %d", n, BatchMax),
		}},
		DryRun: true,
	}
}

// BatchTransition moves every ticket in ids to targetStatus. confirm=false
// previews each transition's validity without writing; confirm=true calls
// Transition per ticket and reports the outcome. Grounded on
// batch_transition in original_source/stompy_ticketing/service.py,
// mapped onto spec.md's declared-edge state machine (no BFS walk —
// targetStatus must be a direct edge from the ticket's current status,
// the same rule Transition enforces one ticket at a time).
func (s *TicketService) BatchTransition(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*BatchResult, *errs.AppError) {
	if len(ids) > BatchMax {
		return batchSizeExceeded("batch_move", len(ids)), nil
	}

	result := &BatchResult{Action: "batch_move", Total: len(ids), DryRun: !confirm}
	for _, id := range ids {
		var current model.Ticket
		if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).First(&current, "id = ?", id).Error; err != nil {
			result.Results = append(result.Results, BatchItemResult{TicketID: id, Error: "ticket not found"})
			result.Failed++
			continue
		}

		t := statemachine.TicketType(current.Type)
		if verr := statemachine.ValidateTransition(t, current.Status, targetStatus); verr != nil {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, OldStatus: current.Status, Error: verr.Message,
			})
			result.Failed++
			continue
		}

		if !confirm {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, Success: true, OldStatus: current.Status, NewStatus: targetStatus,
			})
			result.Succeeded++
			continue
		}

		if _, verr := s.Transition(ctx, id, targetStatus, changedBy); verr != nil {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, OldStatus: current.Status, Error: verr.Message,
			})
			result.Failed++
			continue
		}
		result.Results = append(result.Results, BatchItemResult{
			TicketID: id, Success: true, OldStatus: current.Status, NewStatus: targetStatus,
		})
		result.Succeeded++
	}
	return result, nil
}

// BatchClose closes every ticket in ids via the same single-edge
// preferred-terminal resolution Close uses one ticket at a time,
// grounded on batch_close in
// original_source/stompy_ticketing/service.py. The original walks a BFS
// path to any terminal status; every non-terminal status in
// internal/statemachine's four graphs already reaches a terminal in one
// edge, so resolving per ticket via CloseTarget is equivalent here and
// keeps close's preference order the only rule for "which terminal",
// rather than introducing a second path-finding rule that could disagree
// with it.
func (s *TicketService) BatchClose(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*BatchResult, *errs.AppError) {
	if len(ids) > BatchMax {
		return batchSizeExceeded("batch_close", len(ids)), nil
	}

	result := &BatchResult{Action: "batch_close", Total: len(ids), DryRun: !confirm}
	for _, id := range ids {
		var current model.Ticket
		if err := s.db.WithContext(ctx).Table(s.tbl("ticket")).First(&current, "id = ?", id).Error; err != nil {
			result.Results = append(result.Results, BatchItemResult{TicketID: id, Error: "ticket not found"})
			result.Failed++
			continue
		}

		t := statemachine.TicketType(current.Type)
		terminal, verr := statemachine.IsTerminal(t, current.Status)
		if verr != nil {
			result.Results = append(result.Results, BatchItemResult{TicketID: id, Error: verr.Message})
			result.Failed++
			continue
		}
		if terminal {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, Success: true, OldStatus: current.Status, NewStatus: current.Status,
			})
			result.Succeeded++
			continue
		}

		target, verr := statemachine.CloseTarget(t, current.Status)
		if verr != nil {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, OldStatus: current.Status, Error: verr.Message,
			})
			result.Failed++
			continue
		}

		if !confirm {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, Success: true, OldStatus: current.Status, NewStatus: target,
			})
			result.Succeeded++
			continue
		}

		if _, verr := s.Transition(ctx, id, target, changedBy); verr != nil {
			result.Results = append(result.Results, BatchItemResult{
				TicketID: id, OldStatus: current.Status, Error: verr.Message,
			})
			result.Failed++
			continue
		}
		result.Results = append(result.Results, BatchItemResult{
			TicketID: id, Success: true, OldStatus: current.Status, NewStatus: target,
		})
		result.Succeeded++
	}
	return result, nil
}
