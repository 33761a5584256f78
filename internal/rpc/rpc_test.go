package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/core"
	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/service"
	"github.com/ticketcore/ticketcore/internal/service/servicetest"
)

type fakeHost struct {
	tools map[string]ToolFunc
}

func (h *fakeHost) RegisterTool(name string, fn ToolFunc) {
	if h.tools == nil {
		h.tools = map[string]ToolFunc{}
	}
	h.tools[name] = fn
}

func depsWith(fake *servicetest.Fake) core.Deps {
	return core.Deps{
		GetDB: func(ctx context.Context, project string) (*gorm.DB, func(), error) {
			return nil, func() {}, nil
		},
		NewServicer: func(db *gorm.DB, schema string) service.TicketServicer { return fake },
	}
}

func TestBindRegistersFourTools(t *testing.T) {
	host := &fakeHost{}
	Bind(host, depsWith(&servicetest.Fake{}))
	for _, name := range []string{"ticket", "ticket_board", "ticket_search", "ticket_link"} {
		assert.Contains(t, host.tools, name)
	}
}

func TestTicketToolCreateDispatch(t *testing.T) {
	fake := &servicetest.Fake{
		CreateFn: func(ctx context.Context, in service.CreateInput) (*model.Ticket, *errs.AppError) {
			assert.Equal(t, "task", in.Type)
			assert.Equal(t, "Ship it", in.Title)
			return &model.Ticket{ID: 1, Type: in.Type, Title: in.Title, Status: "backlog"}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{
		"action": "create", "type": "task", "title": "Ship it",
	})
	require.NoError(t, err)
	assert.Equal(t, "backlog", result["status"])
	assert.EqualValues(t, 1, result["id"])
}

func TestTicketToolUnknownActionReturnsErrorShape(t *testing.T) {
	host := &fakeHost{}
	Bind(host, depsWith(&servicetest.Fake{}))

	result, err := host.tools["ticket"](context.Background(), map[string]any{"action": "bogus"})
	require.NoError(t, err)
	assert.Equal(t, string(errs.KindValidation), result["error"])
}

func TestTicketToolMoveDispatchesToTransition(t *testing.T) {
	fake := &servicetest.Fake{
		TransitionFn: func(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError) {
			assert.EqualValues(t, 7, id)
			assert.Equal(t, "in_progress", newStatus)
			return &model.Ticket{ID: id, Status: newStatus}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{
		"action": "move", "id": float64(7), "status": "in_progress",
	})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", result["status"])
}

func TestTicketToolPropagatesServiceError(t *testing.T) {
	fake := &servicetest.Fake{
		GetFn: func(ctx context.Context, id int64) (*service.TicketDetail, *errs.AppError) {
			return nil, errs.NewNotFound("ticket %d not found", id)
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{"action": "get", "id": float64(99)})
	require.NoError(t, err)
	assert.Equal(t, string(errs.KindNotFound), result["error"])
}

func TestTicketBoardToolDefaultsToKanban(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.Equal(t, "kanban", view)
			return &service.BoardResult{View: view}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket_board"](context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "kanban", result["view"])
}

func TestTicketBoardToolDefaultsIncludeTerminalTrue(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.True(t, opts.IncludeTerminal)
			return &service.BoardResult{View: view}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	_, err := host.tools["ticket_board"](context.Background(), map[string]any{})
	require.NoError(t, err)
}

func TestTicketBoardToolHonorsExplicitIncludeTerminalFalse(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.False(t, opts.IncludeTerminal)
			return &service.BoardResult{View: view}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	_, err := host.tools["ticket_board"](context.Background(), map[string]any{"include_terminal": false})
	require.NoError(t, err)
}

func TestTicketSearchToolValidatesEmptyQuery(t *testing.T) {
	fake := &servicetest.Fake{
		SearchFn: func(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]service.SearchHit, *errs.AppError) {
			return nil, errs.NewValidation("search query is required")
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket_search"](context.Background(), map[string]any{"query": ""})
	require.NoError(t, err)
	assert.Equal(t, string(errs.KindValidation), result["error"])
}

func TestTicketLinkToolAddAndConflict(t *testing.T) {
	fake := &servicetest.Fake{
		LinkAddFn: func(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError) {
			return nil, errs.NewConflict("link already exists")
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket_link"](context.Background(), map[string]any{
		"action": "add", "source_id": float64(1), "target_id": float64(2), "link_type": "blocks",
	})
	require.NoError(t, err)
	assert.Equal(t, string(errs.KindConflict), result["error"])
}

func TestTicketToolArchiveDispatch(t *testing.T) {
	fake := &servicetest.Fake{
		ArchiveFn: func(ctx context.Context, ttlSeconds int64) (int, *errs.AppError) {
			assert.EqualValues(t, 3600, ttlSeconds)
			return 4, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{
		"action": "archive", "ttl_seconds": float64(3600),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, result["archived"])
}

func TestTicketToolBatchMoveDispatch(t *testing.T) {
	fake := &servicetest.Fake{
		BatchTransitionFn: func(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
			assert.Equal(t, []int64{1, 2, 3}, ids)
			assert.Equal(t, "in_progress", targetStatus)
			assert.False(t, confirm)
			return &service.BatchResult{Action: "batch_move", Total: 3, Succeeded: 3, DryRun: true}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{
		"action": "batch_move", "ticket_ids": []any{float64(1), float64(2), float64(3)}, "status": "in_progress",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, result["succeeded"])
	assert.Equal(t, true, result["dry_run"])
}

func TestTicketToolBatchMoveRequiresTicketIDsAndStatus(t *testing.T) {
	host := &fakeHost{}
	Bind(host, depsWith(&servicetest.Fake{}))

	result, err := host.tools["ticket"](context.Background(), map[string]any{"action": "batch_move"})
	require.NoError(t, err)
	assert.Equal(t, string(errs.KindValidation), result["error"])
}

func TestTicketToolBatchCloseDispatch(t *testing.T) {
	fake := &servicetest.Fake{
		BatchCloseFn: func(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
			assert.Equal(t, []int64{4, 5}, ids)
			assert.True(t, confirm)
			return &service.BatchResult{Action: "batch_close", Total: 2, Succeeded: 2, DryRun: false}, nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket"](context.Background(), map[string]any{
		"action": "batch_close", "ticket_ids": "4,5", "confirm": true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result["succeeded"])
	assert.Equal(t, false, result["dry_run"])
}

func TestTicketLinkToolRemove(t *testing.T) {
	removed := false
	fake := &servicetest.Fake{
		LinkRemoveFn: func(ctx context.Context, linkID int64) *errs.AppError {
			removed = true
			assert.EqualValues(t, 5, linkID)
			return nil
		},
	}
	host := &fakeHost{}
	Bind(host, depsWith(fake))

	result, err := host.tools["ticket_link"](context.Background(), map[string]any{
		"action": "remove", "link_id": float64(5),
	})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, true, result["removed"])
}
