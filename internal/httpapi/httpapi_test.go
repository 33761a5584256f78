package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/core"
	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/service"
	"github.com/ticketcore/ticketcore/internal/service/servicetest"
)

type ginHost struct {
	engine *gin.Engine
}

func (h ginHost) Mount(prefix string, configure func(*gin.RouterGroup)) {
	configure(h.engine.Group(prefix))
}

func routerWith(fake *servicetest.Fake) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	deps := core.Deps{
		GetDB: func(ctx context.Context, project string) (*gorm.DB, func(), error) {
			return nil, func() {}, nil
		},
		NewServicer: func(db *gorm.DB, schema string) service.TicketServicer { return fake },
	}
	Mount(ginHost{engine: engine}, deps)
	return engine
}

func do(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateTicketSuccess(t *testing.T) {
	fake := &servicetest.Fake{
		CreateFn: func(ctx context.Context, in service.CreateInput) (*model.Ticket, *errs.AppError) {
			assert.Equal(t, "task", in.Type)
			return &model.Ticket{ID: 1, Type: in.Type, Title: in.Title, Status: "backlog"}, nil
		},
	}
	w := do(routerWith(fake), http.MethodPost, "/projects/acme/tickets", map[string]any{
		"type": "task", "title": "Ship it",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var got model.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "backlog", got.Status)
}

func TestCreateTicketRejectsUnknownType(t *testing.T) {
	w := do(routerWith(&servicetest.Fake{}), http.MethodPost, "/projects/acme/tickets", map[string]any{
		"type": "widget", "title": "Ship it",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTicketMissingTitleRejected(t *testing.T) {
	w := do(routerWith(&servicetest.Fake{}), http.MethodPost, "/projects/acme/tickets", map[string]any{
		"type": "task",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTicketNotFoundMapsTo404(t *testing.T) {
	fake := &servicetest.Fake{
		GetFn: func(ctx context.Context, id int64) (*service.TicketDetail, *errs.AppError) {
			return nil, errs.NewNotFound("ticket %d not found", id)
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(errs.KindNotFound), body["error"])
}

func TestGetTicketBadIDRejected(t *testing.T) {
	w := do(routerWith(&servicetest.Fake{}), http.MethodGet, "/projects/acme/tickets/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveTicketInvalidTransitionMapsTo409(t *testing.T) {
	fake := &servicetest.Fake{
		TransitionFn: func(ctx context.Context, id int64, newStatus string, changedBy *string) (*model.Ticket, *errs.AppError) {
			return nil, errs.NewInvalidTransition("no edge")
		},
	}
	w := do(routerWith(fake), http.MethodPost, "/projects/acme/tickets/1/move", map[string]any{"status": "done"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLinkAddConflictMapsTo409(t *testing.T) {
	fake := &servicetest.Fake{
		LinkAddFn: func(ctx context.Context, sourceID, targetID int64, linkType string) (*model.Link, *errs.AppError) {
			return nil, errs.NewConflict("link already exists")
		},
	}
	w := do(routerWith(fake), http.MethodPost, "/projects/acme/tickets/1/links", map[string]any{
		"target_id": 2, "link_type": "blocks",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLinkAddRejectsUnknownLinkType(t *testing.T) {
	w := do(routerWith(&servicetest.Fake{}), http.MethodPost, "/projects/acme/tickets/1/links", map[string]any{
		"target_id": 2, "link_type": "nonsense",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoardDefaultsToKanbanView(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.Equal(t, "kanban", view)
			return &service.BoardResult{View: view}, nil
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/board", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBoardDefaultsIncludeTerminalTrue(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.True(t, opts.IncludeTerminal)
			return &service.BoardResult{View: view}, nil
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/board", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBoardHonorsExplicitIncludeTerminalFalse(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			assert.False(t, opts.IncludeTerminal)
			return &service.BoardResult{View: view}, nil
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/board?include_terminal=false", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatchMoveDryRunByDefault(t *testing.T) {
	fake := &servicetest.Fake{
		BatchTransitionFn: func(ctx context.Context, ids []int64, targetStatus string, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
			assert.Equal(t, []int64{1, 2}, ids)
			assert.Equal(t, "in_progress", targetStatus)
			assert.False(t, confirm)
			return &service.BatchResult{Action: "batch_move", Total: 2, Succeeded: 2, DryRun: true}, nil
		},
	}
	w := do(routerWith(fake), http.MethodPost, "/projects/acme/tickets/batch/move", map[string]any{
		"ticket_ids": []int64{1, 2}, "status": "in_progress",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var got service.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.DryRun)
}

func TestBatchCloseConfirmExecutes(t *testing.T) {
	fake := &servicetest.Fake{
		BatchCloseFn: func(ctx context.Context, ids []int64, confirm bool, changedBy *string) (*service.BatchResult, *errs.AppError) {
			assert.True(t, confirm)
			return &service.BatchResult{Action: "batch_close", Total: 1, Succeeded: 1, DryRun: false}, nil
		},
	}
	w := do(routerWith(fake), http.MethodPost, "/projects/acme/tickets/batch/close", map[string]any{
		"ticket_ids": []int64{9}, "confirm": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatchMoveMissingTicketIDsRejected(t *testing.T) {
	w := do(routerWith(&servicetest.Fake{}), http.MethodPost, "/projects/acme/tickets/batch/move", map[string]any{
		"status": "in_progress",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEmptyQueryMapsTo400(t *testing.T) {
	fake := &servicetest.Fake{
		SearchFn: func(ctx context.Context, query string, typeFilter, statusFilter *string, limit int, includeArchived bool) ([]service.SearchHit, *errs.AppError) {
			return nil, errs.NewValidation("search query is required")
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/search?query=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkRemoveNoContent(t *testing.T) {
	fake := &servicetest.Fake{
		LinkRemoveFn: func(ctx context.Context, linkID int64) *errs.AppError {
			assert.EqualValues(t, 9, linkID)
			return nil
		},
	}
	w := do(routerWith(fake), http.MethodDelete, "/projects/acme/tickets/1/links/9", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	fake := &servicetest.Fake{
		BoardFn: func(ctx context.Context, view string, typeFilter *string, opts service.BoardOptions) (*service.BoardResult, *errs.AppError) {
			return &service.BoardResult{View: view}, nil
		},
	}
	w := do(routerWith(fake), http.MethodGet, "/projects/acme/tickets/board", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}
