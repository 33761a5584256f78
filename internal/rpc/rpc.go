// Package rpc implements ticketcore's tool-call RPC facade: four named
// operations dispatching on an action string, grounded on spec.md §4.3.
// Actions are represented as an enumerated tag switched over in Go,
// never as a stringly-typed lookup table, per spec.md §9's design note.
package rpc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ticketcore/ticketcore/internal/core"
	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/service"
)

// ToolFunc is the signature the host's RPC dispatcher invokes.
type ToolFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Host is the subset of the host's RPC registry ticketcore needs.
type Host interface {
	RegisterTool(name string, fn ToolFunc)
}

// Bind registers the four RPC operations onto host, per spec.md §4.3.
func Bind(host Host, deps core.Deps) {
	host.RegisterTool("ticket", ticketTool(deps))
	host.RegisterTool("ticket_board", ticketBoardTool(deps))
	host.RegisterTool("ticket_search", ticketSearchTool(deps))
	host.RegisterTool("ticket_link", ticketLinkTool(deps))
}

type ticketAction string

const (
	actionCreate     ticketAction = "create"
	actionGet        ticketAction = "get"
	actionList       ticketAction = "list"
	actionUpdate     ticketAction = "update"
	actionMove       ticketAction = "move"
	actionClose      ticketAction = "close"
	actionArchive    ticketAction = "archive"
	actionBatchMove  ticketAction = "batch_move"
	actionBatchClose ticketAction = "batch_close"
)

type linkAction string

const (
	linkActionAdd    linkAction = "add"
	linkActionList   linkAction = "list"
	linkActionRemove linkAction = "remove"
)

// errorResult is the shape every facade returns on a raised error
// instead of propagating it, per spec.md §4.3.
func errorResult(ae *errs.AppError) map[string]any {
	return map[string]any{"error": string(ae.Kind), "message": ae.Message}
}

func ticketTool(deps core.Deps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		svc, release, verr := deps.Resolve(ctx, stringArg(args, "project"))
		if verr != nil {
			return errorResult(verr), nil
		}
		defer release()

		switch ticketAction(stringArg(args, "action")) {
		case actionCreate:
			return dispatchCreate(ctx, svc, args)
		case actionGet:
			return dispatchGet(ctx, svc, args)
		case actionList:
			return dispatchList(ctx, svc, args)
		case actionUpdate:
			return dispatchUpdate(ctx, svc, args)
		case actionMove:
			return dispatchMove(ctx, svc, args)
		case actionClose:
			return dispatchClose(ctx, svc, args)
		case actionArchive:
			return dispatchArchive(ctx, svc, args)
		case actionBatchMove:
			return dispatchBatchMove(ctx, svc, args)
		case actionBatchClose:
			return dispatchBatchClose(ctx, svc, args)
		default:
			return errorResult(errs.NewValidation("unknown action %q", stringArg(args, "action"))), nil
		}
	}
}

func dispatchCreate(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	in := service.CreateInput{
		Type:        stringArg(args, "type"),
		Title:       stringArg(args, "title"),
		Description: optionalStringArg(args, "description"),
		Priority:    stringArg(args, "priority"),
		Assignee:    optionalStringArg(args, "assignee"),
		Reporter:    optionalStringArg(args, "reporter"),
		Tags:        stringSliceArg(args, "tags"),
		Metadata:    mapArg(args, "metadata"),
		SessionID:   optionalStringArg(args, "session_id"),
	}
	t, verr := svc.Create(ctx, in)
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(t), nil
}

func dispatchGet(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	id, ok := idArg(args, "id")
	if !ok {
		return errorResult(errs.NewValidation("id is required")), nil
	}
	d, verr := svc.Get(ctx, id)
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(d), nil
}

func dispatchList(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	f := service.ListFilters{
		Type:            optionalStringArg(args, "type"),
		Status:          optionalStringArg(args, "status"),
		Priority:        optionalStringArg(args, "priority"),
		Assignee:        optionalStringArg(args, "assignee"),
		Tags:            stringSliceArg(args, "tags"),
		Limit:           intArg(args, "limit"),
		Offset:          intArg(args, "offset"),
		IncludeArchived: boolArg(args, "include_archived"),
	}
	rows, verr := svc.List(ctx, f)
	if verr != nil {
		return errorResult(verr), nil
	}
	return map[string]any{"tickets": rows}, nil
}

func dispatchUpdate(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	id, ok := idArg(args, "id")
	if !ok {
		return errorResult(errs.NewValidation("id is required")), nil
	}
	fields, _ := args["fields"].(map[string]any)
	t, verr := svc.Update(ctx, id, fields, optionalStringArg(args, "changed_by"))
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(t), nil
}

func dispatchMove(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	id, ok := idArg(args, "id")
	if !ok {
		return errorResult(errs.NewValidation("id is required")), nil
	}
	t, verr := svc.Transition(ctx, id, stringArg(args, "status"), optionalStringArg(args, "changed_by"))
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(t), nil
}

func dispatchClose(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	id, ok := idArg(args, "id")
	if !ok {
		return errorResult(errs.NewValidation("id is required")), nil
	}
	t, verr := svc.Close(ctx, id, optionalStringArg(args, "changed_by"))
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(t), nil
}

func dispatchArchive(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	ttl := int64(intArg(args, "ttl_seconds"))
	count, verr := svc.Archive(ctx, ttl)
	if verr != nil {
		return errorResult(verr), nil
	}
	return map[string]any{"archived": count}, nil
}

// dispatchBatchMove moves every id in ticket_ids to status. confirm
// defaults to false (preview only), per batch_move in
// original_source/stompy_ticketing/mcp_tools.go.
func dispatchBatchMove(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	ids, ok := idsArg(args, "ticket_ids")
	if !ok || len(ids) == 0 {
		return errorResult(errs.NewValidation("ticket_ids is required for batch_move")), nil
	}
	status := stringArg(args, "status")
	if status == "" {
		return errorResult(errs.NewValidation("status is required for batch_move")), nil
	}
	result, verr := svc.BatchTransition(ctx, ids, status, boolArg(args, "confirm"), optionalStringArg(args, "changed_by"))
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(result), nil
}

// dispatchBatchClose closes every id in ticket_ids, auto-resolving each
// to its preferred terminal status. confirm defaults to false.
func dispatchBatchClose(ctx context.Context, svc service.TicketServicer, args map[string]any) (map[string]any, error) {
	ids, ok := idsArg(args, "ticket_ids")
	if !ok || len(ids) == 0 {
		return errorResult(errs.NewValidation("ticket_ids is required for batch_close")), nil
	}
	result, verr := svc.BatchClose(ctx, ids, boolArg(args, "confirm"), optionalStringArg(args, "changed_by"))
	if verr != nil {
		return errorResult(verr), nil
	}
	return toMap(result), nil
}

func ticketBoardTool(deps core.Deps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		svc, release, verr := deps.Resolve(ctx, stringArg(args, "project"))
		if verr != nil {
			return errorResult(verr), nil
		}
		defer release()

		view := stringArg(args, "view")
		if view == "" {
			view = "kanban"
		}
		opts := service.BoardOptions{
			// Defaults to true: spec.md §4.2's board() returns every declared
			// status as a bucket, empty ones included, unless the caller
			// opts out. Only an explicit include_terminal=false narrows it.
			IncludeTerminal: boolArgDefault(args, "include_terminal", true),
			IncludeArchived: boolArg(args, "include_archived"),
		}
		result, verr := svc.Board(ctx, view, optionalStringArg(args, "type"), opts)
		if verr != nil {
			return errorResult(verr), nil
		}
		return toMap(result), nil
	}
}

func ticketSearchTool(deps core.Deps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		svc, release, verr := deps.Resolve(ctx, stringArg(args, "project"))
		if verr != nil {
			return errorResult(verr), nil
		}
		defer release()

		hits, verr := svc.Search(ctx, stringArg(args, "query"), optionalStringArg(args, "type"),
			optionalStringArg(args, "status"), intArg(args, "limit"), boolArg(args, "include_archived"))
		if verr != nil {
			return errorResult(verr), nil
		}
		return map[string]any{"results": hits}, nil
	}
}

func ticketLinkTool(deps core.Deps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		svc, release, verr := deps.Resolve(ctx, stringArg(args, "project"))
		if verr != nil {
			return errorResult(verr), nil
		}
		defer release()

		switch linkAction(stringArg(args, "action")) {
		case linkActionAdd:
			sourceID, ok1 := idArg(args, "source_id")
			targetID, ok2 := idArg(args, "target_id")
			if !ok1 || !ok2 {
				return errorResult(errs.NewValidation("source_id and target_id are required")), nil
			}
			l, verr := svc.LinkAdd(ctx, sourceID, targetID, stringArg(args, "link_type"))
			if verr != nil {
				return errorResult(verr), nil
			}
			return toMap(l), nil
		case linkActionList:
			id, ok := idArg(args, "id")
			if !ok {
				return errorResult(errs.NewValidation("id is required")), nil
			}
			outgoing, incoming, verr := svc.LinkList(ctx, id)
			if verr != nil {
				return errorResult(verr), nil
			}
			return map[string]any{"outgoing": outgoing, "incoming": incoming}, nil
		case linkActionRemove:
			id, ok := idArg(args, "link_id")
			if !ok {
				return errorResult(errs.NewValidation("link_id is required")), nil
			}
			if verr := svc.LinkRemove(ctx, id); verr != nil {
				return errorResult(verr), nil
			}
			return map[string]any{"removed": true}, nil
		default:
			return errorResult(errs.NewValidation("unknown action %q", stringArg(args, "action"))), nil
		}
	}
}

// toMap round-trips v through JSON to get the plain serializable map the
// facade contract (spec.md §4.3) promises.
func toMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func optionalStringArg(args map[string]any, key string) *string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapArg(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func boolArgDefault(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// idsArg parses ticket_ids as either a JSON array of numbers/strings or
// a comma-separated string, matching the original's dual acceptance of
// a list and a "1,2,3" string (original_source/stompy_ticketing/mcp_tools.py).
func idsArg(args map[string]any, key string) ([]int64, bool) {
	raw, ok := args[key]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			id, ok := idFromAny(item)
			if !ok {
				return nil, false
			}
			out = append(out, id)
		}
		return out, true
	case string:
		parts := strings.Split(v, ",")
		out := make([]int64, 0, len(parts))
		for _, p := range parts {
			id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, false
			}
			out = append(out, id)
		}
		return out, true
	default:
		return nil, false
	}
}

func idFromAny(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func idArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
