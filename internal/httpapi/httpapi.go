// Package httpapi implements ticketcore's REST facade: the ten
// endpoints spec.md §4.4 names plus SPEC_FULL.md's archive and batch
// supplements, mounted under /projects/{name}/tickets, grounded on the
// teacher's gin handler conventions
// (psds-microservice-ticket-service/internal/handler/ticket.go).
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ticketcore/ticketcore/internal/core"
	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/service"
)

// Host is the subset of the host's HTTP router ticketcore needs. configure
// receives a router group already scoped to prefix.
type Host interface {
	Mount(prefix string, configure func(*gin.RouterGroup))
}

// Mount registers the ten endpoints of spec.md §4.4 plus the archive
// and batch supplements of SPEC_FULL.md §4.4, under
// /projects/{name}/tickets.
func Mount(host Host, deps core.Deps) {
	host.Mount("/projects/:name/tickets", func(g *gin.RouterGroup) {
		g.Use(requestID())
		g.POST("", create(deps))
		g.GET("", list(deps))
		g.GET("/board", board(deps))
		g.GET("/search", search(deps))
		g.POST("/archive", archive(deps))
		g.POST("/batch/move", batchMove(deps))
		g.POST("/batch/close", batchClose(deps))
		g.GET("/:id", get(deps))
		g.PUT("/:id", update(deps))
		g.POST("/:id/move", move(deps))
		g.POST("/:id/links", linkAdd(deps))
		g.GET("/:id/links", linkList(deps))
		g.DELETE("/:id/links/:link_id", linkRemove(deps))
	})
}

func fail(c *gin.Context, ae *errs.AppError) {
	c.JSON(ae.HTTPStatus(), gin.H{"error": string(ae.Kind), "message": ae.Message})
}

func resolve(c *gin.Context, deps core.Deps) (service.TicketServicer, func(), bool) {
	svc, release, verr := deps.Resolve(c.Request.Context(), c.Param("name"))
	if verr != nil {
		fail(c, verr)
		return nil, nil, false
	}
	return svc, release, true
}

func pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		fail(c, errs.NewValidation("%s must be an integer", param))
		return 0, false
	}
	return id, true
}

type createRequest struct {
	Type        string         `json:"type" binding:"required,ticket_type"`
	Title       string         `json:"title" binding:"required"`
	Description *string        `json:"description"`
	Priority    string         `json:"priority" binding:"priority"`
	Assignee    *string        `json:"assignee"`
	Reporter    *string        `json:"reporter"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
	SessionID   *string        `json:"session_id"`
}

func create(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		t, verr := svc.Create(c.Request.Context(), service.CreateInput{
			Type: req.Type, Title: req.Title, Description: req.Description,
			Priority: req.Priority, Assignee: req.Assignee, Reporter: req.Reporter,
			Tags: req.Tags, Metadata: req.Metadata, SessionID: req.SessionID,
		})
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func get(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		d, verr := svc.Get(c.Request.Context(), id)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func list(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		f := service.ListFilters{
			Type:            queryOptionalString(c, "type"),
			Status:          queryOptionalString(c, "status"),
			Priority:        queryOptionalString(c, "priority"),
			Assignee:        queryOptionalString(c, "assignee"),
			Tags:            queryStringSlice(c, "tags"),
			Limit:           queryInt(c, "limit"),
			Offset:          queryInt(c, "offset"),
			IncludeArchived: c.Query("include_archived") == "true",
		}
		rows, verr := svc.List(c.Request.Context(), f)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": rows})
	}
}

func board(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		view := c.DefaultQuery("view", "kanban")
		opts := service.BoardOptions{
			// Defaults to true: spec.md §4.2's board() returns every
			// declared status as a bucket, empty ones included, unless the
			// caller opts out with include_terminal=false explicitly.
			IncludeTerminal: c.DefaultQuery("include_terminal", "true") != "false",
			IncludeArchived: c.Query("include_archived") == "true",
		}
		result, verr := svc.Board(c.Request.Context(), view, queryOptionalString(c, "type"), opts)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func search(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		hits, verr := svc.Search(c.Request.Context(), c.Query("query"), queryOptionalString(c, "type"),
			queryOptionalString(c, "status"), queryInt(c, "limit"), c.Query("include_archived") == "true")
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": hits})
	}
}

func archive(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		var req struct {
			TTLSeconds int64 `json:"ttl_seconds"`
		}
		_ = c.ShouldBindJSON(&req)
		count, verr := svc.Archive(c.Request.Context(), req.TTLSeconds)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"archived": count})
	}
}

type batchMoveRequest struct {
	TicketIDs []int64 `json:"ticket_ids" binding:"required"`
	Status    string  `json:"status" binding:"required"`
	Confirm   bool    `json:"confirm"`
	ChangedBy *string `json:"changed_by"`
}

// batchMove previews or executes moving every listed ticket to Status,
// grounded on batch_move in original_source/stompy_ticketing/mcp_tools.py.
// Confirm defaults to false (preview only).
func batchMove(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		var req batchMoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		result, verr := svc.BatchTransition(c.Request.Context(), req.TicketIDs, req.Status, req.Confirm, req.ChangedBy)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type batchCloseRequest struct {
	TicketIDs []int64 `json:"ticket_ids" binding:"required"`
	Confirm   bool    `json:"confirm"`
	ChangedBy *string `json:"changed_by"`
}

// batchClose previews or executes closing every listed ticket via its
// preferred terminal status, grounded on batch_close in
// original_source/stompy_ticketing/mcp_tools.py.
func batchClose(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		var req batchCloseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		result, verr := svc.BatchClose(c.Request.Context(), req.TicketIDs, req.Confirm, req.ChangedBy)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type updateRequest struct {
	Fields    map[string]any `json:"fields" binding:"required"`
	ChangedBy *string        `json:"changed_by"`
}

func update(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		t, verr := svc.Update(c.Request.Context(), id, req.Fields, req.ChangedBy)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type moveRequest struct {
	Status    string  `json:"status" binding:"required"`
	ChangedBy *string `json:"changed_by"`
}

func move(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req moveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		t, verr := svc.Transition(c.Request.Context(), id, req.Status, req.ChangedBy)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type linkAddRequest struct {
	TargetID int64  `json:"target_id" binding:"required"`
	LinkType string `json:"link_type" binding:"required,link_type"`
}

func linkAdd(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req linkAddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, errs.NewValidation("%s", err.Error()))
			return
		}
		l, verr := svc.LinkAdd(c.Request.Context(), id, req.TargetID, req.LinkType)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusCreated, l)
	}
}

func linkList(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		outgoing, incoming, verr := svc.LinkList(c.Request.Context(), id)
		if verr != nil {
			fail(c, verr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"outgoing": outgoing, "incoming": incoming})
	}
}

func linkRemove(deps core.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, release, ok := resolve(c, deps)
		if !ok {
			return
		}
		defer release()

		linkID, ok := pathID(c, "link_id")
		if !ok {
			return
		}
		if verr := svc.LinkRemove(c.Request.Context(), linkID); verr != nil {
			fail(c, verr)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func queryOptionalString(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func queryStringSlice(c *gin.Context, key string) []string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
