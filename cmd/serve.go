package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/spf13/cobra"

	"github.com/ticketcore/ticketcore"
	"github.com/ticketcore/ticketcore/internal/config"
	"github.com/ticketcore/ticketcore/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot a demo host embedding ticketcore, for local smoke testing",
	RunE:  runServe,
}

// ginHost adapts *gin.Engine to ticketcore.HTTPHost, grounded on the
// teacher's router.go route-group-per-resource layout.
type ginHost struct {
	engine *gin.Engine
}

func (h ginHost) Mount(prefix string, configure func(*gin.RouterGroup)) {
	configure(h.engine.Group(prefix))
}

// toolRegistry adapts an in-memory map to ticketcore.RPCHost, standing in
// for whatever tool-call dispatcher a real host provides. The demo host
// also exposes it over HTTP at /rpc/:tool so it can be smoke-tested with
// curl without a real RPC transport.
type toolRegistry struct {
	tools map[string]ticketcore.ToolFunc
}

func newToolRegistry() *toolRegistry {
	return &toolRegistry{tools: map[string]ticketcore.ToolFunc{}}
}

func (r *toolRegistry) RegisterTool(name string, fn ticketcore.ToolFunc) {
	r.tools[name] = fn
}

func (r *toolRegistry) mount(engine *gin.Engine) {
	engine.POST("/rpc/:tool", func(c *gin.Context) {
		fn, ok := r.tools[c.Param("tool")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown tool"})
			return
		}
		var args map[string]any
		_ = c.ShouldBindJSON(&args)
		result, err := fn(c.Request.Context(), args)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(cfg.LogLevel)
	log := logging.WithComponent("serve")

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	getDB := func(ctx context.Context, project string) (*gorm.DB, func(), error) {
		return db.WithContext(ctx), func() {}, nil
	}
	checkProject := func(project string) error {
		if project != cfg.Project {
			return fmt.Errorf("unknown project %q", project)
		}
		return nil
	}
	getProject := func(project string) (string, error) {
		return project, nil
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/openapi.json", func(c *gin.Context) { c.File("api/openapi.json") })
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	tools := newToolRegistry()
	tools.mount(engine)

	result := ticketcore.Register(tools, ginHost{engine: engine}, getDB, checkProject, getProject, nil,
		ticketcore.WithMigrationOffset(cfg.MigrationOffset))
	log.Info("ticketcore registered", "migrations", len(result.Migrations), "project", cfg.Project)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("listening", "addr", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
