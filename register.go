// Package ticketcore is the multi-tenant ticketing core: a server-side
// library managing the lifecycle, relationships, and searchability of
// work items stored in a relational database partitioned per project.
// Register is the single entry point by which a host attaches it.
// Grounded on spec.md §4.5 and §6, following the teacher's dependency
// injection shape (psds-microservice-ticket-service/internal/application).
package ticketcore

import (
	"github.com/ticketcore/ticketcore/internal/core"
	"github.com/ticketcore/ticketcore/internal/httpapi"
	"github.com/ticketcore/ticketcore/internal/migrations"
	"github.com/ticketcore/ticketcore/internal/rpc"
)

// RPCHost is the host's tool-call dispatcher. ToolFunc is the signature
// ticketcore registers against it.
type RPCHost = rpc.Host

// ToolFunc is the signature of a registered RPC operation.
type ToolFunc = rpc.ToolFunc

// HTTPHost is the host's router. Mount hands it a prefix and a
// configure callback scoped to that prefix.
type HTTPHost = httpapi.Host

// GetDB returns a scoped connection for project plus a release callback
// guaranteed to run on every exit path, per spec.md §6.
type GetDB = core.GetDB

// CheckProject is the validation gate; a non-nil return short-circuits
// every facade operation with a ValidationError.
type CheckProject = core.CheckProject

// GetProject resolves the host's notion of project into the stable name
// ticketcore uses to derive a schema.
type GetProject = core.GetProject

// ResolveSchema maps a project name onto a schema name. Pass nil to
// default to identity.
type ResolveSchema = core.ResolveSchema

// Result is Register's return value: the migration block the host must
// execute, and a function rendering the same DDL as a single script for
// projects created after boot.
type Result struct {
	Migrations    []migrations.Migration
	SchemaSQLFunc func(schema string) string
}

// Option configures Register. The only current option is the migration
// id offset; spec.md §3/§6 default it to 26.
type Option func(*registerConfig)

type registerConfig struct {
	offset int
}

// WithMigrationOffset overrides the default migration id offset (26).
func WithMigrationOffset(offset int) Option {
	return func(c *registerConfig) { c.offset = offset }
}

// Register binds ticketcore's RPC operations and HTTP endpoints onto the
// host, and returns the migration contract, per spec.md §4.5. It is
// synchronous and side-effect-free apart from the registrations it
// performs: it introduces no singletons, holding every dependency in the
// closures handed to rpcHost and httpHost (spec.md §9).
func Register(
	rpcHost RPCHost,
	httpHost HTTPHost,
	getDB GetDB,
	checkProject CheckProject,
	getProject GetProject,
	resolveSchema ResolveSchema,
	opts ...Option,
) *Result {
	cfg := registerConfig{offset: migrations.DefaultOffset}
	for _, opt := range opts {
		opt(&cfg)
	}

	deps := core.Deps{
		GetDB:         getDB,
		CheckProject:  checkProject,
		GetProject:    getProject,
		ResolveSchema: resolveSchema,
	}

	rpc.Bind(rpcHost, deps)
	httpapi.Mount(httpHost, deps)

	return &Result{
		Migrations: migrations.New(cfg.offset),
		SchemaSQLFunc: func(schema string) string {
			return migrations.SchemaSQL(schema)
		},
	}
}
