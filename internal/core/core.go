// Package core resolves a request's project into a bound ticket service
// and is shared by both facades (internal/rpc and internal/httpapi) so
// the host-callable contract (spec.md §6) is implemented exactly once.
package core

import (
	"context"

	"gorm.io/gorm"

	"github.com/ticketcore/ticketcore/internal/errs"
	"github.com/ticketcore/ticketcore/internal/service"
)

type requestIDKey struct{}

// WithRequestID carries a correlation id into ctx so the logging
// decorator can attach it to every service-layer error it reports.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the correlation id carried by ctx, or "" if none.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GetDB returns a scoped connection for project plus a release callback
// guaranteed to run on every exit path, per spec.md §6.
type GetDB func(ctx context.Context, project string) (*gorm.DB, func(), error)

// CheckProject is the validation gate; a non-nil return short-circuits
// the facade with a ValidationError.
type CheckProject func(project string) error

// GetProject resolves the host's notion of project into the stable name
// ticketcore uses to derive a schema.
type GetProject func(project string) (string, error)

// ResolveSchema maps a project name onto a schema name. Nil defaults to
// identity.
type ResolveSchema func(projectName string) string

// NewServicer constructs the ticket service bound to a connection and
// schema. Tests override this to inject a fake TicketServicer so no
// database is required.
type NewServicer func(db *gorm.DB, schema string) service.TicketServicer

// Deps bundles every host callable plus the service constructor. The
// zero value's ResolveSchema defaults to identity and NewServicer
// defaults to service.NewTicketService.
type Deps struct {
	GetDB         GetDB
	CheckProject  CheckProject
	GetProject    GetProject
	ResolveSchema ResolveSchema
	NewServicer   NewServicer
}

// Resolve runs the facade-entry sequence common to every RPC and HTTP
// operation: validate the project, resolve its name and schema, acquire
// a scoped connection, and bind a service to it. The caller must invoke
// the returned release func exactly once, on every exit path.
func (d Deps) Resolve(ctx context.Context, project string) (service.TicketServicer, func(), *errs.AppError) {
	if d.CheckProject != nil {
		if err := d.CheckProject(project); err != nil {
			return nil, nil, errs.NewValidation("%s", err.Error())
		}
	}

	name := project
	if d.GetProject != nil {
		n, err := d.GetProject(project)
		if err != nil {
			return nil, nil, errs.NewInternal(err, "resolve project")
		}
		name = n
	}

	schema := name
	if d.ResolveSchema != nil {
		schema = d.ResolveSchema(name)
	}

	db, release, err := d.GetDB(ctx, project)
	if err != nil {
		return nil, nil, errs.NewInternal(err, "acquire db connection")
	}

	newServicer := d.NewServicer
	if newServicer == nil {
		newServicer = func(db *gorm.DB, schema string) service.TicketServicer {
			return service.NewTicketService(db, schema)
		}
	}
	return withLogging(newServicer(db, schema), schema), release, nil
}
