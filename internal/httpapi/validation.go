package httpapi

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ticketcore/ticketcore/internal/model"
	"github.com/ticketcore/ticketcore/internal/statemachine"
)

// init registers the closed-set enum tags gin's default binder (backed by
// go-playground/validator/v10) applies to request structs, grounded on
// orris-inc-orris/internal/shared/utils/validation.go's RegisterValidation
// pattern. The service layer still re-validates independently — these
// exist to reject malformed requests at the HTTP boundary with a 400
// before the service is ever called.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("ticket_type", func(fl validator.FieldLevel) bool {
		return statemachine.TicketType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.Priority(s).Valid()
	})
	_ = v.RegisterValidation("link_type", func(fl validator.FieldLevel) bool {
		return model.LinkType(fl.Field().String()).Valid()
	})
}
