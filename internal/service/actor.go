package service

import (
	"enquiry-backend/pkg/apperr"

	"github.com/gin-gonic/gin"

	"enquiry-backend/internal/middleware"
)

// Actor is the pre-verified subject identity attached to a request by the
// auth middleware. Services never parse credentials themselves.
type Actor struct {
	ID   string
	Role string
}

// ActorFromContext rebuilds the Actor from the gin context values the auth
// middleware stored.
func ActorFromContext(c *gin.Context) Actor {
	id, _ := c.Get(middleware.CtxUserID)
	role, _ := c.Get(middleware.CtxUserRole)

	actor := Actor{}
	if s, ok := id.(string); ok {
		actor.ID = s
	}
	if s, ok := role.(string); ok {
		actor.Role = s
	}
	return actor
}

// requireRole is the single capability check performed at the entry of each
// role-gated operation.
func requireRole(actor Actor, allowed ...string) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperr.Forbidden()
}

// Broadcast event names pushed to connected clients
const (
	EventNewEnquiry         = "new_enquiry"
	EventProcurementUpdated = "procurement_updated"
)

// Notifier fans lifecycle events out to connected clients. Publication is
// fire-and-forget and happens strictly after the durable write.
type Notifier interface {
	Publish(event string, data interface{})
}
