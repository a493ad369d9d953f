package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vitrinet/internal/domain/entity"
	"vitrinet/internal/domain/repository"
)

type AdminMiddleware struct {
	actorRepo repository.ActorRepository
}

func NewAdminMiddleware(actorRepo repository.ActorRepository) *AdminMiddleware {
	return &AdminMiddleware{
		actorRepo: actorRepo,
	}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		actor, err := m.actorRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify admin privileges")
		}

		if actor.Role != entity.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}

		return next(c)
	}
}
