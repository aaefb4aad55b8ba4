package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  publicUser `json:"user"`
}

type publicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toPublicUser(u domain.User) publicUser {
	p := publicUser{ID: u.ID, Email: u.Email}
	if !u.CreatedAt.IsZero() {
		p.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// SignupHandler registers an account and returns a token.
func SignupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "Email and password are required")
		}
		res, err := deps.Auth.Signup(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeError(c, err, "Signup failed")
		}
		return c.Status(fiber.StatusCreated).JSON(authResponse{Token: res.Token, User: toPublicUser(res.User)})
	}
}

// LoginHandler exchanges credentials for a token.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "Email and password are required")
		}
		res, err := deps.Auth.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeError(c, err, "Login failed")
		}
		return c.JSON(authResponse{Token: res.Token, User: toPublicUser(res.User)})
	}
}

// MeHandler returns the caller's account.
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := deps.Auth.Me(c.UserContext(), sessionFrom(c))
		if err != nil {
			return writeError(c, err, "Failed to load user")
		}
		return c.JSON(fiber.Map{"user": toPublicUser(*user)})
	}
}

// LogoutHandler revokes the caller's token.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Auth.Logout(c.UserContext(), sessionFrom(c)); err != nil {
			return writeError(c, err, "Logout failed")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type planRequest struct {
	Location string `json:"location"`
	Type     string `json:"type"`
	Extras   bool   `json:"extras"`
}

// PlanHandler runs the planning pipeline for a free-text location. With
// "extras" the result also carries a forecast and a picture when available.
func PlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Location) == "" {
			return errBadRequest(c, "Location is required")
		}
		typ, err := domain.ParseActivity(req.Type)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		sess := sessionFrom(c)
		if req.Extras {
			res, err := deps.Planner.PlanWithExtras(c.UserContext(), sess, req.Location, typ)
			if err != nil {
				return writeError(c, err, "Planning failed")
			}
			return c.JSON(res)
		}
		plan, err := deps.Planner.Plan(c.UserContext(), sess, req.Location, typ)
		if err != nil {
			return writeError(c, err, "Planning failed")
		}
		return c.JSON(plan)
	}
}

// CreateTripHandler stores a trip for the caller.
func CreateTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NewTrip
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		trip, err := deps.Trips.Save(c.UserContext(), sessionFrom(c), in)
		if err != nil {
			return writeError(c, err, "Failed to save trip")
		}
		c.Location("/api/trips/" + trip.ID)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Trip saved successfully",
			"trip":    trip,
		})
	}
}

// ListTripsHandler returns the caller's trips, newest first.
func ListTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := parsePage(c)

		trips, total, err := deps.Trips.List(c.UserContext(), sessionFrom(c), limit, offset)
		if err != nil {
			return writeError(c, err, "Failed to fetch trips")
		}
		if trips == nil {
			trips = []domain.TripSummary{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: trips, Pagination: pg})
	}
}

// GetTripHandler returns one of the caller's trips.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Trips.Get(c.UserContext(), sessionFrom(c), c.Params("id"))
		if err != nil {
			return writeError(c, err, "Failed to fetch trip")
		}
		return c.JSON(trip)
	}
}

// TripGPXHandler downloads one of the caller's trips as GPX.
func TripGPXHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, trip, err := deps.Trips.ExportGPX(c.UserContext(), sessionFrom(c), c.Params("id"))
		if err != nil {
			return writeError(c, err, "Failed to export trip")
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.gpx"`, trip.ID))
		return c.Send(data)
	}
}
