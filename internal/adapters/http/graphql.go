package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// errGraphQLAuth is surfaced to GraphQL callers without a valid token.
var errGraphQLAuth = errors.New("Authentication required")

type gqlSessionKey struct{}

func gqlSession(p graphql.ResolveParams) (*domain.Session, error) {
	sess, _ := p.Context.Value(gqlSessionKey{}).(*domain.Session)
	if sess == nil {
		return nil, errGraphQLAuth
	}
	return sess, nil
}

// publicError hides internal failures behind the messages the REST API uses.
func publicError(err error) error {
	var pf *domain.PlanningFailedError
	switch {
	case errors.As(err, &pf):
		return errors.New(pf.Error())
	case errors.Is(err, domain.ErrTripNotFound):
		return errors.New("Trip not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return errGraphQLAuth
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyLocation):
		return err
	}
	return errors.New("internal error")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoutePoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	routeDayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteDay",
		Fields: graphql.Fields{
			"day":        &graphql.Field{Type: graphql.Int},
			"distanceKm": &graphql.Field{Type: graphql.Float},
			"points":     &graphql.Field{Type: graphql.NewList(pointType)},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch t := p.Source.(type) {
					case *domain.Trip:
						return t.ID, nil
					case domain.TripSummary:
						return t.ID, nil
					}
					return nil, nil
				},
			},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"distanceKm": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch t := p.Source.(type) {
					case *domain.Trip:
						return t.DistanceKm(), nil
					case domain.TripSummary:
						return t.DistanceKm, nil
					}
					return nil, nil
				},
			},
			"route": &graphql.Field{Type: graphql.NewList(routeDayType)},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch t := p.Source.(type) {
					case *domain.Trip:
						return formatTime(t.CreatedAt), nil
					case domain.TripSummary:
						return formatTime(t.CreatedAt), nil
					}
					return nil, nil
				},
			},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TripPlan",
		Fields: graphql.Fields{
			"location":          &graphql.Field{Type: graphql.String},
			"type":              &graphql.Field{Type: graphql.String},
			"route":             &graphql.Field{Type: graphql.NewList(coordinateType)},
			"total_distance_km": &graphql.Field{Type: graphql.Float},
			"days_required":     &graphql.Field{Type: graphql.Int},
			"km_per_day":        &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trips": &graphql.Field{
				Type:        graphql.NewList(tripType),
				Description: "The caller's saved trips, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageSize},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := gqlSession(p)
					if err != nil {
						return nil, err
					}
					trips, _, err := deps.Trips.List(p.Context, sess, p.Args["limit"].(int), p.Args["offset"].(int))
					if err != nil {
						return nil, publicError(err)
					}
					return trips, nil
				},
			},
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "One of the caller's trips",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := gqlSession(p)
					if err != nil {
						return nil, err
					}
					trip, err := deps.Trips.Get(p.Context, sess, p.Args["id"].(string))
					if err != nil {
						return nil, publicError(err)
					}
					return trip, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"planTrip": &graphql.Field{
				Type:        planType,
				Description: "Plan a hike or bike trip around a place",
				Args: graphql.FieldConfigArgument{
					"location": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := gqlSession(p)
					if err != nil {
						return nil, err
					}
					typ, err := domain.ParseActivity(p.Args["type"].(string))
					if err != nil {
						return nil, err
					}
					plan, err := deps.Planner.Plan(p.Context, sess, p.Args["location"].(string), typ)
					if err != nil {
						return nil, publicError(err)
					}
					return plan, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint. Every field requires a bearer
// token; resolvers report a missing session as a field error.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		if tok := bearerToken(c); tok != "" {
			if sess, err := deps.Auth.Authenticate(ctx, tok); err == nil {
				ctx = context.WithValue(ctx, gqlSessionKey{}, sess)
			}
		}
		ctx, cancel := context.WithTimeout(ctx, deps.planTimeout())
		defer cancel()

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
