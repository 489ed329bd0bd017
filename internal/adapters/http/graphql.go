package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"routelayer/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the layer service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min": &graphql.Field{Type: geoPointType},
			"max": &graphql.Field{Type: geoPointType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"start":     &graphql.Field{Type: geoPointType},
			"end":       &graphql.Field{Type: geoPointType},
			"waypoints": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"travel_mode": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r, ok := p.Source.(domain.RouteSnapshot); ok {
						return string(r.TravelMode), nil
					}
					return nil, nil
				},
			},
			"avoid_ferries":      &graphql.Field{Type: graphql.Boolean},
			"avoid_highways":     &graphql.Field{Type: graphql.Boolean},
			"avoid_tolls":        &graphql.Field{Type: graphql.Boolean},
			"optimize_waypoints": &graphql.Field{Type: graphql.Boolean},
			"show_markers":       &graphql.Field{Type: graphql.Boolean},
			"show_route":         &graphql.Field{Type: graphql.Boolean},
			"bounds":             &graphql.Field{Type: boundsType},
			"route_status":       &graphql.Field{Type: graphql.String},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"route":      &graphql.Field{Type: routeType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"layer": &graphql.Field{
				Type:        layerType,
				Description: "Get a directions layer by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Layers.Get(p.Context, id)
				},
			},
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "List directions layers",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					recs, _, err := deps.Layers.List(p.Context, limit, offset)
					return recs, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
