package http

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema over the pothole services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat":  &graphql.Field{Type: graphql.Float},
			"long": &graphql.Field{Type: graphql.Float},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PotholeSummary",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.Int},
			"lat":     &graphql.Field{Type: graphql.Float},
			"long":    &graphql.Field{Type: graphql.Float},
			"reports": &graphql.Field{Type: graphql.Int},
		},
	})

	potholeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pothole",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.Int},
			"location":       &graphql.Field{Type: geoPointType},
			"reports":        &graphql.Field{Type: graphql.Int},
			"street":         &graphql.Field{Type: graphql.String},
			"city":           &graphql.Field{Type: graphql.String},
			"county":         &graphql.Field{Type: graphql.String},
			"createdAt":      &graphql.Field{Type: graphql.DateTime},
			"lastReportedAt": &graphql.Field{Type: graphql.DateTime},
			"expiresAt":      &graphql.Field{Type: graphql.DateTime},
		},
	})

	imageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Image",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"potholeId": &graphql.Field{Type: graphql.Int},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"url":       &graphql.Field{Type: graphql.String},
		},
	})

	nonNullFloat := graphql.NewNonNull(graphql.Float)

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"potholesInView": &graphql.Field{
				Type:        graphql.NewList(summaryType),
				Description: "Potholes inside a bounding box",
				Args: graphql.FieldConfigArgument{
					"minLat":  &graphql.ArgumentConfig{Type: nonNullFloat},
					"minLong": &graphql.ArgumentConfig{Type: nonNullFloat},
					"maxLat":  &graphql.ArgumentConfig{Type: nonNullFloat},
					"maxLong": &graphql.ArgumentConfig{Type: nonNullFloat},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						MinLat:  p.Args["minLat"].(float64),
						MinLong: p.Args["minLong"].(float64),
						MaxLat:  p.Args["maxLat"].(float64),
						MaxLong: p.Args["maxLong"].(float64),
					}
					if err := ValidateBounds(b); err != nil {
						return nil, err
					}
					return deps.Potholes.InView(p.Context, b)
				},
			},
			"potholesNear": &graphql.Field{
				Type:        graphql.NewList(summaryType),
				Description: "Potholes within radius meters of a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: nonNullFloat},
					"long":   &graphql.ArgumentConfig{Type: nonNullFloat},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Long: p.Args["long"].(float64)}
					if err := ValidatePoint(pt.Lat, pt.Long); err != nil {
						return nil, err
					}
					radius, _ := p.Args["radius"].(float64)
					if !(radius > 0) || math.IsInf(radius, 0) {
						return nil, &FieldError{Field: "radius", Reason: "radius must be a positive number"}
					}
					return deps.Potholes.Near(p.Context, pt, radius)
				},
			},
			"pothole": &graphql.Field{
				Type:        potholeType,
				Description: "Get a pothole by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ph, err := deps.Potholes.GetByID(p.Context, int64(p.Args["id"].(int)))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return ph, err
				},
			},
			"images": &graphql.Field{
				Type:        graphql.NewList(imageType),
				Description: "Images of a pothole, newest first",
				Args: graphql.FieldConfigArgument{
					"potholeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"offset":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					imgs, _, err := deps.Images.ListByPothole(p.Context,
						int64(p.Args["potholeId"].(int)), p.Args["offset"].(int), p.Args["limit"].(int))
					return imgs, err
				},
			},
			"shouldAlert": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether a driver at the point should be alerted",
				Args: graphql.FieldConfigArgument{
					"lat":  &graphql.ArgumentConfig{Type: nonNullFloat},
					"long": &graphql.ArgumentConfig{Type: nonNullFloat},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, long := p.Args["lat"].(float64), p.Args["long"].(float64)
					if err := ValidatePoint(lat, long); err != nil {
						return nil, err
					}
					return deps.Alerts.ShouldAlert(p.Context, lat, long), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves the GraphQL endpoint.
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
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errInvalidBody(c, "query", "body must be a JSON object with a query")
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
