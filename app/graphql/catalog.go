// Package graphql exposes a read-only catalogue query surface alongside
// the REST API, for storefront clients that want to shape their own
// responses.
package graphql

import (
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/ctx"
	gql "github.com/sridharani/designhaven/pkg/graphql"
)

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.Int},
		"name":  &graphql.Field{Type: graphql.String},
		"image": &graphql.Field{Type: graphql.String},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.Int},
		"name":        &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Float},
		"category":    &graphql.Field{Type: graphql.String},
		"image":       &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
	},
})

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"name":    &graphql.Field{Type: graphql.String},
		"rating":  &graphql.Field{Type: graphql.Int},
		"comment": &graphql.Field{Type: graphql.String},
	},
})

var bannerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OfferBanner",
	Fields: graphql.Fields{
		"text": &graphql.Field{Type: graphql.String},
	},
})

// NewSchema builds the catalogue query schema over the given services.
func NewSchema(catalog *services.CatalogService, reviews *services.ReviewService, banner *services.BannerService) (graphql.Schema, error) {
	root := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQuery",
		Fields: graphql.Fields{
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return catalog.Categories(), nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, _ := p.Args["category"].(string)
					return catalog.Products(category), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					product, err := catalog.Product(id)
					if err != nil {
						return nil, nil // absent, not an error
					}
					return product, nil
				},
			},
			"reviews": &graphql.Field{
				Type: graphql.NewList(reviewType),
				Args: graphql.FieldConfigArgument{
					"productId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["productId"].(int)
					return reviews.For(id), nil
				},
			},
			"offerBanner": &graphql.Field{
				Type: bannerType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := banner.Get()
					if b == nil {
						return (*models.OfferBanner)(nil), nil
					}
					return *b, nil
				},
			},
		},
	})
	return gql.NewSchema(root)
}

// Handler serves POSTed GraphQL queries against the schema.
func Handler(schema graphql.Schema) ctx.HandlerFunc {
	return func(c *ctx.Context) {
		var in struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if !c.BindJSON(&in) {
			return
		}
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  in.Query,
			VariableValues: in.Variables,
			Context:        c.Context(),
		})
		status := http.StatusOK
		if len(result.Errors) > 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, result)
	}
}
