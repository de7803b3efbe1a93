// Package graphqltransport exposes the order service as a GraphQL schema.
package graphqltransport

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/delivery/internal/transport/http/middleware/auth"
	"github.com/go-playground/validator/v10"
	"github.com/graph-gophers/graphql-go"
	"github.com/spf13/viper"
)

const defaultMaxDepth = 10

//go:embed schema.graphql
var schemaSDL string

// errForbidden is returned as a GraphQL error when the request carries no identity.
var errForbidden = errors.New("Forbidden resource")

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, customer user.User, in ordersvc.CreateOrderInput) (*order.Order, error)
	GetOrders(ctx context.Context, u user.User, in ordersvc.GetOrdersInput) ([]order.Order, error)
	GetOrder(ctx context.Context, u user.User, id int64) (*order.Order, error)
	EditOrder(ctx context.Context, u user.User, id int64, status order.Status) (*order.Order, error)
	TakeOrder(ctx context.Context, driver user.User, id int64) (*order.Order, error)

	PendingOrders(ctx context.Context, u user.User) (<-chan order.Order, error)
	CookedOrders(ctx context.Context, u user.User) (<-chan order.Order, error)
	OrderUpdates(ctx context.Context, u user.User, orderID int64) (<-chan order.Order, error)
}

// Resolver is the root resolver of queries, mutations and subscriptions.
type Resolver struct {
	service  service
	validate *validator.Validate
}

// NewResolver creates a Resolver.
func NewResolver(service service) *Resolver {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return &Resolver{
		service:  service,
		validate: validate,
	}
}

// NewSchema parses the embedded schema against a Resolver backed by service.
func NewSchema(service service) (*graphql.Schema, error) {
	maxDepth := viper.GetInt("graphql.max_depth")
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	schema, err := graphql.ParseSchema(schemaSDL, NewResolver(service), graphql.MaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}

	return schema, nil
}

// MustNewSchema is NewSchema that panics on error.
func MustNewSchema(service service) *graphql.Schema {
	schema, err := NewSchema(service)
	if err != nil {
		panic(err)
	}

	return schema
}

// currentUser returns the authenticated caller.
func currentUser(ctx context.Context) (user.User, error) {
	u := auth.UserFromContext(ctx)
	if u == nil {
		return user.User{}, errForbidden
	}

	return *u, nil
}

// check validates a GraphQL input against its validate tags.
func (r *Resolver) check(in any) error {
	err := r.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.InvalidInput("Invalid input")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "gt":
		return errs.InvalidInput("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return errs.InvalidInput("%s must be at least %s", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return errs.InvalidInput("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}

		return errs.InvalidInput("%s must be at least %s", fe.Field(), fe.Param())
	case "required":
		return errs.InvalidInput("%s is required", fe.Field())
	default:
		return errs.InvalidInput("%s is invalid", fe.Field())
	}
}

// envelope is the {ok, error} part shared by every query and mutation result.
type envelope struct {
	err *string
}

func (e envelope) Ok() bool {
	return e.err == nil
}

func (e envelope) Error() *string {
	return e.err
}

func failure(err error) envelope {
	msg := errs.Message(err, "Unexpected error")

	return envelope{err: &msg}
}
