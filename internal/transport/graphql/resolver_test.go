package graphqltransport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/errs"
	"github.com/corray333/backend-labs/delivery/internal/service/models/order"
	"github.com/corray333/backend-labs/delivery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/delivery/internal/service/services/ordersvc"
	"github.com/graph-gophers/graphql-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchema(t *testing.T) (*graphql.Schema, *fakeService) {
	t.Helper()

	svc := newFakeService()
	schema, err := NewSchema(svc)
	require.NoError(t, err)

	return schema, svc
}

func exec(t *testing.T, schema *graphql.Schema, ctx context.Context, query string) string {
	t.Helper()

	resp := schema.Exec(ctx, query, "", nil)
	require.Empty(t, resp.Errors)

	return string(resp.Data)
}

func TestCreateOrder(t *testing.T) {
	schema, svc := newTestSchema(t)

	got := exec(t, schema, asUser(client), `mutation {
		createOrder(input: {
			restaurantId: 1,
			items: [{dishId: 5, options: [{name: "spicy"}, {name: "size", choice: "large"}]}, {dishId: 6}]
		}) { ok error orderId }
	}`)

	assert.JSONEq(t, `{"createOrder":{"ok":true,"error":null,"orderId":7}}`, got)
	large := "large"
	assert.Equal(t, ordersvc.CreateOrderInput{
		RestaurantID: 1,
		Items: []ordersvc.CreateOrderItemInput{
			{DishID: 5, Options: []orderitem.Selection{{Name: "spicy"}, {Name: "size", Choice: &large}}},
			{DishID: 6},
		},
	}, svc.createInput)
}

func TestCreateOrderInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no items", `{restaurantId: 1, items: []}`, "items must contain at least 1 item(s)"},
		{"bad restaurant", `{restaurantId: 0, items: [{dishId: 5}]}`, "restaurantId must be greater than 0"},
		{"bad dish", `{restaurantId: 1, items: [{dishId: -1}]}`, "dishId must be greater than 0"},
		{"empty option name", `{restaurantId: 1, items: [{dishId: 5, options: [{name: ""}]}]}`, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, svc := newTestSchema(t)

			got := exec(t, schema, asUser(client), `mutation { createOrder(input: `+tt.input+`) { ok error orderId } }`)

			assert.JSONEq(t, `{"createOrder":{"ok":false,"error":"`+tt.want+`","orderId":null}}`, got)
			assert.Empty(t, svc.calls())
		})
	}
}

func TestServiceErrorsBecomeEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"classified", errs.InvalidTransition("Owner can't edit order status to Pending"), "Owner can't edit order status to Pending"},
		{"unexpected", errs.Unexpected("Could not edit order", errors.New("pg: connection refused")), "Could not edit order"},
		{"foreign", errors.New("pg: connection refused"), "Unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, svc := newTestSchema(t)
			svc.err = tt.err

			got := exec(t, schema, asUser(owner), `mutation { editOrder(input: {id: 7, status: Pending}) { ok error order { id } } }`)

			assert.JSONEq(t, `{"editOrder":{"ok":false,"error":"`+tt.want+`","order":null}}`, got)
		})
	}
}

func TestAnonymousCallerGetsGraphQLError(t *testing.T) {
	schema, svc := newTestSchema(t)

	queries := []string{
		`{ me { id } }`,
		`{ getOrders(input: {}) { ok } }`,
		`{ getOrder(input: {id: 1}) { ok } }`,
		`mutation { takeOrder(input: {id: 1}) { ok } }`,
	}
	for _, q := range queries {
		resp := schema.Exec(context.Background(), q, "", nil)

		require.Len(t, resp.Errors, 1, q)
		assert.Equal(t, "Forbidden resource", resp.Errors[0].Message)
	}
	assert.Empty(t, svc.calls())
}

func TestGetOrders(t *testing.T) {
	schema, svc := newTestSchema(t)
	driverID := driver.ID
	delivered := sampleOrder()
	delivered.ID = 8
	delivered.DriverID = &driverID
	delivered.Status = order.StatusDelivered
	delivered.Restaurant = nil
	delivered.Items = nil
	svc.orders = []order.Order{sampleOrder(), delivered}

	got := exec(t, schema, asUser(client), `{
		getOrders(input: {status: Pending, page: 2}) {
			ok error
			orders {
				id customerId driverId restaurantId total status createdAt
				restaurant { id name address coverImg ownerId }
				items { id dishId options { name choice } }
			}
		}
	}`)

	assert.JSONEq(t, `{"getOrders":{"ok":true,"error":null,"orders":[
		{
			"id":7,"customerId":1,"driverId":null,"restaurantId":1,"total":13,"status":"Pending",
			"createdAt":"2026-03-14T12:00:00Z",
			"restaurant":{"id":1,"name":"Pizza","address":"Main st. 1","coverImg":"pizza.png","ownerId":2},
			"items":[{"id":1,"dishId":5,"options":[{"name":"spicy","choice":null},{"name":"size","choice":"large"}]}]
		},
		{
			"id":8,"customerId":1,"driverId":3,"restaurantId":1,"total":13,"status":"Delivered",
			"createdAt":"2026-03-14T12:00:00Z","restaurant":null,"items":[]
		}
	]}}`, got)

	require.NotNil(t, svc.ordersInput.Status)
	assert.Equal(t, order.StatusPending, *svc.ordersInput.Status)
	assert.Equal(t, 2, svc.ordersInput.Page)
}

func TestGetOrdersDefaultsAndValidation(t *testing.T) {
	schema, svc := newTestSchema(t)

	got := exec(t, schema, asUser(owner), `{ getOrders(input: {}) { ok orders { id } } }`)
	assert.JSONEq(t, `{"getOrders":{"ok":true,"orders":[]}}`, got)
	assert.Equal(t, ordersvc.GetOrdersInput{}, svc.ordersInput)

	got = exec(t, schema, asUser(owner), `{ getOrders(input: {page: 0}) { ok error orders { id } } }`)
	assert.JSONEq(t, `{"getOrders":{"ok":false,"error":"page must be at least 1","orders":null}}`, got)
}

func TestGetOrder(t *testing.T) {
	schema, svc := newTestSchema(t)

	got := exec(t, schema, asUser(owner), `{ getOrder(input: {id: 7}) { ok error order { id total restaurant { ownerId } } } }`)

	assert.JSONEq(t, `{"getOrder":{"ok":true,"error":null,"order":{"id":7,"total":13,"restaurant":{"ownerId":2}}}}`, got)
	assert.Equal(t, []any{"GetOrder", owner.ID, int64(7)}, svc.calls())

	svc.err = errs.Forbidden("You can't see other peoples' orders")
	got = exec(t, schema, asUser(owner), `{ getOrder(input: {id: 7}) { ok error order { id } } }`)
	assert.JSONEq(t, `{"getOrder":{"ok":false,"error":"You can't see other peoples' orders","order":null}}`, got)
}

func TestEditOrder(t *testing.T) {
	schema, svc := newTestSchema(t)

	got := exec(t, schema, asUser(owner), `mutation { editOrder(input: {id: 7, status: Cooking}) { ok error order { status } } }`)

	assert.JSONEq(t, `{"editOrder":{"ok":true,"error":null,"order":{"status":"Cooking"}}}`, got)
	assert.Equal(t, []any{"EditOrder", owner.ID, int64(7), order.StatusCooking}, svc.calls())
}

func TestTakeOrder(t *testing.T) {
	schema, svc := newTestSchema(t)

	got := exec(t, schema, asUser(driver), `mutation { takeOrder(input: {id: 7}) { ok error order { driverId } } }`)
	assert.JSONEq(t, `{"takeOrder":{"ok":true,"error":null,"order":{"driverId":3}}}`, got)

	got = exec(t, schema, asUser(driver), `mutation { takeOrder(input: {id: 0}) { ok error } }`)
	assert.JSONEq(t, `{"takeOrder":{"ok":false,"error":"id must be greater than 0"}}`, got)
	assert.Equal(t, []any{"TakeOrder", driver.ID, int64(7)}, svc.calls())
}

func TestMe(t *testing.T) {
	schema, _ := newTestSchema(t)

	got := exec(t, schema, asUser(driver), `{ me { id email role } }`)

	assert.JSONEq(t, `{"me":{"id":3,"email":"driver@example.com","role":"Delivery"}}`, got)
}

func TestMaxDepth(t *testing.T) {
	viper.Set("graphql.max_depth", 3)
	t.Cleanup(func() { viper.Set("graphql.max_depth", 0) })
	schema, _ := newTestSchema(t)

	resp := schema.Exec(asUser(owner), `{ getOrder(input: {id: 7}) { order { items { options { name } } } } }`, "", nil)
	assert.NotEmpty(t, resp.Errors)

	resp = schema.Exec(asUser(owner), `{ me { id } }`, "", nil)
	assert.Empty(t, resp.Errors)
}

func nextResponse(t *testing.T, ch <-chan any) *graphql.Response {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		resp, ok := v.(*graphql.Response)
		require.True(t, ok)

		return resp
	case <-time.After(time.Second):
		t.Fatal("no subscription response")

		return nil
	}
}

func TestSubscriptions(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		query  string
		stream string
		want   string
	}{
		{"pending orders", asUser(owner), `subscription { pendingOrders { id status } }`, "pending",
			`{"pendingOrders":{"id":7,"status":"Pending"}}`},
		{"cooked orders", asUser(driver), `subscription { cookedOrders { id } }`, "cooked",
			`{"cookedOrders":{"id":7}}`},
		{"order updates", asUser(client), `subscription { orderUpdates(input: {id: 7}) { id restaurant { name } } }`, "updates",
			`{"orderUpdates":{"id":7,"restaurant":{"name":"Pizza"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, svc := newTestSchema(t)
			ctx, cancel := context.WithCancel(tt.ctx)
			defer cancel()

			ch, err := schema.Subscribe(ctx, tt.query, "", nil)
			require.NoError(t, err)

			require.Eventually(t, func() bool {
				return svc.push(tt.stream, sampleOrder())
			}, time.Second, 10*time.Millisecond)

			resp := nextResponse(t, ch)
			require.Empty(t, resp.Errors)
			assert.JSONEq(t, tt.want, string(resp.Data))
		})
	}
}

func TestSubscriptionRejected(t *testing.T) {
	schema, _ := newTestSchema(t)
	ctx, cancel := context.WithCancel(asUser(client))
	defer cancel()

	ch, err := schema.Subscribe(ctx, `subscription { pendingOrders { id } }`, "", nil)
	require.NoError(t, err)

	resp := nextResponse(t, ch)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "Forbidden resource", resp.Errors[0].Message)
}
