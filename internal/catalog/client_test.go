package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-pos/pkg/auth"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

func TestClientProducts(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"product_id":"p1","name":"Latte","unit_price":"4.50","available_stock":3},
			{"product_id":"p2","name":"Bagel","unit_price":2.25,"available_stock":-1,"image_ref":"img/bagel.png"}
		]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api/", time.Second, WithCredentials(auth.StaticSource("tok")))
	require.NoError(t, err)

	products, err := client.Products(context.Background(), Query{StoreID: "s1", Category: "drinks", Search: "lat"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "category=drinks&q=lat&store_id=s1", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "4.5", products[0].UnitPrice.String())
	assert.Equal(t, 0, products[1].AvailableStock, "negative stock is clamped")
	require.NotNil(t, products[1].ImageRef)
	assert.Equal(t, "img/bagel.png", *products[1].ImageRef)
}

func TestClientProductsErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Products(context.Background(), Query{StoreID: "s1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAuthExpired))

	status = http.StatusInternalServerError
	_, err = client.Products(context.Background(), Query{StoreID: "s1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = client.Products(context.Background(), Query{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestClientRequiresCredentialWhenConfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second, WithCredentials(auth.ContextSource{}))
	require.NoError(t, err)

	_, err = client.Products(context.Background(), Query{StoreID: "s1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAuthExpired))
	assert.False(t, called, "no request without a credential")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", time.Second)
	require.Error(t, err)
}
