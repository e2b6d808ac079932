// internal/tests/catalog_test.go
package tests

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/testutil"
)

func (suite *APITestSuite) TestProductLifecycle() {
	w := suite.do(http.MethodPost, "/api/v1/products", suite.admin, map[string]interface{}{
		"name_en":        "Paw San Rice",
		"name_my":        "ပေါ်ဆန်း",
		"price":          "42000",
		"initial_stock":  20,
		"purchase_price": "35000",
		"metadata":       map[string]string{"variety": "paw_san", "weight": "48kg"},
	})
	suite.requireStatus(w, http.StatusCreated)
	var created services.AdminProductView
	suite.decode(w, &created)
	assert.Equal(suite.T(), int64(20), created.Stock)
	assert.True(suite.T(), created.Price.Equal(decimal.NewFromInt(42000)))

	// Customers cannot manage the catalog
	w = suite.do(http.MethodPost, "/api/v1/products", suite.customer, map[string]interface{}{
		"name_en": "Nope",
		"price":   "1",
	})
	suite.requireStatus(w, http.StatusForbidden)

	// Public listing in Burmese
	w = suite.do(http.MethodGet, "/api/v1/products?locale=my&variety=paw_san", nil, nil)
	suite.requireStatus(w, http.StatusOK)
	var listed []services.ProductView
	suite.decode(w, &listed)
	suite.Require().Len(listed, 1)
	assert.Equal(suite.T(), "ပေါ်ဆန်း", listed[0].Name)
	assert.True(suite.T(), listed[0].InStock)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))

	// Disable it; it leaves the public list but admins still see it with disabled=true
	w = suite.do(http.MethodPatch, "/api/v1/products/"+created.ID.String(), suite.admin, map[string]interface{}{
		"disabled": true,
	})
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, "/api/v1/products", nil, nil)
	suite.requireStatus(w, http.StatusOK)
	listed = nil
	suite.decode(w, &listed)
	assert.Empty(suite.T(), listed)

	w = suite.do(http.MethodGet, "/api/v1/products?disabled=true", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var adminListed []services.AdminProductView
	suite.decode(w, &adminListed)
	suite.Require().Len(adminListed, 1)
	assert.True(suite.T(), adminListed[0].Disabled)

	w = suite.do(http.MethodGet, "/api/v1/products?price_min=abc", nil, nil)
	suite.requireStatus(w, http.StatusBadRequest)
}

func (suite *APITestSuite) TestStockLedger() {
	product := suite.store.AddProduct(suite.T(), "Shwe Bo", 5)

	w := suite.do(http.MethodPost, "/api/v1/products/stock", suite.admin, map[string]interface{}{
		"product_id":     product.ID,
		"quantity":       10,
		"purchase_price": "30000",
		"note":           "new harvest",
	})
	suite.requireStatus(w, http.StatusCreated)
	assert.Equal(suite.T(), int64(15), suite.store.StockLevel(product.ID))

	w = suite.do(http.MethodGet, "/api/v1/products/"+product.ID.String()+"/stock", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var ledger services.StockLedger
	suite.decode(w, &ledger)
	assert.Equal(suite.T(), int64(15), ledger.Stock)
	assert.Len(suite.T(), ledger.Entries, 2)

	w = suite.do(http.MethodGet, "/api/v1/products/"+product.ID.String()+"/stock", suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)

	w = suite.do(http.MethodGet, "/api/v1/products/not-a-uuid", nil, nil)
	suite.requireStatus(w, http.StatusNotFound)
}

func (suite *APITestSuite) TestCreateProductWithImages() {
	fields := map[string]string{
		"data": jsonString(map[string]interface{}{
			"name_en":       "Emata",
			"price":         "28000",
			"initial_stock": 3,
		}),
	}
	w := suite.multipart("/api/v1/products", suite.admin, fields,
		formFile{field: "images", filename: "front.png", content: pngBytes(suite.T(), 64, 48)},
		formFile{field: "images", filename: "back.png", content: pngBytes(suite.T(), 32, 32)},
	)
	suite.requireStatus(w, http.StatusCreated)

	var created services.AdminProductView
	suite.decode(w, &created)
	suite.Require().Len(created.Images, 2)
	assert.True(suite.T(), containsAll(created.Images[0], "/uploads/files/"))

	// Stored files are served back
	w = suite.do(http.MethodGet, created.Images[0], nil, nil)
	suite.requireStatus(w, http.StatusOK)
}

func (suite *APITestSuite) TestCartQuote() {
	product := suite.store.AddProduct(suite.T(), "Nga Kywe", 2, testutil.Price("15000"))

	w := suite.do(http.MethodPost, "/api/v1/cart/quote", nil, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 2, "unit_price": "14000"},
		},
	})
	suite.requireStatus(w, http.StatusOK)

	var quote services.CartQuote
	suite.decode(w, &quote)
	suite.Require().Len(quote.Items, 1)
	assert.True(suite.T(), quote.Available)
	assert.True(suite.T(), quote.PriceChanged)
	assert.True(suite.T(), quote.Total.Equal(decimal.NewFromInt(30000)))

	w = suite.do(http.MethodPost, "/api/v1/cart/quote", nil, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 3},
		},
	})
	suite.requireStatus(w, http.StatusOK)
	quote = services.CartQuote{}
	suite.decode(w, &quote)
	assert.False(suite.T(), quote.Available)
}
