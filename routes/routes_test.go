package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shopcatalog/accounts"
	"shopcatalog/auth"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t   *testing.T
	app *fiber.App
	dir string
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	conn, err := db.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	db.DB = conn
	t.Cleanup(func() { _ = db.Close(conn) })

	dir := t.TempDir()
	app := fiber.New()
	SetupRoutes(app, Options{Tokens: auth.NewTokens("test-secret", time.Hour), UploadDir: dir})
	return &testClient{t: t, app: app, dir: dir}
}

func (tc *testClient) do(req *http.Request, token string) (int, map[string]any) {
	tc.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := tc.app.Test(req, -1)
	require.NoError(tc.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	body := map[string]any{}
	if len(data) > 0 {
		require.NoError(tc.t, json.Unmarshal(data, &body), string(data))
	}
	return resp.StatusCode, body
}

func (tc *testClient) call(method, path, token string, payload any) (int, map[string]any) {
	tc.t.Helper()
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(tc.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req, token)
}

func (tc *testClient) user(email string, staff bool) (models.User, string) {
	tc.t.Helper()
	u := models.User{Email: email, IsStaff: staff}
	require.NoError(tc.t, accounts.Register(db.DB, &u, "testpass123", nil))
	token, err := tokens.Issue(u.ID)
	require.NoError(tc.t, err)
	return u, token
}

func (tc *testClient) category(token, name string) uint {
	tc.t.Helper()
	status, body := tc.call(http.MethodPost, "/api/categories", token, fiber.Map{"name": name})
	require.Equal(tc.t, fiber.StatusCreated, status, body)
	return uint(body["id"].(float64))
}

func (tc *testClient) product(token string, payload fiber.Map) map[string]any {
	tc.t.Helper()
	status, body := tc.call(http.MethodPost, "/api/products", token, payload)
	require.Equal(tc.t, fiber.StatusCreated, status, body)
	return body
}

func (tc *testClient) upload(path, token, field, filename string) (int, map[string]any) {
	tc.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(tc.t, err)
	_, err = part.Write([]byte("not really an image"))
	require.NoError(tc.t, err)
	require.NoError(tc.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return tc.do(req, token)
}

func propertyPairs(body map[string]any) []string {
	props, _ := body["properties"].([]any)
	pairs := make([]string, 0, len(props))
	for _, p := range props {
		m := p.(map[string]any)
		pairs = append(pairs, fmt.Sprintf("%s=%s", m["name"], m["value"]))
	}
	return pairs
}

func TestCategoryPermissions(t *testing.T) {
	tc := newTestClient(t)
	_, userToken := tc.user("user@example.com", false)
	_, staffToken := tc.user("admin@example.com", true)

	status, _ := tc.call(http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = tc.call(http.MethodPost, "/api/categories", "", fiber.Map{"name": "Books"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = tc.call(http.MethodPost, "/api/categories", userToken, fiber.Map{"name": "Books"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = tc.call(http.MethodPost, "/api/categories", "not-a-token", fiber.Map{"name": "Books"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	tc.category(staffToken, "Books")
}

func TestCategoryNameIsCaseInsensitive(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	id := tc.category(staff, "Books")

	status, body := tc.call(http.MethodPost, "/api/categories", staff, fiber.Map{"name": "bOOKS"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "already exists")

	// renaming onto itself with another case is allowed
	status, body = tc.call(http.MethodPut, fmt.Sprintf("/api/categories/%d", id), staff, fiber.Map{"name": "BOOKS"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "BOOKS", body["name"])
}

func TestCreateProduct(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")

	body := tc.product(staff, fiber.Map{
		"name":       "Runner",
		"price":      "99.90",
		"stock":      3,
		"category":   category,
		"rating":     5,
		"properties": []fiber.Map{{"name": "Color", "value": "red"}, {"name": "Size", "value": "42"}},
	})
	assert.Equal(t, 0.0, body["rating"])
	assert.ElementsMatch(t, []string{"Color=red", "Size=42"}, propertyPairs(body))

	status, body := tc.call(http.MethodPost, "/api/products", staff, fiber.Map{
		"name": "Free", "price": "0", "stock": 1, "category": category,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "price must be greater than 0", body["error"])

	status, body = tc.call(http.MethodPost, "/api/products", staff, fiber.Map{"name": "Partial"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "These fields are required: price, stock, category", body["error"])
}

func TestCreateProduct_DuplicatePropertyNames(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")

	status, body := tc.call(http.MethodPost, "/api/products", staff, fiber.Map{
		"name": "Runner", "price": "10", "stock": 1, "category": category,
		"properties": []fiber.Map{{"name": "Color", "value": "red"}, {"name": "color", "value": "blue"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Product can have only one property with the same name (color)!", body["error"])

	var products, properties int64
	require.NoError(t, db.DB.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.DB.Model(&models.Property{}).Count(&properties).Error)
	assert.Zero(t, products)
	assert.Zero(t, properties)
}

func TestAddProductProperties(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	product := tc.product(staff, fiber.Map{
		"name": "Runner", "price": "10", "stock": 1, "category": category,
		"properties": []fiber.Map{{"name": "color", "value": "red"}},
	})
	path := fmt.Sprintf("/api/products/%d/properties", int(product["id"].(float64)))

	status, body := tc.call(http.MethodPost, path, staff, fiber.Map{
		"properties": []fiber.Map{{"name": "Size", "value": "42"}, {"name": "COLOR", "value": "blue"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Product can have only one property with the same name (COLOR)!", body["error"])

	status, body = tc.call(http.MethodGet, fmt.Sprintf("/api/products/%d", int(product["id"].(float64))), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"color=red"}, propertyPairs(body))

	status, body = tc.call(http.MethodPost, path, staff, fiber.Map{
		"properties": []fiber.Map{{"name": "Size", "value": "42"}},
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.ElementsMatch(t, []string{"color=red", "Size=42"}, propertyPairs(body))
}

func TestPropertiesAreStaffOnly(t *testing.T) {
	tc := newTestClient(t)
	_, user := tc.user("user@example.com", false)
	_, staff := tc.user("admin@example.com", true)

	status, _ := tc.call(http.MethodGet, "/api/properties", user, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = tc.call(http.MethodPost, "/api/properties", staff, fiber.Map{"name": "Color", "value": "Red"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, body := tc.call(http.MethodPost, "/api/properties", staff, fiber.Map{"name": "color", "value": "RED"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "already exists")
}

func TestListProducts_FilterAndOrdering(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	shoes := tc.category(staff, "Shoes")
	hats := tc.category(staff, "Hats")
	books := tc.category(staff, "Books")

	tc.product(staff, fiber.Map{"name": "cheap", "price": "5", "stock": 1, "category": shoes})
	tc.product(staff, fiber.Map{"name": "pricey", "price": "50", "stock": 1, "category": hats})
	tc.product(staff, fiber.Map{"name": "other", "price": "20", "stock": 1, "category": books})

	status, body := tc.call(http.MethodGet, fmt.Sprintf("/api/products?category__in=%d,%d&ordering=-price", shoes, hats), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2.0, body["total"])

	products := body["products"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "pricey", products[0].(map[string]any)["name"])
	assert.Equal(t, "cheap", products[1].(map[string]any)["name"])

	status, _ = tc.call(http.MethodGet, "/api/products?ordering=name", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = tc.call(http.MethodGet, "/api/products?limit=1&skip=1&ordering=price", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3.0, body["total"])
	require.Len(t, body["products"], 1)
	assert.Equal(t, "other", body["products"].([]any)[0].(map[string]any)["name"])

	for _, query := range []string{"limit=abc", "limit=-1", "skip=x", "skip=-2"} {
		status, body = tc.call(http.MethodGet, "/api/products?"+query, "", nil)
		assert.Equal(t, fiber.StatusBadRequest, status, query)
		assert.Contains(t, body["error"], "Invalid", query)
	}
}

func TestReviewsDriveRating(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	product := tc.product(staff, fiber.Map{"name": "Runner", "price": "10", "stock": 1, "category": category})
	productID := int(product["id"].(float64))
	productPath := fmt.Sprintf("/api/products/%d", productID)

	var reviewIDs []int
	var userTokens []string
	for i, rating := range []int{5, 3, 4} {
		_, token := tc.user(fmt.Sprintf("user%d@example.com", i), false)
		status, body := tc.call(http.MethodPost, "/api/reviews", token, fiber.Map{"product": productID, "rating": rating, "commentary": "ok"})
		require.Equal(t, fiber.StatusCreated, status, body)
		reviewIDs = append(reviewIDs, int(body["id"].(float64)))
		userTokens = append(userTokens, token)
	}

	_, body := tc.call(http.MethodGet, productPath, "", nil)
	assert.Equal(t, 4.0, body["rating"])

	status, body := tc.call(http.MethodPost, "/api/reviews", userTokens[0], fiber.Map{"product": productID, "rating": 1})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "already reviewed")

	// someone else's review does not exist for the caller
	status, _ = tc.call(http.MethodPatch, fmt.Sprintf("/api/reviews/%d", reviewIDs[1]), userTokens[0], fiber.Map{"rating": 1})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = tc.call(http.MethodPatch, fmt.Sprintf("/api/reviews/%d", reviewIDs[1]), userTokens[1], fiber.Map{"rating": 5})
	require.Equal(t, fiber.StatusOK, status)
	_, body = tc.call(http.MethodGet, productPath, "", nil)
	assert.InDelta(t, 14.0/3.0, body["rating"], 1e-9)

	status, _ = tc.call(http.MethodDelete, fmt.Sprintf("/api/reviews/%d", reviewIDs[0]), userTokens[0], nil)
	require.Equal(t, fiber.StatusOK, status)
	_, body = tc.call(http.MethodGet, productPath, "", nil)
	assert.Equal(t, 4.5, body["rating"])

	status, _ = tc.call(http.MethodPost, "/api/reviews", userTokens[0], fiber.Map{"product": productID, "rating": 6})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = tc.call(http.MethodGet, fmt.Sprintf("/api/reviews?product=%d&ordering=-rating", productID), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	reviews := body["reviews"].([]any)
	require.Len(t, reviews, 2)
	assert.Equal(t, 5.0, reviews[0].(map[string]any)["rating"])
}

func TestReviewUpdateKeepsProduct(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	first := int(tc.product(staff, fiber.Map{"name": "a", "price": "10", "stock": 1, "category": category})["id"].(float64))
	second := int(tc.product(staff, fiber.Map{"name": "b", "price": "10", "stock": 1, "category": category})["id"].(float64))

	_, token := tc.user("user@example.com", false)
	_, body := tc.call(http.MethodPost, "/api/reviews", token, fiber.Map{"product": first, "rating": 2})
	id := int(body["id"].(float64))

	status, body := tc.call(http.MethodPut, fmt.Sprintf("/api/reviews/%d", id), token, fiber.Map{"product": second, "rating": 4})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(first), body["product"])

	_, body = tc.call(http.MethodGet, fmt.Sprintf("/api/products/%d", first), "", nil)
	assert.Equal(t, 4.0, body["rating"])
	_, body = tc.call(http.MethodGet, fmt.Sprintf("/api/products/%d", second), "", nil)
	assert.Equal(t, 0.0, body["rating"])
}

func TestRegisterTokenAndMe(t *testing.T) {
	tc := newTestClient(t)

	status, body := tc.call(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "test@example.com", "password": "testpass123", "name": "Test",
		"address": fiber.Map{"country": "PL", "city": "Warsaw", "street": "Main", "house": 1, "postal_code": "00-001"},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.NotContains(t, body, "password")

	status, body = tc.call(http.MethodPost, "/api/auth/token", "", fiber.Map{"email": "test@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Incorrect credentials!", body["error"])

	status, body = tc.call(http.MethodPost, "/api/auth/token", "", fiber.Map{"email": "test@example.com", "password": "testpass123"})
	require.Equal(t, fiber.StatusOK, status)
	token := body["token"].(string)

	status, body = tc.call(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Warsaw", body["address"].(map[string]any)["city"])

	status, _ = tc.call(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = tc.call(http.MethodPost, "/api/auth/register", "", fiber.Map{"email": "test@example.com", "password": "testpass123"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMeAddressReplacement(t *testing.T) {
	tc := newTestClient(t)
	_, token := tc.user("user@example.com", false)

	status, body := tc.call(http.MethodPatch, "/api/me", token, fiber.Map{"address": fiber.Map{"city": "Gdansk"}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "These fields are required: country, street, house, postal_code", body["error"])

	status, body = tc.call(http.MethodPatch, "/api/me", token, fiber.Map{
		"address": fiber.Map{"country": "PL", "city": "Gdansk", "street": "Long", "house": 3, "postal_code": "80-001"},
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Gdansk", body["address"].(map[string]any)["city"])

	status, body = tc.call(http.MethodPatch, "/api/me", token, fiber.Map{"address": fiber.Map{}})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Nil(t, body["address"])

	status, body = tc.call(http.MethodPut, "/api/me", token, fiber.Map{"name": "No email"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "These fields are required: email", body["error"])
}

func TestCartAndWishList(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	productID := int(tc.product(staff, fiber.Map{"name": "Runner", "price": "2.50", "stock": 9, "category": category})["id"].(float64))
	_, token := tc.user("user@example.com", false)

	status, first := tc.call(http.MethodPost, "/api/cart-items", token, fiber.Map{"product": productID, "quantity": 2})
	require.Equal(t, fiber.StatusCreated, status, first)
	status, second := tc.call(http.MethodPost, "/api/cart-items", token, fiber.Map{"product": productID, "quantity": 1})
	require.Equal(t, fiber.StatusCreated, status, second)
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, 3.0, second["quantity"])

	status, cart := tc.call(http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "7.50", cart["total"])
	assert.Len(t, cart["cart_items"], 1)

	status, _ = tc.call(http.MethodPost, "/api/wish-items", token, fiber.Map{"product": productID})
	assert.Equal(t, fiber.StatusCreated, status)
	status, _ = tc.call(http.MethodPost, "/api/wish-items", token, fiber.Map{"product": productID})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// deleting the product empties both lists
	status, _ = tc.call(http.MethodDelete, fmt.Sprintf("/api/products/%d", productID), staff, nil)
	require.Equal(t, fiber.StatusOK, status)
	_, cart = tc.call(http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, "0.00", cart["total"])
	_, wish := tc.call(http.MethodGet, "/api/wish-items", token, nil)
	assert.Equal(t, 0.0, wish["total"])
}

func TestUploadProductImage(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	productID := int(tc.product(staff, fiber.Map{"name": "Runner", "price": "10", "stock": 1, "category": category})["id"].(float64))
	path := fmt.Sprintf("/api/products/%d/upload-image", productID)

	status, body := tc.upload(path, staff, "image", "photo.png")
	require.Equal(t, fiber.StatusOK, status, body)

	first := body["image"].(string)
	assert.True(t, strings.HasPrefix(first, "/uploads/products/"))
	assert.Equal(t, ".png", filepath.Ext(first))
	firstStored := filepath.Join(tc.dir, strings.TrimPrefix(first, "/uploads/"))
	assert.FileExists(t, firstStored)

	// a second upload replaces the first file
	status, body = tc.upload(path, staff, "image", "other.jpg")
	require.Equal(t, fiber.StatusOK, status, body)
	image := body["image"].(string)
	assert.NotEqual(t, first, image)
	stored := filepath.Join(tc.dir, strings.TrimPrefix(image, "/uploads/"))
	assert.FileExists(t, stored)
	assert.NoFileExists(t, firstStored)

	_, body = tc.call(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
	assert.Equal(t, image, body["image"])

	status, body = tc.call(http.MethodPost, path, staff, fiber.Map{"image": nil})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "", body["image"])
	_, err := os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	status, _ = tc.call(http.MethodPost, path, staff, fiber.Map{"image": "elsewhere.png"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDeleteCategoryCascades(t *testing.T) {
	tc := newTestClient(t)
	_, staff := tc.user("admin@example.com", true)
	category := tc.category(staff, "Shoes")
	productID := int(tc.product(staff, fiber.Map{"name": "Runner", "price": "10", "stock": 1, "category": category})["id"].(float64))

	status, _ := tc.call(http.MethodDelete, fmt.Sprintf("/api/categories/%d", category), staff, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = tc.call(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
