package routes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shopcatalog/auth"
	"shopcatalog/cache"
	"shopcatalog/catalog"
	"shopcatalog/db"
	"shopcatalog/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	validate     = newValidator()
	tokens       *auth.Tokens
	productCache *cache.Cache
	feed         *events.Hub
	uploadDir    = "uploads"
)

// Options carries the collaborators the handlers share. Cache and Feed
// may be nil.
type Options struct {
	Tokens    *auth.Tokens
	Cache     *cache.Cache
	Feed      *events.Hub
	UploadDir string
}

func SetupRoutes(app *fiber.App, opts Options) {
	tokens = opts.Tokens
	productCache = opts.Cache
	feed = opts.Feed
	if opts.UploadDir != "" {
		uploadDir = opts.UploadDir
	}

	// Rating updates
	if feed != nil {
		app.Get("/ws", adaptor.HTTPHandler(feed))
	}

	api := app.Group("/api", optionalAuth)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", register)
	authGroup.Post("/token", obtainToken)

	me := api.Group("/me", authRequired)
	me.Get("/", getMe)
	me.Put("/", updateMe)
	me.Patch("/", patchMe)
	me.Delete("/", deleteMe)
	me.Post("/upload-image", uploadProfilePhoto)

	users := api.Group("/users", staffRequired)
	users.Get("/", getAllUsers)
	users.Get("/:id", getUser)
	users.Delete("/:id", deleteUser)

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/", getAllCategories)
	categories.Get("/:id", getCategory)
	categories.Post("/", staffRequired, createCategory)
	categories.Put("/:id", staffRequired, updateCategory)
	categories.Patch("/:id", staffRequired, updateCategory)
	categories.Delete("/:id", staffRequired, deleteCategory)

	// Product routes
	products := api.Group("/products")
	products.Get("/", getAllProducts)
	products.Get("/:id", getProduct)
	products.Post("/", staffRequired, createProduct)
	products.Put("/:id", staffRequired, updateProduct)
	products.Patch("/:id", staffRequired, patchProduct)
	products.Delete("/:id", staffRequired, deleteProduct)
	products.Post("/:id/properties", staffRequired, addProductProperties)
	products.Delete("/:id/properties/:propertyId", staffRequired, removeProductProperty)
	products.Post("/:id/upload-image", staffRequired, uploadProductImage)

	properties := api.Group("/properties", staffRequired)
	properties.Get("/", getAllProperties)
	properties.Get("/:id", getProperty)
	properties.Post("/", createProperty)
	properties.Put("/:id", updateProperty)
	properties.Patch("/:id", updateProperty)
	properties.Delete("/:id", deleteProperty)

	reviews := api.Group("/reviews")
	reviews.Get("/", getAllReviews)
	reviews.Get("/:id", getReview)
	reviews.Post("/", authRequired, createReview)
	reviews.Put("/:id", authRequired, updateReview)
	reviews.Patch("/:id", authRequired, patchReview)
	reviews.Delete("/:id", authRequired, deleteReview)

	wishItems := api.Group("/wish-items", authRequired)
	wishItems.Get("/", getAllWishItems)
	wishItems.Get("/:id", getWishItem)
	wishItems.Post("/", createWishItem)
	wishItems.Delete("/:id", deleteWishItem)

	api.Get("/cart", authRequired, getCart)

	cartItems := api.Group("/cart-items", authRequired)
	cartItems.Get("/", getAllCartItems)
	cartItems.Get("/:id", getCartItem)
	cartItems.Post("/", createCartItem)
	cartItems.Put("/:id", updateCartItem)
	cartItems.Patch("/:id", patchCartItem)
	cartItems.Delete("/:id", deleteCartItem)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(fn func(tx *gorm.DB) error) error {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, &catalog.ValidationError{Field: name, Message: fmt.Sprintf("Invalid %s parameter", name)}
	}
	return uint(id), nil
}

// pagination reads skip and limit. A limit of -1 means no limit.
func pagination(c *fiber.Ctx) (skip, limit int, err error) {
	limit = -1
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return 0, 0, &catalog.ValidationError{Field: "limit", Message: "Invalid limit parameter"}
		}
	}
	if raw := c.Query("skip"); raw != "" {
		if skip, err = strconv.Atoi(raw); err != nil || skip < 0 {
			return 0, 0, &catalog.ValidationError{Field: "skip", Message: "Invalid skip parameter"}
		}
	}
	return skip, limit, nil
}

func paginate(query *gorm.DB, skip, limit int) *gorm.DB {
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

// ordering turns "price,-rating" into an ORDER BY over the allowed
// columns.
func ordering(param string, allowed ...string) (string, error) {
	if param == "" {
		return "", nil
	}
	var terms []string
	for _, field := range strings.Split(param, ",") {
		direction := "ASC"
		if strings.HasPrefix(field, "-") {
			direction = "DESC"
			field = field[1:]
		}
		ok := false
		for _, a := range allowed {
			if field == a {
				ok = true
				break
			}
		}
		if !ok {
			return "", &catalog.ValidationError{Field: "ordering", Message: fmt.Sprintf("Cannot order by %q", field)}
		}
		terms = append(terms, field+" "+direction)
	}
	return strings.Join(terms, ", "), nil
}

// saveUpload stores the multipart file in field under <upload dir>/<kind>
// and returns its public path.
func saveUpload(c *fiber.Ctx, field, kind string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", &catalog.ValidationError{Field: field, Message: "Failed to get uploaded file"}
	}

	dir := filepath.Join(uploadDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	// Generate unique filename
	filename := uuid.New().String() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return "/uploads/" + kind + "/" + filename, nil
}

func removeUpload(publicPath string) {
	if publicPath == "" {
		return
	}
	path := filepath.Join(uploadDir, strings.TrimPrefix(publicPath, "/uploads/"))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not remove upload", "path", path, "error", err)
	}
}

// imageCleared reports whether the request is a JSON body setting field
// to null. Any other JSON value for field is rejected.
func imageCleared(c *fiber.Ctx, field string) (bool, error) {
	if !c.Is("json") {
		return false, nil
	}
	body := map[string]*string{}
	if err := c.BodyParser(&body); err != nil {
		return false, &catalog.ValidationError{Field: field, Message: "Failed to parse request body"}
	}
	value, ok := body[field]
	if !ok || value != nil {
		return false, &catalog.ValidationError{Field: field, Message: fmt.Sprintf("%s must be a file upload or null", field)}
	}
	return true, nil
}
