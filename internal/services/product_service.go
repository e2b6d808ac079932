// internal/services/product_service.go
package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type ProductService struct {
	products  repository.ProductRepository
	storage   *StorageService
	maxImages int
	now       Clock
}

// ProductView is the public, localized shape of a product. Stock is only
// exposed as a boolean.
type ProductView struct {
	ID          uuid.UUID       `json:"id"`
	SKU         *string         `json:"sku,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Metadata    models.Metadata `json:"metadata"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AdminProductView adds both locale texts, the flags and the raw stock level.
type AdminProductView struct {
	ProductView
	NameEn                string `json:"name_en"`
	NameMy                string `json:"name_my"`
	DescriptionEn         string `json:"description_en"`
	DescriptionMy         string `json:"description_my"`
	Disabled              bool   `json:"disabled"`
	OutOfStock            bool   `json:"out_of_stock"`
	AllowSellWithoutStock bool   `json:"allow_sell_without_stock"`
	Stock                 int64  `json:"stock"`
}

type ProductQuery struct {
	utils.PaginationParams
	Locale    string
	Variety   string
	Weight    string
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	InStock   *bool
	Disabled  *bool
	ExcludeID *uuid.UUID
}

type CreateProductRequest struct {
	SKU                   *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	NameEn                string           `json:"name_en" validate:"required,max=255"`
	NameMy                string           `json:"name_my" validate:"max=255"`
	DescriptionEn         string           `json:"description_en" validate:"max=10000"`
	DescriptionMy         string           `json:"description_my" validate:"max=10000"`
	Price                 decimal.Decimal  `json:"price"`
	Images                []string         `json:"images,omitempty" validate:"omitempty,dive,required,max=1024"`
	Disabled              bool             `json:"disabled"`
	OutOfStock            bool             `json:"out_of_stock"`
	AllowSellWithoutStock bool             `json:"allow_sell_without_stock"`
	Metadata              models.Metadata  `json:"metadata,omitempty"`
	InitialStock          int64            `json:"initial_stock" validate:"min=0"`
	PurchasePrice         *decimal.Decimal `json:"purchase_price,omitempty"`
}

// UpdateProductRequest overwrites only the fields that are present.
type UpdateProductRequest struct {
	SKU                   *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	NameEn                *string          `json:"name_en,omitempty" validate:"omitempty,min=1,max=255"`
	NameMy                *string          `json:"name_my,omitempty" validate:"omitempty,max=255"`
	DescriptionEn         *string          `json:"description_en,omitempty" validate:"omitempty,max=10000"`
	DescriptionMy         *string          `json:"description_my,omitempty" validate:"omitempty,max=10000"`
	Price                 *decimal.Decimal `json:"price,omitempty"`
	Images                *[]string        `json:"images,omitempty"`
	Disabled              *bool            `json:"disabled,omitempty"`
	OutOfStock            *bool            `json:"out_of_stock,omitempty"`
	AllowSellWithoutStock *bool            `json:"allow_sell_without_stock,omitempty"`
	Metadata              *models.Metadata `json:"metadata,omitempty"`
}

type AddStockEntryRequest struct {
	ProductID     uuid.UUID          `json:"product_id" validate:"required"`
	Quantity      int64              `json:"quantity" validate:"ne=0"`
	PurchasePrice decimal.Decimal    `json:"purchase_price"`
	Reason        models.StockReason `json:"reason,omitempty" validate:"omitempty,oneof=purchase adjustment"`
	Note          string             `json:"note,omitempty" validate:"max=500"`
}

type StockLedger struct {
	ProductID uuid.UUID           `json:"product_id"`
	Stock     int64               `json:"stock"`
	Entries   []models.StockEntry `json:"entries"`
}

func NewProductService(products repository.ProductRepository, storage *StorageService, maxImages int) *ProductService {
	return &ProductService{
		products:  products,
		storage:   storage,
		maxImages: maxImages,
		now:       systemClock,
	}
}

func newProductView(p *models.Product, stock int64, locale string) ProductView {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductView{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name(locale),
		Description: p.Description(locale),
		Price:       p.Price,
		Images:      images,
		Metadata:    p.Metadata.Clone(),
		InStock:     p.InStock(stock),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newAdminProductView(p *models.Product, stock int64, locale string) AdminProductView {
	return AdminProductView{
		ProductView:           newProductView(p, stock, locale),
		NameEn:                p.NameEn,
		NameMy:                p.NameMy,
		DescriptionEn:         p.DescriptionEn,
		DescriptionMy:         p.DescriptionMy,
		Disabled:              p.Disabled,
		OutOfStock:            p.OutOfStock,
		AllowSellWithoutStock: p.AllowSellWithoutStock,
		Stock:                 stock,
	}
}

func (s *ProductService) list(ctx context.Context, q ProductQuery) ([]models.Product, map[uuid.UUID]int64, int64, error) {
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return nil, nil, 0, apperror.Field("price_min", "price_min must not exceed price_max")
	}

	products, total, err := s.products.List(ctx, repository.ProductFilter{
		PaginationParams: q.PaginationParams,
		Variety:          q.Variety,
		Weight:           q.Weight,
		PriceMin:         q.PriceMin,
		PriceMax:         q.PriceMax,
		InStock:          q.InStock,
		Disabled:         q.Disabled,
		ExcludeID:        q.ExcludeID,
		Locale:           q.Locale,
	})
	if err != nil {
		return nil, nil, 0, repoError(err, "product")
	}

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	levels, err := s.products.StockLevels(ctx, ids)
	if err != nil {
		return nil, nil, 0, repoError(err, "product")
	}
	return products, levels, total, nil
}

// ListProducts is the storefront listing. Disabled products are never returned.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) ([]ProductView, int64, error) {
	hidden := false
	q.Disabled = &hidden

	products, levels, total, err := s.list(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = newProductView(&products[i], levels[products[i].ID], q.Locale)
	}
	return views, total, nil
}

// ListProductsAdmin honours q.Disabled as given; nil lists both.
func (s *ProductService) ListProductsAdmin(ctx context.Context, q ProductQuery) ([]AdminProductView, int64, error) {
	products, levels, total, err := s.list(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	views := make([]AdminProductView, len(products))
	for i := range products {
		views[i] = newAdminProductView(&products[i], levels[products[i].ID], q.Locale)
	}
	return views, total, nil
}

func (s *ProductService) load(ctx context.Context, id uuid.UUID) (*models.Product, int64, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, 0, repoError(err, "product")
	}
	levels, err := s.products.StockLevels(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, 0, repoError(err, "product")
	}
	return product, levels[id], nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, locale string) (*ProductView, error) {
	product, stock, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Disabled products are invisible outside the back office
	if product.Disabled {
		return nil, apperror.NotFound("product")
	}
	view := newProductView(product, stock, locale)
	return &view, nil
}

func (s *ProductService) GetProductAdmin(ctx context.Context, id uuid.UUID, locale string) (*AdminProductView, error) {
	product, stock, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newAdminProductView(product, stock, locale)
	return &view, nil
}

func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.Field(field, field+" must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return apperror.Field(field, field+" must have at most two decimal places")
	}
	return nil
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CreateProduct stores uploaded images first and removes them again if the
// product cannot be saved.
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *CreateProductRequest, files []*multipart.FileHeader) (*AdminProductView, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validatePrice("price", req.Price); err != nil {
		return nil, err
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, apperror.Field("metadata", err.Error())
	}
	if s.maxImages > 0 && len(req.Images)+len(files) > s.maxImages {
		return nil, apperror.Field("images", "too many images")
	}
	purchasePrice := decimal.Zero
	if req.PurchasePrice != nil {
		if err := validatePrice("purchase_price", *req.PurchasePrice); err != nil {
			return nil, err
		}
		purchasePrice = *req.PurchasePrice
	}

	// Upload images
	uploads, err := s.storage.UploadMany(ctx, files, UploadProductImage)
	if err != nil {
		return nil, err
	}

	images := make(pq.StringArray, 0, len(req.Images)+len(uploads))
	for _, u := range req.Images {
		images = append(images, strings.TrimSpace(u))
	}
	for _, u := range uploads {
		images = append(images, u.URL)
	}

	product := &models.Product{
		SKU:                   normalizeSKU(req.SKU),
		NameEn:                utils.SanitizeText(req.NameEn),
		NameMy:                utils.SanitizeText(req.NameMy),
		DescriptionEn:         utils.SanitizeRichText(req.DescriptionEn),
		DescriptionMy:         utils.SanitizeRichText(req.DescriptionMy),
		Price:                 req.Price.Round(2),
		Images:                images,
		Disabled:              req.Disabled,
		OutOfStock:            req.OutOfStock,
		AllowSellWithoutStock: req.AllowSellWithoutStock,
		Metadata:              req.Metadata.Clone(),
	}
	product.ID = uuid.New()

	if product.NameEn == "" {
		s.storage.Discard(ctx, uploads...)
		return nil, apperror.Field("name_en", "name_en is required")
	}

	var entry *models.StockEntry
	var stock int64
	if req.InitialStock > 0 {
		entry = &models.StockEntry{
			ID:            uuid.New(),
			ProductID:     product.ID,
			Quantity:      req.InitialStock,
			PurchasePrice: purchasePrice,
			Reason:        models.StockReasonPurchase,
			CreatedBy:     &actor.ID,
			Note:          "initial stock",
			CreatedAt:     s.now(),
		}
		stock = req.InitialStock
	}

	// Save product and opening stock together
	if err := s.products.CreateWithStock(ctx, product, entry); err != nil {
		s.storage.Discard(ctx, uploads...)
		return nil, repoError(err, "product")
	}

	view := newAdminProductView(product, stock, models.LocaleEnglish)
	return &view, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*AdminProductView, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "product")
	}

	if req.SKU != nil {
		product.SKU = normalizeSKU(req.SKU)
	}
	if req.NameEn != nil {
		name := utils.SanitizeText(*req.NameEn)
		if name == "" {
			return nil, apperror.Field("name_en", "name_en must not be empty")
		}
		product.NameEn = name
	}
	if req.NameMy != nil {
		product.NameMy = utils.SanitizeText(*req.NameMy)
	}
	if req.DescriptionEn != nil {
		product.DescriptionEn = utils.SanitizeRichText(*req.DescriptionEn)
	}
	if req.DescriptionMy != nil {
		product.DescriptionMy = utils.SanitizeRichText(*req.DescriptionMy)
	}
	if req.Price != nil {
		if err := validatePrice("price", *req.Price); err != nil {
			return nil, err
		}
		product.Price = req.Price.Round(2)
	}
	if req.Images != nil {
		if s.maxImages > 0 && len(*req.Images) > s.maxImages {
			return nil, apperror.Field("images", "too many images")
		}
		product.Images = pq.StringArray(*req.Images)
	}
	if req.Disabled != nil {
		product.Disabled = *req.Disabled
	}
	if req.OutOfStock != nil {
		product.OutOfStock = *req.OutOfStock
	}
	if req.AllowSellWithoutStock != nil {
		product.AllowSellWithoutStock = *req.AllowSellWithoutStock
	}
	if req.Metadata != nil {
		if err := req.Metadata.Validate(); err != nil {
			return nil, apperror.Field("metadata", err.Error())
		}
		product.Metadata = req.Metadata.Clone()
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, repoError(err, "product")
	}

	levels, err := s.products.StockLevels(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, repoError(err, "product")
	}
	view := newAdminProductView(product, levels[id], models.LocaleEnglish)
	return &view, nil
}

// AddStockEntry appends a ledger row. Negative adjustments may not take a
// product without backorder below zero.
func (s *ProductService) AddStockEntry(ctx context.Context, actor Actor, req *AddStockEntryRequest) (*models.StockEntry, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validatePrice("purchase_price", req.PurchasePrice); err != nil {
		return nil, err
	}

	product, stock, err := s.load(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = models.StockReasonPurchase
		if req.Quantity < 0 {
			reason = models.StockReasonAdjustment
		}
	}
	if reason == models.StockReasonPurchase && req.Quantity < 0 {
		return nil, apperror.Field("quantity", "purchases must add stock")
	}
	if req.Quantity < 0 && !product.AllowSellWithoutStock && stock+req.Quantity < 0 {
		return nil, apperror.Field("quantity", "adjustment would make stock negative")
	}

	entry := &models.StockEntry{
		ID:            uuid.New(),
		ProductID:     product.ID,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice.Round(2),
		Reason:        reason,
		CreatedBy:     &actor.ID,
		Note:          utils.SanitizeText(req.Note),
		CreatedAt:     s.now(),
	}
	if err := s.products.AddStockEntry(ctx, entry); err != nil {
		return nil, repoError(err, "product")
	}
	return entry, nil
}

func (s *ProductService) ListStockEntries(ctx context.Context, productID uuid.UUID, page utils.PaginationParams) (*StockLedger, int64, error) {
	_, stock, err := s.load(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	entries, total, err := s.products.ListStockEntries(ctx, productID, page)
	if err != nil {
		return nil, 0, repoError(err, "product")
	}
	if entries == nil {
		entries = []models.StockEntry{}
	}
	return &StockLedger{ProductID: productID, Stock: stock, Entries: entries}, total, nil
}
