// internal/repository/product_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

const stockSumExpr = "(SELECT COALESCE(SUM(se.quantity), 0) FROM stock_entries se WHERE se.product_id = products.id)"

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepository) CreateWithStock(ctx context.Context, product *models.Product, entry *models.StockEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return translate(err)
		}
		if entry == nil {
			return nil
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record opening stock: %w", translate(err))
		}
		return nil
	})
}

func (r *productRepository) Save(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error)
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func productSorts(locale string) map[string]string {
	nameCol := "name_en"
	if locale == models.LocaleMyanmar {
		nameCol = "COALESCE(NULLIF(name_my, ''), name_en)"
	}
	return map[string]string{
		"price_asc":  "price ASC",
		"price_desc": "price DESC",
		"name":       nameCol + " ASC",
		"newest":     "created_at DESC",
		"oldest":     "created_at ASC",
	}
}

func (r *productRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if f.Disabled != nil {
		query = query.Where("disabled = ?", *f.Disabled)
	}

	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where(
			"(LOWER(name_en) LIKE ? OR LOWER(name_my) LIKE ? OR LOWER(description_en) LIKE ? OR LOWER(description_my) LIKE ? OR LOWER(COALESCE(sku, '')) LIKE ?)",
			term, term, term, term, term,
		)
	}

	if f.Variety != "" {
		query = query.Where("metadata->>? = ?", models.MetaVariety, f.Variety)
	}

	if f.Weight != "" {
		query = query.Where("metadata->>? = ?", models.MetaWeight, f.Weight)
	}

	if f.PriceMin != nil {
		query = query.Where("price >= ?", *f.PriceMin)
	}

	if f.PriceMax != nil {
		query = query.Where("price <= ?", *f.PriceMax)
	}

	if f.InStock != nil {
		available := fmt.Sprintf("(out_of_stock = false AND (allow_sell_without_stock = true OR %s > 0))", stockSumExpr)
		if *f.InStock {
			query = query.Where(available)
		} else {
			query = query.Where("NOT " + available)
		}
	}

	if f.ExcludeID != nil {
		query = query.Where("id <> ?", *f.ExcludeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, f.PaginationParams, productSorts(f.Locale), "created_at DESC")
	query = utils.ApplyPagination(query, f.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

type stockRow struct {
	ProductID uuid.UUID
	Quantity  int64
}

func stockLevels(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	levels := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}
	for _, id := range ids {
		levels[id] = 0
	}

	var rows []stockRow
	err := db.Raw(
		"SELECT product_id, COALESCE(SUM(quantity), 0) AS quantity FROM stock_entries WHERE product_id IN ? GROUP BY product_id",
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock entries: %w", err)
	}

	for _, row := range rows {
		levels[row.ProductID] = row.Quantity
	}
	return levels, nil
}

func (r *productRepository) StockLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return stockLevels(r.db.WithContext(ctx), ids)
}

func (r *productRepository) AddStockEntry(ctx context.Context, entry *models.StockEntry) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *productRepository) ListStockEntries(ctx context.Context, productID uuid.UUID, page utils.PaginationParams) ([]models.StockEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockEntry{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock entries: %w", err)
	}

	var entries []models.StockEntry
	if err := utils.ApplyPagination(query.Order("created_at DESC"), page).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock entries: %w", err)
	}
	return entries, total, nil
}

type lowStockRow struct {
	ID    uuid.UUID
	Stock int64
}

func (r *productRepository) LowStock(ctx context.Context, threshold int64, limit int) ([]ProductStock, error) {
	var rows []lowStockRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id, COALESCE(SUM(se.quantity), 0) AS stock
		FROM products p
		LEFT JOIN stock_entries se ON se.product_id = p.id
		WHERE p.deleted_at IS NULL AND p.disabled = false AND p.allow_sell_without_stock = false
		GROUP BY p.id
		HAVING COALESCE(SUM(se.quantity), 0) <= ?
		ORDER BY stock ASC
		LIMIT ?`, threshold, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	products, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]ProductStock, 0, len(rows))
	for _, row := range rows {
		if p, ok := byID[row.ID]; ok {
			out = append(out, ProductStock{Product: p, Stock: row.Stock})
		}
	}
	return out, nil
}
