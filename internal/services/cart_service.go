// internal/services/cart_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// CartService prices a client-side cart. Nothing is persisted.
type CartService struct {
	products repository.ProductRepository
}

type CartLine struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int64            `json:"quantity" validate:"required,min=1,max=10000"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CartQuoteRequest struct {
	Items []CartLine `json:"items" validate:"required,min=1,max=100,dive"`
}

type QuoteLine struct {
	ProductID    uuid.UUID        `json:"product_id"`
	Name         string           `json:"name"`
	Image        string           `json:"image,omitempty"`
	Quantity     int64            `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	LineTotal    decimal.Decimal  `json:"line_total"`
	Available    bool             `json:"available"`
	PriceChanged bool             `json:"price_changed"`
	QuotedPrice  *decimal.Decimal `json:"quoted_price,omitempty"`
}

type CartQuote struct {
	Items        []QuoteLine     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Available    bool            `json:"available"`
	PriceChanged bool            `json:"price_changed"`
}

func NewCartService(products repository.ProductRepository) *CartService {
	return &CartService{products: products}
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(lines []CartLine) []CartLine {
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func (s *CartService) Quote(ctx context.Context, req *CartQuoteRequest, locale string) (*CartQuote, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	lines := mergeLines(req.Items)
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, repoError(err, "product")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	levels, err := s.products.StockLevels(ctx, ids)
	if err != nil {
		return nil, repoError(err, "product")
	}

	quote := &CartQuote{
		Items:     make([]QuoteLine, 0, len(lines)),
		Total:     decimal.Zero,
		Available: true,
	}
	for _, line := range lines {
		out := QuoteLine{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			QuotedPrice: line.UnitPrice,
		}

		p, ok := byID[line.ProductID]
		if !ok || p.Disabled {
			// Unknown and disabled products quote as unavailable lines
			quote.Available = false
			quote.Items = append(quote.Items, out)
			continue
		}

		out.Name = p.Name(locale)
		if len(p.Images) > 0 {
			out.Image = p.Images[0]
		}
		out.UnitPrice = p.Price
		out.LineTotal = p.Price.Mul(decimal.NewFromInt(line.Quantity))
		out.Available = p.Sellable(levels[p.ID], line.Quantity)
		out.PriceChanged = line.UnitPrice != nil && !line.UnitPrice.Equal(p.Price)

		if !out.Available {
			quote.Available = false
		}
		if out.PriceChanged {
			quote.PriceChanged = true
		}
		quote.Total = quote.Total.Add(out.LineTotal)
		quote.Items = append(quote.Items, out)
	}
	return quote, nil
}
