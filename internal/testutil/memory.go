// internal/testutil/memory.go

// Package testutil provides in-memory repositories and fixtures for service
// and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// Store keeps every table in memory. All repositories returned by
// Repositories share it, so order writes see the stock ledger atomically.
type Store struct {
	mu sync.Mutex

	products map[uuid.UUID]models.Product
	entries  []models.StockEntry
	orders   map[uuid.UUID]models.Order
	history  []models.OrderStatusHistory
	refunds  []models.Refund
	accounts map[uuid.UUID]models.CompanyPaymentAccount
	methods  map[uuid.UUID]models.PaymentMethod
	users    map[uuid.UUID]models.User
	audits   []models.AuditLog

	clock    time.Time
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		products: make(map[uuid.UUID]models.Product),
		orders:   make(map[uuid.UUID]models.Order),
		accounts: make(map[uuid.UUID]models.CompanyPaymentAccount),
		methods:  make(map[uuid.UUID]models.PaymentMethod),
		users:    make(map[uuid.UUID]models.User),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		failures: make(map[string]error),
	}
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Products:       &productRepo{s},
		Orders:         &orderRepo{s},
		Refunds:        &refundRepo{s},
		CompanyAccount: &accountRepo{s},
		PaymentMethods: &methodRepo{s},
		Users:          &userRepo{s},
		AuditLogs:      &auditRepo{s},
	}
}

// FailNext makes the next call of op ("orders.Apply", "products.Create", ...)
// return err without touching any data.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	err, ok := s.failures[op]
	if ok {
		delete(s.failures, op)
	}
	return err
}

// tick returns a strictly increasing timestamp so ordering by created_at is stable.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) level(productID uuid.UUID) int64 {
	var total int64
	for _, e := range s.entries {
		if e.ProductID == productID {
			total += e.Quantity
		}
	}
	return total
}

// StockLevel returns the net ledger quantity of a product.
func (s *Store) StockLevel(productID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level(productID)
}

// StockEntries returns the ledger rows of a product in insertion order.
func (s *Store) StockEntries(productID uuid.UUID) []models.StockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StockEntry
	for _, e := range s.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out
}

// Refunds returns the refunds of an order in insertion order.
func (s *Store) Refunds(orderID uuid.UUID) []models.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderRefunds(orderID)
}

func (s *Store) orderRefunds(orderID uuid.UUID) []models.Refund {
	var out []models.Refund
	for _, r := range s.refunds {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out
}

// OrderCount returns how many orders are stored.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// SaveUser overwrites a stored user, e.g. to suspend it.
func (s *Store) SaveUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
}

// AuditLogs returns the audit rows in insertion order.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.audits...)
}

func copyProduct(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	p.Metadata = p.Metadata.Clone()
	if p.SKU != nil {
		sku := *p.SKU
		p.SKU = &sku
	}
	return p
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	o.Refunds = append([]models.Refund(nil), o.Refunds...)
	o.CompanyPaymentAccount = nil
	return o
}

func paginate[T any](items []T, p utils.PaginationParams) []T {
	if p.Limit <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	return r.CreateWithStock(ctx, product, nil)
}

// CreateWithStock writes nothing when either insert is set to fail.
func (r *productRepo) CreateWithStock(_ context.Context, product *models.Product, entry *models.StockEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("products.Create"); err != nil {
		return err
	}
	if entry != nil {
		if err := s.fail("products.AddStockEntry"); err != nil {
			return err
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.SKU != nil {
		for _, p := range s.products {
			if p.SKU != nil && *p.SKU == *product.SKU {
				return repository.ErrDuplicate
			}
		}
	}
	now := s.tick()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = copyProduct(*product)
	if entry != nil {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = s.tick()
		}
		s.entries = append(s.entries, *entry)
	}
	return nil
}

func (r *productRepo) Save(_ context.Context, product *models.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("products.Save"); err != nil {
		return err
	}
	if product.SKU != nil {
		for id, p := range s.products {
			if id != product.ID && p.SKU != nil && *p.SKU == *product.SKU {
				return repository.ErrDuplicate
			}
		}
	}
	product.UpdatedAt = s.tick()
	s.products[product.ID] = copyProduct(*product)
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyProduct(p)
	return &out, nil
}

func (r *productRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(f.Search)
	var matched []models.Product
	for _, p := range s.products {
		if f.Disabled != nil && p.Disabled != *f.Disabled {
			continue
		}
		if term != "" {
			sku := ""
			if p.SKU != nil {
				sku = *p.SKU
			}
			haystack := strings.ToLower(strings.Join([]string{p.NameEn, p.NameMy, p.DescriptionEn, p.DescriptionMy, sku}, "\x00"))
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		if f.Variety != "" && p.Metadata.String(models.MetaVariety) != f.Variety {
			continue
		}
		if f.Weight != "" && p.Metadata.String(models.MetaWeight) != f.Weight {
			continue
		}
		if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
			continue
		}
		if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
			continue
		}
		if f.InStock != nil && p.InStock(s.level(p.ID)) != *f.InStock {
			continue
		}
		if f.ExcludeID != nil && p.ID == *f.ExcludeID {
			continue
		}
		matched = append(matched, copyProduct(p))
	}

	var less func(a, b models.Product) bool
	switch f.Sort {
	case "price_asc":
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	case "price_desc":
		less = func(a, b models.Product) bool { return a.Price.GreaterThan(b.Price) }
	case "name":
		less = func(a, b models.Product) bool { return a.Name(f.Locale) < b.Name(f.Locale) }
	case "oldest":
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		less = func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(matched, func(i, j int) bool { return less(matched[i], matched[j]) })

	return paginate(matched, f.PaginationParams), int64(len(matched)), nil
}

func (r *productRepo) StockLevels(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	levels := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		levels[id] = s.level(id)
	}
	return levels, nil
}

func (r *productRepo) AddStockEntry(_ context.Context, entry *models.StockEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("products.AddStockEntry"); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.tick()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (r *productRepo) ListStockEntries(_ context.Context, productID uuid.UUID, page utils.PaginationParams) ([]models.StockEntry, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StockEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].ProductID == productID {
			out = append(out, s.entries[i])
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

func (r *productRepo) LowStock(_ context.Context, threshold int64, limit int) ([]repository.ProductStock, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ProductStock
	for _, p := range s.products {
		if p.Disabled || p.AllowSellWithoutStock {
			continue
		}
		if level := s.level(p.ID); level <= threshold {
			out = append(out, repository.ProductStock{Product: copyProduct(p), Stock: level})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type orderRepo struct{ s *Store }

// guard checks the ledger as it would be after entries are added.
func (s *Store) guard(change *repository.OrderChange) error {
	for _, id := range change.StockGuard {
		var delta int64
		for _, e := range change.StockEntries {
			if e.ProductID == id {
				delta += e.Quantity
			}
		}
		current := s.level(id)
		if current+delta < 0 {
			return &repository.StockShortage{ProductID: id, Available: current}
		}
	}
	return nil
}

// writeSideEffects mirrors the gorm transaction body. Callers hold the lock
// and have already checked the guard.
func (s *Store) writeSideEffects(change *repository.OrderChange) error {
	for _, done := range change.CompletedRefunds {
		found := false
		for _, r := range s.refunds {
			if r.ID == done.ID && r.Status == models.RefundStatusPending {
				found = true
			}
		}
		if !found {
			return repository.ErrConflict
		}
	}

	for _, e := range change.StockEntries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.tick()
		}
		s.entries = append(s.entries, e)
	}
	for _, r := range change.NewRefunds {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.tick()
		}
		s.refunds = append(s.refunds, r)
	}
	for _, done := range change.CompletedRefunds {
		for i := range s.refunds {
			if s.refunds[i].ID == done.ID {
				s.refunds[i].Status = models.RefundStatusCompleted
				s.refunds[i].CompletedAt = done.CompletedAt
				s.refunds[i].CompletedBy = done.CompletedBy
			}
		}
	}
	if change.History != nil {
		h := *change.History
		if h.CreatedAt.IsZero() {
			h.CreatedAt = s.tick()
		}
		s.history = append(s.history, h)
	}
	return nil
}

func (r *orderRepo) Create(_ context.Context, change *repository.OrderChange) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("orders.Create"); err != nil {
		return err
	}

	order := change.Order
	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	if err := s.guard(change); err != nil {
		return err
	}
	if err := s.writeSideEffects(change); err != nil {
		return err
	}

	now := s.tick()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := copyOrder(*order)
	stored.Refunds = nil
	s.orders[order.ID] = stored
	return nil
}

func (r *orderRepo) Apply(_ context.Context, change *repository.OrderChange) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("orders.Apply"); err != nil {
		return err
	}

	current, ok := s.orders[change.Order.ID]
	if !ok || current.Version != change.ExpectedVersion {
		return repository.ErrConflict
	}
	if err := s.guard(change); err != nil {
		return err
	}
	if err := s.writeSideEffects(change); err != nil {
		return err
	}

	change.Order.UpdatedAt = s.tick()
	stored := copyOrder(*change.Order)
	stored.Items = current.Items
	stored.Refunds = nil
	s.orders[change.Order.ID] = stored
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := s.hydrate(o)
	return &out, nil
}

func (s *Store) hydrate(o models.Order) models.Order {
	out := copyOrder(o)
	sort.SliceStable(out.Items, func(i, j int) bool { return out.Items[i].Position < out.Items[j].Position })
	out.Refunds = s.orderRefunds(o.ID)
	if o.CompanyPaymentAccountID != nil {
		if a, ok := s.accounts[*o.CompanyPaymentAccountID]; ok {
			out.CompanyPaymentAccount = &a
		}
	}
	return out
}

func (r *orderRepo) List(_ context.Context, f repository.OrderFilter) ([]models.Order, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(f.Search)
	var matched []models.Order
	for _, o := range s.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentType != "" && o.PaymentType != f.PaymentType {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(o.OrderNumber), term) {
			continue
		}
		matched = append(matched, s.hydrate(o))
	}

	var less func(a, b models.Order) bool
	switch f.Sort {
	case "oldest":
		less = func(a, b models.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "total_asc":
		less = func(a, b models.Order) bool { return a.Total.LessThan(b.Total) }
	case "total_desc":
		less = func(a, b models.Order) bool { return a.Total.GreaterThan(b.Total) }
	default:
		less = func(a, b models.Order) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(matched, func(i, j int) bool { return less(matched[i], matched[j]) })

	return paginate(matched, f.PaginationParams), int64(len(matched)), nil
}

func (r *orderRepo) History(_ context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OrderStatusHistory
	for _, h := range s.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *orderRepo) CountByStatus(_ context.Context) (map[models.OrderStatus]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		counts[st] = 0
	}
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (r *orderRepo) SumTotal(_ context.Context, statuses []models.OrderStatus) (decimal.Decimal, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, o := range s.orders {
		for _, st := range statuses {
			if o.Status == st {
				total = total.Add(o.Total)
			}
		}
	}
	return total, nil
}

func (r *orderRepo) CountByCompanyAccount(_ context.Context, accountID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, o := range s.orders {
		if o.CompanyPaymentAccountID != nil && *o.CompanyPaymentAccountID == accountID {
			n++
		}
	}
	return n, nil
}

type refundRepo struct{ s *Store }

func (r *refundRepo) List(_ context.Context, status models.RefundStatus, page utils.PaginationParams) ([]models.Refund, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Refund
	for i := len(s.refunds) - 1; i >= 0; i-- {
		if status == "" || s.refunds[i].Status == status {
			out = append(out, s.refunds[i])
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

func (r *refundRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Refund, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, refund := range s.refunds {
		if refund.ID == id {
			out := refund
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *refundRepo) Complete(_ context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.refunds {
		if s.refunds[i].ID == id && s.refunds[i].Status == models.RefundStatusPending {
			s.refunds[i].Status = models.RefundStatusCompleted
			s.refunds[i].CompletedAt = &at
			s.refunds[i].CompletedBy = &by
			return nil
		}
	}
	return repository.ErrConflict
}

type accountRepo struct{ s *Store }

func (r *accountRepo) List(_ context.Context, activeOnly bool) ([]models.CompanyPaymentAccount, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CompanyPaymentAccount
	for _, a := range s.accounts {
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *accountRepo) FindByID(_ context.Context, id uuid.UUID) (*models.CompanyPaymentAccount, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *accountRepo) Create(_ context.Context, account *models.CompanyPaymentAccount) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := s.tick()
	account.CreatedAt, account.UpdatedAt = now, now
	s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) Save(_ context.Context, account *models.CompanyPaymentAccount) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	account.UpdatedAt = s.tick()
	s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

type methodRepo struct{ s *Store }

func (r *methodRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentMethod
	for _, m := range s.methods {
		if m.UserID == userID && !m.DeletedAt.Valid {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *methodRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok || m.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *methodRepo) Create(_ context.Context, method *models.PaymentMethod) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	now := s.tick()
	method.CreatedAt, method.UpdatedAt = now, now
	s.methods[method.ID] = *method
	return nil
}

func (r *methodRepo) Save(_ context.Context, method *models.PaymentMethod) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	method.UpdatedAt = s.tick()
	s.methods[method.ID] = *method
	return nil
}

func (r *methodRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok || m.DeletedAt.Valid {
		return repository.ErrNotFound
	}
	m.DeletedAt = gorm.DeletedAt{Time: s.tick(), Valid: true}
	s.methods[id] = m
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Save(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = s.tick()
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) TouchLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	s.users[id] = u
	return nil
}

func (r *userRepo) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(_ context.Context, log *models.AuditLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.tick()
	}
	s.audits = append(s.audits, *log)
	return nil
}

func (r *auditRepo) List(_ context.Context, f repository.AuditFilter) ([]models.AuditLog, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLog
	for i := len(s.audits) - 1; i >= 0; i-- {
		a := s.audits[i]
		if f.UserID != nil && (a.UserID == nil || *a.UserID != *f.UserID) {
			continue
		}
		if f.ResourceType != "" && a.ResourceType != f.ResourceType {
			continue
		}
		if f.Action != "" && a.Action != f.Action {
			continue
		}
		out = append(out, a)
	}
	return paginate(out, f.PaginationParams), int64(len(out)), nil
}
