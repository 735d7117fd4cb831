package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListQuery is what the admin tables send: paging, one sort column and the
// optional status/email filters.
type ListQuery struct {
	Page    int
	PerPage int
	Sort    string // column, "-" prefix for descending
	Status  string
	Email   string
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	q.Sort = strings.TrimSpace(q.Sort)
	q.Status = strings.TrimSpace(q.Status)
	q.Email = strings.ToLower(strings.TrimSpace(q.Email))
	return q
}

type PageResult struct {
	Rows    any   `json:"data"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// Resource is the untyped face of a table, so one controller can serve every
// admin screen.
type Resource interface {
	List(ctx context.Context, q ListQuery) (*PageResult, error)
	Get(ctx context.Context, id uint) (any, error)
	Create(ctx context.Context, body []byte) (any, error)
	Update(ctx context.Context, id uint, body []byte) (any, error)
	Delete(ctx context.Context, id uint) error
}

// Repository is a thin pass-through over gorm for one table. No retries and no
// optimistic locking: the last write wins.
type Repository[T any] struct {
	db        *gorm.DB
	validate  *validator.Validate
	sortable  map[string]bool
	updatable map[string]bool
	filters   map[string]bool
}

type RepositoryOptions struct {
	Sortable  []string
	Updatable []string
	Filters   []string // subset of "status", "email"
}

func NewRepository[T any](db *gorm.DB, opts RepositoryOptions) *Repository[T] {
	set := func(cols []string) map[string]bool {
		m := map[string]bool{}
		for _, c := range cols {
			m[c] = true
		}
		return m
	}
	sortable := set(opts.Sortable)
	for _, c := range []string{"id", "created_at", "updated_at"} {
		sortable[c] = true
	}
	return &Repository[T]{
		db:        db,
		validate:  validator.New(),
		sortable:  sortable,
		updatable: set(opts.Updatable),
		filters:   set(opts.Filters),
	}
}

func (r *Repository[T]) List(ctx context.Context, q ListQuery) (*PageResult, error) {
	q = q.normalize()
	tx := r.db.WithContext(ctx).Model(new(T))
	if q.Status != "" && r.filters["status"] {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Email != "" && r.filters["email"] {
		tx = tx.Where("LOWER(email) = ?", q.Email)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	order, err := r.orderClause(q.Sort)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if err := tx.Order(order).Offset((q.Page - 1) * q.PerPage).Limit(q.PerPage).Find(&rows).Error; err != nil {
		return nil, err
	}
	return &PageResult{Rows: rows, Page: q.Page, PerPage: q.PerPage, Total: total}, nil
}

func (r *Repository[T]) orderClause(sortParam string) (string, error) {
	if sortParam == "" {
		return "id DESC", nil
	}
	dir := "ASC"
	col := sortParam
	if strings.HasPrefix(col, "-") {
		dir, col = "DESC", col[1:]
	}
	if !r.sortable[col] {
		return "", fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, col)
	}
	return col + " " + dir, nil
}

func (r *Repository[T]) find(ctx context.Context, id uint) (*T, error) {
	row := new(T)
	if err := r.db.WithContext(ctx).First(row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func (r *Repository[T]) Get(ctx context.Context, id uint) (any, error) {
	return r.find(ctx, id)
}

// serverOwned are the columns a create body may not set. encoding/json matches
// field names case-insensitively, so keys are compared lowercased.
var serverOwned = map[string]bool{
	"id": true, "ref": true,
	"createdat": true, "created_at": true,
	"updatedat": true, "updated_at": true,
	"deletedat": true, "deleted_at": true,
}

func (r *Repository[T]) Create(ctx context.Context, body []byte) (any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	for k := range raw {
		if serverOwned[strings.ToLower(k)] {
			delete(raw, k)
		}
	}
	clean, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	row := new(T)
	if err := json.Unmarshal(clean, row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if err := r.validate.Struct(row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, writeError(err)
	}
	return row, nil
}

// writeError maps unique-index violations to ErrConflict. The db must be
// opened with TranslateError for the driver to report gorm.ErrDuplicatedKey.
func writeError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: a row with that unique value already exists", ErrConflict)
	}
	return err
}

// Update applies the allow-listed columns present in body.
func (r *Repository[T]) Update(ctx context.Context, id uint, body []byte) (any, error) {
	fields, err := r.updateFields(body)
	if err != nil {
		return nil, err
	}
	row, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(row).Updates(fields).Error; err != nil {
		return nil, writeError(err)
	}
	return r.find(ctx, id)
}

func (r *Repository[T]) updateFields(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	fields := map[string]any{}
	var rejected []string
	for k, v := range raw {
		if !r.updatable[k] {
			rejected = append(rejected, k)
			continue
		}
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = i
			} else if f, err := n.Float64(); err == nil {
				v = f
			}
		}
		fields[k] = v
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return nil, fmt.Errorf("%w: fields not editable: %s", ErrInvalidQuery, strings.Join(rejected, ", "))
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidQuery)
	}
	return fields, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdminService maps the back-office resource names onto their tables.
type AdminService struct {
	resources map[string]Resource
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{resources: map[string]Resource{
		"customers": NewRepository[models.Customer](db, RepositoryOptions{
			Sortable:  []string{"email", "full_name", "status"},
			Updatable: []string{"email", "full_name", "phone", "country", "status"},
			Filters:   []string{"status", "email"},
		}),
		"products": NewRepository[models.Product](db, RepositoryOptions{
			Sortable:  []string{"name", "sku", "price_cents", "stock", "status"},
			Updatable: []string{"sku", "name", "description", "price_cents", "currency", "stock", "status"},
			Filters:   []string{"status"},
		}),
		"orders": NewRepository[models.Order](db, RepositoryOptions{
			Sortable:  []string{"total_cents", "status", "email"},
			Updatable: []string{"email", "status", "currency"},
			Filters:   []string{"status", "email"},
		}),
		"subscriptions": NewRepository[models.Subscription](db, RepositoryOptions{
			Sortable:  []string{"status", "next_delivery", "email"},
			Updatable: []string{"status", "interval", "product_sku", "next_delivery"},
			Filters:   []string{"status", "email"},
		}),
		"tickets": NewRepository[models.SupportTicket](db, RepositoryOptions{
			Sortable:  []string{"priority", "status", "email"},
			Updatable: []string{"subject", "body", "priority", "status"},
			Filters:   []string{"status", "email"},
		}),
	}}
}

func (s *AdminService) Resource(name string) (Resource, error) {
	r, ok := s.resources[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return r, nil
}

// Names lists the registered resources alphabetically.
func (s *AdminService) Names() []string {
	out := make([]string, 0, len(s.resources))
	for k := range s.resources {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
