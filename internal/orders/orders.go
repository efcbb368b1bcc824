// Package orders persists placed orders and their lines. Orders are
// snapshots: money fields and line prices are written once at placement
// and only the status changes afterwards.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

const DefaultPerPage = 10

type Store struct {
	DB *sql.DB
}

// Filter narrows admin and customer listings. Zero values match everything.
type Filter struct {
	UserID      int64
	Status      models.OrderStatus
	PaymentCode string
	From, To    *time.Time
	Page        int
	PerPage     int
}

// Page is one page of a listing.
type Page struct {
	Orders      []models.Order `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int            `json:"total"`
}

// Create inserts the order row and sets o.ID.
func Create(ctx context.Context, q database.Querier, o *models.Order) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO orders (user_id, address_id, subtotal, shipping, total, payment_code, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.AddressID, o.Subtotal, o.Shipping, o.Total, o.PaymentCode, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// AddLine inserts one order line and sets l.ID.
func AddLine(ctx context.Context, q database.Querier, l *models.OrderLine) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO order_lines (order_id, product_id, variant_id, product_name, unit_price, quantity, line_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.OrderID, l.ProductID, l.VariantID, l.ProductName, l.UnitPrice, l.Quantity, l.LineTotal, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

const orderQuery = `
	SELECT o.id, o.user_id, o.address_id, o.subtotal, o.shipping, o.total, o.payment_code,
		o.status, o.created_at, o.updated_at,
		u.id, u.first_name, u.last_name, u.email, u.role, u.created_at, u.updated_at
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		o                 models.Order
		uid               sql.NullInt64
		first, last, mail sql.NullString
		role              sql.NullString
		uc, uu            sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Subtotal, &o.Shipping, &o.Total, &o.PaymentCode,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
		&uid, &first, &last, &mail, &role, &uc, &uu); err != nil {
		return nil, err
	}
	if uid.Valid {
		o.User = &models.User{
			ID:        uid.Int64,
			FirstName: first.String,
			LastName:  last.String,
			Email:     mail.String,
			Role:      role.String,
			CreatedAt: uc.Time,
			UpdatedAt: uu.Time,
		}
	}
	return &o, nil
}

// Get reloads an order with its user, address and zone, and lines. Lines
// whose product or variant was deleted keep their recorded values with a
// nil live row.
func Get(ctx context.Context, q database.Querier, id int64) (*models.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, orderQuery+" WHERE o.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if err := loadDetails(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func loadDetails(ctx context.Context, q database.Querier, o *models.Order) error {
	a, err := addresses.Lookup(ctx, q, o.AddressID)
	switch {
	case err == nil:
		o.Address = a
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	o.Lines, err = Lines(ctx, q, o.ID)
	return err
}

const lineQuery = `
	SELECT ol.id, ol.order_id, ol.product_id, ol.variant_id, ol.product_name, ol.unit_price,
		ol.quantity, ol.line_total, ol.created_at,
		p.id, p.name, p.slug, p.description, p.image, p.buying_price, p.regular_price, p.discount,
		p.selling_price, p.quantity,
		v.id, v.color, v.size, v.buying_price, v.regular_price, v.discount, v.selling_price, v.quantity
	FROM order_lines ol
	LEFT JOIN products p ON p.id = ol.product_id
	LEFT JOIN product_variants v ON v.id = ol.variant_id`

// Lines returns an order's lines in insertion order.
func Lines(ctx context.Context, q database.Querier, orderID int64) ([]models.OrderLine, error) {
	rows, err := q.QueryContext(ctx, lineQuery+" WHERE ol.order_id = ? ORDER BY ol.id ASC", orderID)
	if err != nil {
		return nil, fmt.Errorf("load lines of order %d: %w", orderID, err)
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var (
			l         models.OrderLine
			variantID sql.NullInt64

			pid                         sql.NullInt64
			pname, pslug, pdesc, pimage sql.NullString
			pbuy, preg, pdisc, psell    sql.NullFloat64
			pqty                        sql.NullInt64
			vid                         sql.NullInt64
			vcolor, vsize               sql.NullString
			vbuy, vreg, vdisc, vsell    sql.NullFloat64
			vqty                        sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &variantID, &l.ProductName, &l.UnitPrice,
			&l.Quantity, &l.LineTotal, &l.CreatedAt,
			&pid, &pname, &pslug, &pdesc, &pimage, &pbuy, &preg, &pdisc, &psell, &pqty,
			&vid, &vcolor, &vsize, &vbuy, &vreg, &vdisc, &vsell, &vqty); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		l.VariantID = database.Int64Ptr(variantID)
		if pid.Valid {
			l.Product = &models.Product{
				ID:           pid.Int64,
				Name:         pname.String,
				Slug:         pslug.String,
				Description:  pdesc.String,
				Image:        database.StringPtr(pimage),
				BuyingPrice:  database.FloatPtr(pbuy),
				RegularPrice: preg.Float64,
				Discount:     pdisc.Float64,
				SellingPrice: psell.Float64,
				Quantity:     int(pqty.Int64),
			}
		}
		if vid.Valid {
			l.Variant = &models.ProductVariant{
				ID:           vid.Int64,
				ProductID:    l.ProductID,
				Color:        vcolor.String,
				Size:         database.StringPtr(vsize),
				BuyingPrice:  database.FloatPtr(vbuy),
				RegularPrice: database.FloatPtr(vreg),
				Discount:     database.FloatPtr(vdisc),
				SellingPrice: database.FloatPtr(vsell),
				Quantity:     int(vqty.Int64),
			}
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

// Get is the Store form of the package-level Get.
func (s *Store) Get(ctx context.Context, id int64) (*models.Order, error) {
	return Get(ctx, s.DB, id)
}

// ListForUser returns the caller's orders, newest first.
func (s *Store) ListForUser(ctx context.Context, p models.Principal, f Filter) (*Page, error) {
	f.UserID = p.UserID
	f.PaymentCode = ""
	f.From, f.To = nil, nil
	return s.List(ctx, f)
}

// List returns a filtered page of orders, newest first.
func (s *Store) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}

	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where = append(where, "o.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentCode != "" {
		where = append(where, "o.payment_code = ?")
		args = append(args, f.PaymentCode)
	}
	if f.From != nil && f.To != nil {
		where = append(where, "o.created_at BETWEEN ? AND ?")
		args = append(args, f.From.UTC(), f.To.UTC())
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := &Page{CurrentPage: f.Page, PerPage: f.PerPage, Orders: []models.Order{}}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+clause, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		orderQuery+clause+" ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?",
		append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		page.Orders = append(page.Orders, *o)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range page.Orders {
		if err := loadDetails(ctx, s.DB, &page.Orders[i]); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// UpdateStatus moves an order forward through pending, processing and
// delivered. Any other move returns models.ErrInvalidTransition.
func (s *Store) UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) (*models.Order, error) {
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var current models.OrderStatus
		err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get order %d: %w", id, err)
		}
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%s to %s: %w", current, next, models.ErrInvalidTransition)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			next, time.Now().UTC(), id, current)
		if err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(ctx, s.DB, id)
}

// Profit sums (recorded unit price - current buying cost) x quantity over
// the lines whose product still exists.
func (s *Store) Profit(ctx context.Context, id int64) (float64, error) {
	o, err := Get(ctx, s.DB, id)
	if err != nil {
		return 0, err
	}

	var profit float64
	for _, l := range o.Lines {
		if l.Product == nil {
			continue
		}
		cost := models.EffectiveBuyingPrice(l.Product, l.Variant)
		profit += (l.UnitPrice - cost) * float64(l.Quantity)
	}
	return models.RoundMoney(profit), nil
}

// Stats summarizes every order for the admin dashboard.
type Stats struct {
	ByStatus map[models.OrderStatus]int `json:"orders_by_status"`
	Orders   int                        `json:"total_orders"`
	Revenue  float64                    `json:"total_revenue"`
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	st := &Stats{ByStatus: map[models.OrderStatus]int{
		models.OrderPending:    0,
		models.OrderProcessing: 0,
		models.OrderDelivered:  0,
	}}
	for rows.Next() {
		var (
			status  models.OrderStatus
			n       int
			revenue float64
		)
		if err := rows.Scan(&status, &n, &revenue); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		st.ByStatus[status] = n
		st.Orders += n
		st.Revenue += revenue
	}
	st.Revenue = models.RoundMoney(st.Revenue)
	return st, rows.Err()
}
