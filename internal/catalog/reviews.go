package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// Reviews stores product reviews.
type Reviews struct {
	DB *sql.DB
}

// Newsletter stores newsletter subscriptions.
type Newsletter struct {
	DB *sql.DB
}

// List returns a product's reviews, newest first.
func (s *Reviews) List(ctx context.Context, productID int64) ([]models.Review, error) {
	ok, err := exists(ctx, s.DB, "products", productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at,
			u.first_name, u.last_name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC, r.id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of product %d: %w", productID, err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var (
			r           models.Review
			comment     sql.NullString
			first, last string
		)
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &comment, &r.CreatedAt, &first, &last); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.Comment = database.StringPtr(comment)
		r.UserName = strings.TrimSpace(first + " " + last)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// Create records the caller's review of a product. Ratings run from 1 to 5.
func (s *Reviews) Create(ctx context.Context, p models.Principal, productID int64, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, models.NewValidationError("rating", "The rating must be between 1 and 5.")
	}
	ok, err := exists(ctx, s.DB, "products", productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}

	r := models.Review{
		ProductID: productID,
		UserID:    p.UserID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO reviews (product_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ProductID, r.UserID, r.Rating, r.Comment, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Subscribe adds email to the newsletter. Subscribing twice returns the
// existing subscription.
func (s *Newsletter) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := models.Validate.Var(email, "required,email,max=255"); err != nil {
		return nil, models.NewValidationError("email", "The email must be a valid email address.")
	}

	var sub models.NewsletterSubscription
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT id, email, created_at FROM newsletter_subscriptions WHERE email = ?", email).
			Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find subscription: %w", err)
		}

		sub = models.NewsletterSubscription{Email: email, CreatedAt: time.Now().UTC()}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO newsletter_subscriptions (email, created_at) VALUES (?, ?)", sub.Email, sub.CreatedAt)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		sub.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Subscriptions lists newsletter subscribers, newest first.
func (s *Newsletter) Subscriptions(ctx context.Context) ([]models.NewsletterSubscription, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, email, created_at FROM newsletter_subscriptions ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.NewsletterSubscription{}
	for rows.Next() {
		var sub models.NewsletterSubscription
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
