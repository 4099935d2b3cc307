package lead

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrLeadNotFound = errors.New("lead not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req CreateLeadRequest) (*Lead, error) {
	query := `
		INSERT INTO leads (title, description, category, location, company, contact_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, title, description, category, location, company, contact_name, contact_email, contact_phone, created_at, updated_at
	`

	var l Lead
	err := r.db.GetContext(ctx, &l, query,
		req.Title, req.Description, req.Category, req.Location, req.Company,
		req.ContactName, req.ContactMail, req.ContactTel,
	)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Lead, error) {
	query := `
		SELECT id, title, description, category, location, company, contact_name, contact_email, contact_phone, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	var l Lead
	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	return &l, nil
}

func (r *repository) List(ctx context.Context, category, location string, limit, offset int) ([]Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, title, description, category, location, company, contact_name, contact_email, contact_phone, created_at, updated_at
		FROM leads
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR location = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	var leads []Lead
	if err := r.db.SelectContext(ctx, &leads, query, category, location, limit, offset); err != nil {
		return nil, err
	}

	return leads, nil
}

func (r *repository) Update(ctx context.Context, id int, req CreateLeadRequest) (*Lead, error) {
	query := `
		UPDATE leads
		SET title = $2, description = $3, category = $4, location = $5, company = $6,
		    contact_name = $7, contact_email = $8, contact_phone = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, description, category, location, company, contact_name, contact_email, contact_phone, created_at, updated_at
	`

	var l Lead
	err := r.db.GetContext(ctx, &l, query, id,
		req.Title, req.Description, req.Category, req.Location, req.Company,
		req.ContactName, req.ContactMail, req.ContactTel,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	return &l, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrLeadNotFound
	}

	return nil
}
