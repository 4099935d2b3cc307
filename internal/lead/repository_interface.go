package lead

import "context"

type Repository interface {
	Create(ctx context.Context, req CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id int) (*Lead, error)
	List(ctx context.Context, category, location string, limit, offset int) ([]Lead, error)
	Update(ctx context.Context, id int, req CreateLeadRequest) (*Lead, error)
	Delete(ctx context.Context, id int) error
}
