package repo

import (
	"context"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository on PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new user repository.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user by its identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	if err := row.Scan(&user.ID, &user.Email, &user.Plan, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Upsert installs or updates a user record as supplied by the identity provider.
func (r *UserRepositoryPG) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	var out domain.User
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertUser, user.ID, user.Email, user.Plan)
	if err := row.Scan(&out.ID, &out.Email, &out.Plan, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
