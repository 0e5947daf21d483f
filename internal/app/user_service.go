package app

import (
	"context"

	"cahier-service/internal/domain"
)

// UserService contains the admin-side account use cases.
type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

// ChangeRole promotes or demotes an account.
func (s *UserService) ChangeRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.User{}, domain.Invalidf("unknown role %q", role)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = role
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
