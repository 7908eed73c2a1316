package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminService owns admin accounts: bootstrap, login and the dashboard.
type AdminService struct {
	repo       Repository
	logger     *slog.Logger
	bcryptCost int
}

// NewAdminService creates an admin service. A repository is required.
func NewAdminService(opts ...Option) (*AdminService, error) {
	o := buildOptions(opts)
	if o.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &AdminService{repo: o.repository, logger: o.logger, bcryptCost: o.bcryptCost}, nil
}

// BootstrapAdmin creates the first admin user. It refuses with ErrAdminExists
// once any user exists, so calling it repeatedly never creates a second user.
func (s *AdminService) BootstrapAdmin(ctx context.Context, username, password string) (*AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		s.logger.Info("Admin bootstrap skipped", "reason", "admin already exists")
		return nil, ErrAdminExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &AdminUser{ID: NewID(), Username: username, PasswordHash: string(hash)}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("Admin user created", "id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield ErrAuthFailed.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*AdminUser, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrAuthFailed
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthFailed
	}
	return user, nil
}

// GetAdmin loads a user by identifier, as done for every authenticated request.
func (s *AdminService) GetAdmin(ctx context.Context, id string) (*AdminUser, error) {
	if !ValidID(id) {
		return nil, ErrInvalidIdentifier
	}
	return s.repo.GetUserByID(ctx, id)
}

// Dashboard returns the product and blog post counts.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	products, err := s.repo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	posts, err := s.repo.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count blog posts: %w", err)
	}
	return &DashboardStats{TotalProducts: products, TotalBlogPosts: posts}, nil
}

// Principal returns the identity used as the acting admin.
func (u *AdminUser) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username}
}
