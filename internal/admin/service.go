package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	BCryptCost int
	// AllowDemoFallback accepts admin/admin123 for any department.
	AllowDemoFallback bool
}

type Service struct {
	store  store.Adapter
	bus    events.Publisher
	logger *slog.Logger
	opts   Options

	seedMu sync.Mutex
}

func NewService(adapter store.Adapter, bus events.Publisher, logger *slog.Logger, opts Options) *Service {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:  adapter,
		bus:    bus,
		logger: logger,
		opts:   opts,
	}
}

// List returns every registered admin, seeding the default account into an
// empty directory first.
func (s *Service) List(ctx context.Context) ([]Admin, error) {
	admins, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return admins, nil
	}
	return s.seed(ctx)
}

// EnsureSeeded creates the default admin when the directory is empty. It
// reports whether an account was created.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	admins, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	if len(admins) > 0 {
		return false, nil
	}
	if _, err := s.seed(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) seed(ctx context.Context) ([]Admin, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	// another request may have seeded while we waited
	admins, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return admins, nil
	}

	hash, err := s.hash(DefaultPassword)
	if err != nil {
		return nil, err
	}
	def := Admin{
		Username:     DefaultUsername,
		PasswordHash: hash,
		Department:   DefaultDepartment,
		Email:        DefaultEmail,
	}
	if err := s.append(ctx, def); err != nil {
		return nil, err
	}

	s.logger.Info("seeded default admin", "username", def.Username, "department", def.Department)
	return []Admin{def}, nil
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Admin, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		if a.Username == dto.Username {
			return nil, errors.ErrUsernameTaken
		}
	}

	hash, err := s.hash(dto.Password)
	if err != nil {
		return nil, err
	}
	a := Admin{
		Username:     dto.Username,
		PasswordHash: hash,
		Department:   dto.Department,
		Email:        dto.Email,
	}
	if err := s.append(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("admin registered", "username", a.Username, "department", a.Department)
	if err := s.bus.Publish(ctx, events.NewAdminRegisteredEvent(a.Username, a.Department)); err != nil {
		s.logger.Warn("publish admin registered event", "error", err)
	}
	return &a, nil
}

// Authenticate returns the admin matching all three credentials. When the
// demo fallback is enabled, admin/admin123 is accepted for any department and
// yields a transient account bound to it.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Admin, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		a := admins[i]
		if a.Username != dto.Username || a.Department != dto.Department {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(dto.Password)) == nil {
			return &a, nil
		}
	}

	if s.opts.AllowDemoFallback && dto.Username == DefaultUsername && dto.Password == DefaultPassword {
		s.logger.Warn("demo fallback credentials accepted", "department", dto.Department)
		return &Admin{
			Username:   DefaultUsername,
			Department: dto.Department,
			Email:      FallbackEmail(dto.Department),
		}, nil
	}

	s.logger.Info("login rejected", "username", dto.Username, "department", dto.Department)
	return nil, errors.ErrInvalidCredentials
}

func (s *Service) read(ctx context.Context) ([]Admin, error) {
	records, err := s.store.Read(ctx, store.CollectionAdmins)
	if err != nil {
		s.logger.Error("failed to read admins", "error", err)
		return nil, err
	}
	admins, err := store.DecodeAll[Admin](records)
	if err != nil {
		return nil, errors.NewInternalError("corrupt admin record", err)
	}
	return admins, nil
}

func (s *Service) append(ctx context.Context, a Admin) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode admin: %w", err)
	}
	if _, err := s.store.Append(ctx, store.CollectionAdmins, raw); err != nil {
		s.logger.Error("failed to append admin", "username", a.Username, "error", err)
		return err
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BCryptCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}
