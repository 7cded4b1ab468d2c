package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/apperr"
	"github.com/tempoedu/tempo-api/utils/auth"
)

// AllocationService manages the teacher account pool: admin-provisioned
// logins that are bound to a teacher identity exactly once.
type AllocationService struct {
	db *gorm.DB
}

// NewAllocationService creates a new allocation service.
func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{db: db}
}

// CreateAccount provisions a new unallocated pool account. The username is the
// login key, so it must be unique across the pool.
func (s *AllocationService) CreateAccount(ctx context.Context, username, password string) (*model.TeacherAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperr.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := model.TeacherAccount{
		Username:     username,
		PasswordHash: hash,
		Allocated:    false,
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username already exists", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("create teacher account: %w", err)
	}

	return &account, nil
}

// Unallocated lists the pool accounts not yet bound to a teacher.
func (s *AllocationService) Unallocated(ctx context.Context) ([]model.TeacherAccount, error) {
	var accounts []model.TeacherAccount
	if err := s.db.WithContext(ctx).
		Where("allocated = ?", false).
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list unallocated accounts: %w", err)
	}
	return accounts, nil
}

// Allocate binds a pool account to a teacher identity. The pool-entry flags
// and the identity back-reference are written in one transaction so neither
// side can be observed allocated without the other. An account allocates at
// most once; there is no transfer.
func (s *AllocationService) Allocate(ctx context.Context, accountID, teacherID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account model.TeacherAccount
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account not found", apperr.ErrNotFound)
			}
			return fmt.Errorf("load account: %w", err)
		}

		if account.Allocated {
			return fmt.Errorf("%w: account already allocated", apperr.ErrConflict)
		}

		var teacher model.User
		if err := tx.First(&teacher, teacherID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: teacher not found", apperr.ErrNotFound)
			}
			return fmt.Errorf("load teacher: %w", err)
		}

		if err := tx.Model(&account).Updates(map[string]interface{}{
			"allocated":       true,
			"allocated_to_id": teacher.ID,
		}).Error; err != nil {
			return fmt.Errorf("allocate account: %w", err)
		}

		updates := map[string]interface{}{
			"allocated_account_id": account.ID,
		}
		// An existing student promoted through allocation becomes a teacher.
		if teacher.Role != model.RoleTeacher {
			updates["role"] = model.RoleTeacher
		}
		if err := tx.Model(&teacher).Updates(updates).Error; err != nil {
			return fmt.Errorf("record allocation on user: %w", err)
		}

		return nil
	})
}

// VerifyLogin authenticates pool credentials and returns the bound teacher
// identity. Unknown usernames, wrong passwords and unallocated accounts all
// fail the same way so the pool cannot be enumerated.
func (s *AllocationService) VerifyLogin(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	var account model.TeacherAccount
	if err := s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	if !account.Allocated || account.AllocatedToID == nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	var teacher model.User
	if err := s.db.WithContext(ctx).First(&teacher, *account.AllocatedToID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("load teacher: %w", err)
	}

	return &teacher, nil
}
