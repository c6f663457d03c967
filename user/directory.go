package user

import (
	"context"
	"errors"

	"github.com/KOMKZ/go-yogan-auth/database"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already registered")
)

// GormDirectory looks up and creates users through gorm
type GormDirectory struct {
	repo *database.BaseRepository[User]
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{repo: database.NewBaseRepository[User](db)}
}

// FindByEmail matches case-insensitively; ErrNotFound when absent
func (d *GormDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	return d.find(d.repo.FindOne(ctx, "email = ?", NormalizeEmail(email)))
}

func (d *GormDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	return d.find(d.repo.FindByID(ctx, id))
}

// Create inserts an active, unverified user
func (d *GormDirectory) Create(ctx context.Context, in CreateInput) (*User, error) {
	u := &User{
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		IsActive:     true,
	}
	if err := d.repo.Create(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// SetActive toggles the account flag
func (d *GormDirectory) SetActive(ctx context.Context, id string, active bool) error {
	u, err := d.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return d.repo.Update(ctx, u, map[string]interface{}{"is_active": active})
}

func (d *GormDirectory) find(u *User, err error) (*User, error) {
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
