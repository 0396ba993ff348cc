package sqlite

import (
	"context"

	errwrap "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/helper"
)

// ProfileRepository is the durable client storage for the admin session.
// At most one profile row exists at a time; Save replaces whatever is there.
type ProfileRepository interface {
	Save(ctx context.Context, profile *entity.AdminProfile) error
	Load(ctx context.Context) (*entity.AdminProfile, error)
	Clear(ctx context.Context) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Save(ctx context.Context, profile *entity.AdminProfile) error {
	funcName := "ProfileRepository.Save"
	if err := helper.CheckDeadline(ctx); err != nil {
		return errwrap.Wrap(err, funcName)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.AdminProfile{}).Error; err != nil {
			return errwrap.Wrap(err, funcName)
		}
		if err := tx.Create(profile).Error; err != nil {
			return errwrap.Wrap(err, funcName)
		}
		return nil
	})
}

func (r *profileRepo) Load(ctx context.Context) (*entity.AdminProfile, error) {
	funcName := "ProfileRepository.Load"
	if err := helper.CheckDeadline(ctx); err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}

	var profile entity.AdminProfile
	err := r.db.WithContext(ctx).
		Order("updated_at desc").
		First(&profile).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errwrap.Wrap(err, funcName)
	}
	return &profile, nil
}

func (r *profileRepo) Clear(ctx context.Context) error {
	funcName := "ProfileRepository.Clear"
	if err := helper.CheckDeadline(ctx); err != nil {
		return errwrap.Wrap(err, funcName)
	}

	return r.db.WithContext(ctx).Where("1 = 1").Delete(&entity.AdminProfile{}).Error
}
