package postgres

import (
	"gorm.io/gorm"

	authpkg "github.com/KinzixInfotech/edutemp-sub018/internal/auth"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) authpkg.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var account user.User
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var account user.User
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
