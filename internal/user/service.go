package user

import (
	"errors"
	"fmt"

	"hexapink-api/internal/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	DB *gorm.DB
}

func (s *UserService) GetByID(id uint) (*User, error) {
	var u User
	if err := s.DB.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// Debit takes amount from the user's balance inside tx. The row is locked
// where the dialect supports it; an overdraft is rejected.
func Debit(tx *gorm.DB, userID uint, amount float64) error {
	var u User
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.Balance < amount {
		return apperr.Newf(apperr.KindValidation, "insufficient balance: %.2f available, %.2f required", u.Balance, amount)
	}
	if err := tx.Model(&u).Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("debit user: %w", err)
	}
	return nil
}
