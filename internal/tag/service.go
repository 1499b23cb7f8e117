package tag

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"hexapink-api/internal/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagService struct {
	DB *gorm.DB
}

// Clean trims names, drops empties and enforces the length limit. Duplicates
// and order are kept.
func Clean(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if utf8.RuneCountInString(n) > MaxNameLength {
			return nil, apperr.Newf(apperr.KindValidation, "tag %q exceeds %d characters", n, MaxNameLength)
		}
		out = append(out, n)
	}
	return out, nil
}

// Normalize is Clean without duplicates. Order of first appearance is kept.
func Normalize(names []string) ([]string, error) {
	cleaned, err := Clean(names)
	if err != nil {
		return nil, err
	}
	out := cleaned[:0]
	seen := make(map[string]struct{}, len(cleaned))
	for _, n := range cleaned {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Reconcile makes sure every name exists in the catalog and returns the tags
// it created. A concurrent insert of the same name is not an error.
func (s *TagService) Reconcile(names []string) ([]Tag, error) {
	wanted, err := Normalize(names)
	if err != nil {
		return nil, err
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	var existing []Tag
	if err := s.DB.Where("name IN ?", wanted).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	present := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		present[t.Name] = struct{}{}
	}

	var created []Tag
	for _, name := range wanted {
		if _, ok := present[name]; ok {
			continue
		}
		t := Tag{Name: name}
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&t)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, fmt.Errorf("insert tag %q: %w", name, res.Error)
		}
		if res.RowsAffected > 0 {
			created = append(created, t)
		}
	}
	return created, nil
}

func (s *TagService) Ensure(name string) error {
	_, err := s.Reconcile([]string{name})
	return err
}

func (s *TagService) List() ([]Tag, error) {
	var tags []Tag
	if err := s.DB.Order("name asc").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
