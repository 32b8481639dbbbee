package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
)

// translate maps driver errors onto domain errors. TranslateError must be
// enabled on the gorm config for the constraint cases to be recognized.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Reason: resource + " already exists"}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.ValidationError{Reason: resource + " violates a check constraint"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ValidationError{Reason: resource + " references a missing row"}
	}
	return errors.Wrap(err, resource)
}
