// internal/services/services.go

// Package services holds the business rules of the store. Services depend on
// repository interfaces and return *apperror.Error values the handlers render.
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// repoError converts repository failures into apperror kinds.
func repoError(err error, resource string) error {
	var shortage *repository.StockShortage
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(resource)
	case errors.Is(err, repository.ErrConflict):
		return apperror.Wrap(apperror.KindConflict, err, "concurrent modification").WithKey(i18n.KeyConflict)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(apperror.KindConflict, err, resource+" already exists")
	case errors.As(err, &shortage):
		return apperror.Wrap(apperror.KindProductUnavailable, err, "insufficient stock").
			WithKey(i18n.KeyProductUnavailable, shortage.ProductID.String())
	default:
		return apperror.Wrap(apperror.KindInternal, err, "failed to access "+resource)
	}
}

func productUnavailable(p *models.Product) *apperror.Error {
	return apperror.New(apperror.KindProductUnavailable, "product %s is unavailable", p.ID).
		WithKey(i18n.KeyProductUnavailable, p.NameEn)
}

func entryLog(op string) *logrus.Entry {
	return logrus.WithField("op", op)
}
