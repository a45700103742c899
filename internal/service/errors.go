package service

import (
	"errors"
	"fmt"

	"servicehub/internal/domain"
	"servicehub/internal/repository"
)

// storeError translates a repository error into the domain taxonomy.
// what names the entity for NotFound and Conflict messages.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound(what + " not found")
	case errors.Is(err, repository.ErrDuplicate):
		return domain.Conflict(what + " already exists")
	case errors.Is(err, repository.ErrImageLimit):
		return imageLimitError()
	case domain.KindOf(err) != domain.KindInternal:
		return err
	}
	return domain.Internal("failed to access "+what, err)
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return domain.Unauthenticated("unauthorized")
	}
	return nil
}

// requireRole fails with Forbidden unless actor holds one of roles
func requireRole(actor *domain.User, roles ...domain.Role) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.HasRole(roles...) {
		return domain.Forbidden("access denied")
	}
	return nil
}

func imageLimitError() error {
	return domain.InvalidArgument(fmt.Sprintf("at most %d images are allowed", domain.MaxImages))
}
