package service

import (
	"errors"

	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/pkg/errs"
)

const (
	msgUserNotFound         = "User not found"
	msgUserOrFriendNotFound = "User or friend not found"
	msgThoughtNotFound      = "Thought not found"
)

// classify turns a repository error into a coded error. Already coded errors
// pass through.
func classify(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return errs.Wrap(errs.NotFound, notFound, err)
	}
	return errs.Wrap(errs.StoreError, "", err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
