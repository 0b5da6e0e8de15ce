package service

import (
	"context"
	"errors"

	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/utils"
)

// EnsureOperator creates the bootstrap operator account unless one with
// username already exists. It reports whether an account was created. An
// empty password disables seeding.
func EnsureOperator(ctx context.Context, ops repository.OperatorStore, username, password string, cost int) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := ops.GetOperatorByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return false, err
	}
	_, err = ops.CreateOperator(ctx, model.Operator{Username: username, PasswordHash: hash, Role: model.RoleOperator})
	if errors.Is(err, repository.ErrConflict) {
		return false, nil
	}
	return err == nil, err
}
