package entity

import (
	"context"
	"errors"
)

var ErrOwnerNotFound = errors.New("owner not found")

// Owner is a back-office user that leads can be assigned to.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type OwnerRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Owner, error)
	List(ctx context.Context) ([]Owner, error)
}
