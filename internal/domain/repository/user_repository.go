package repository

import (
	"context"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
)

// UserRepository is the user-directory collaborator. It only resolves ids to
// displayable profiles; account management lives elsewhere.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
