package usecases

import (
	"context"

	"github.com/JacMa99/appless-workout-mvp/pkg/repo"
)

type UseCases struct {
	repo repo.Imply
}
type UseCaseImply interface {
	DBHealthHandler(context.Context) error
}

func NewUseCases(repo repo.Imply) UseCaseImply {
	return &UseCases{
		repo: repo,
	}
}

// HealthHandler
func (usecase *UseCases) DBHealthHandler(ctx context.Context) error {
	return usecase.repo.DBHealthCheck(ctx)
}
