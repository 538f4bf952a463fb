package services_test

import (
	"context"
	"io"

	"github.com/maynagashev/receitas/models"
	"github.com/stretchr/testify/mock"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*models.User)
	return created, args.Error(1)
}

func (m *mockUserRepository) GetActiveUserByEmailOrUsername(ctx context.Context, key string) (*models.User, error) {
	args := m.Called(ctx, key)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetActiveUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockRecipeRepository struct {
	mock.Mock
}

func (m *mockRecipeRepository) List(ctx context.Context) ([]*models.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]*models.Recipe)
	return recipes, args.Error(1)
}

func (m *mockRecipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	recipe, _ := args.Get(0).(*models.Recipe)
	return recipe, args.Error(1)
}

func (m *mockRecipeRepository) Create(ctx context.Context, creatorID int64, input *models.RecipeInput) (int64, error) {
	args := m.Called(ctx, creatorID, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRecipeRepository) Update(ctx context.Context, id int64, input *models.RecipeInput) error {
	args := m.Called(ctx, id, input)
	return args.Error(0)
}

func (m *mockRecipeRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Store(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	return args.String(0), args.Error(1)
}
