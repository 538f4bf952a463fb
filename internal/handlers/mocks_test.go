package handlers_test

import (
	"context"
	"io"

	"github.com/maynagashev/receitas/models"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignIn(ctx context.Context, usernameOrEmail, password string) (*models.SignInResponse, error) {
	args := m.Called(ctx, usernameOrEmail, password)
	resp, _ := args.Get(0).(*models.SignInResponse)
	return resp, args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]*models.Recipe)
	return recipes, args.Error(1)
}

func (m *MockRecipeService) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	recipe, _ := args.Get(0).(*models.Recipe)
	return recipe, args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, creatorID int64, input models.RecipeInput) (*models.Recipe, error) {
	args := m.Called(ctx, creatorID, input)
	recipe, _ := args.Get(0).(*models.Recipe)
	return recipe, args.Error(1)
}

func (m *MockRecipeService) Update(
	ctx context.Context,
	id, editorID int64,
	input models.RecipeInput,
) (*models.Recipe, error) {
	args := m.Called(ctx, id, editorID, input)
	recipe, _ := args.Get(0).(*models.Recipe)
	return recipe, args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, id, editorID int64) error {
	args := m.Called(ctx, id, editorID)
	return args.Error(0)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) ValidateImage(r io.ReadSeeker) bool {
	args := m.Called(r)
	return args.Bool(0)
}

func (m *MockMediaService) SaveImage(ctx context.Context, upload models.ImageUpload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}
