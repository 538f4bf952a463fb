package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maynagashev/receitas/internal/repository"
	"github.com/maynagashev/receitas/models"
)

// RecipeService определяет операции над рецептами.
type RecipeService interface {
	List(ctx context.Context) ([]*models.Recipe, error)
	Get(ctx context.Context, id int64) (*models.Recipe, error)
	Create(ctx context.Context, creatorID int64, input models.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, id, editorID int64, input models.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, id, editorID int64) error
}

var _ RecipeService = (*recipeService)(nil)

type recipeService struct {
	recipeRepo repository.RecipeRepository
}

// NewRecipeService создает новый экземпляр сервиса рецептов.
func NewRecipeService(recipeRepo repository.RecipeRepository) RecipeService {
	return &recipeService{recipeRepo: recipeRepo}
}

// List возвращает все рецепты, новые первыми.
func (s *recipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рецептов: %w", err)
	}
	return recipes, nil
}

// Get возвращает рецепт по ID.
func (s *recipeService) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("ошибка получения рецепта: %w", err)
	}
	return recipe, nil
}

// Create проверяет и очищает входные данные, затем сохраняет рецепт.
func (s *recipeService) Create(ctx context.Context, creatorID int64, input models.RecipeInput) (*models.Recipe, error) {
	clean, err := prepareRecipeInput(input)
	if err != nil {
		return nil, err
	}

	id, err := s.recipeRepo.Create(ctx, creatorID, clean)
	if err != nil {
		log.Printf("[RecipeService] Ошибка создания рецепта пользователем %d: %v", creatorID, err)
		return nil, fmt.Errorf("ошибка создания рецепта: %w", err)
	}

	log.Printf("[RecipeService] Пользователь %d создал рецепт %d", creatorID, id)
	return s.Get(ctx, id)
}

// Update заменяет поля и ингредиенты рецепта. Изменять рецепт может только его автор.
func (s *recipeService) Update(
	ctx context.Context,
	id, editorID int64,
	input models.RecipeInput,
) (*models.Recipe, error) {
	if err := s.checkOwner(ctx, id, editorID); err != nil {
		return nil, err
	}

	clean, err := prepareRecipeInput(input)
	if err != nil {
		return nil, err
	}

	if err = s.recipeRepo.Update(ctx, id, clean); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("ошибка обновления рецепта: %w", err)
	}

	log.Printf("[RecipeService] Пользователь %d обновил рецепт %d", editorID, id)
	return s.Get(ctx, id)
}

// Delete удаляет рецепт. Удалять рецепт может только его автор.
func (s *recipeService) Delete(ctx context.Context, id, editorID int64) error {
	if err := s.checkOwner(ctx, id, editorID); err != nil {
		return err
	}

	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("ошибка удаления рецепта: %w", err)
	}

	log.Printf("[RecipeService] Пользователь %d удалил рецепт %d", editorID, id)
	return nil
}

func (s *recipeService) checkOwner(ctx context.Context, id, editorID int64) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if recipe.Creator.ID != editorID {
		log.Printf("[RecipeService] Пользователь %d пытался изменить чужой рецепт %d", editorID, id)
		return ErrForbidden
	}
	return nil
}

// prepareRecipeInput удаляет HTML из текстовых полей и проверяет результат.
func prepareRecipeInput(input models.RecipeInput) (*models.RecipeInput, error) {
	clean := models.RecipeInput{
		Name:         sanitizeText(input.Name),
		Kind:         sanitizeText(input.Kind),
		Instructions: sanitizeText(input.Instructions),
		Image:        input.Image,
	}
	if input.Ingredients != nil {
		clean.Ingredients = make([]models.Ingredient, len(input.Ingredients))
		for i, ing := range input.Ingredients {
			clean.Ingredients[i] = models.Ingredient{
				Name:     sanitizeText(ing.Name),
				Quantity: sanitizeText(ing.Quantity),
			}
		}
	}

	if err := validateStruct(clean); err != nil {
		return nil, err
	}
	return &clean, nil
}

// Ошибки сервиса рецептов.
var (
	ErrRecipeNotFound = errors.New("рецепт не найден")
	ErrForbidden      = errors.New("недостаточно прав для изменения рецепта")
)
