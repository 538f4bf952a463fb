package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/receitas/internal/middleware"
	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/models"
)

// RecipeService определяет операции над рецептами, нужные обработчикам.
type RecipeService interface {
	List(ctx context.Context) ([]*models.Recipe, error)
	Get(ctx context.Context, id int64) (*models.Recipe, error)
	Create(ctx context.Context, creatorID int64, input models.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, id, editorID int64, input models.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, id, editorID int64) error
}

// RecipeHandler обрабатывает HTTP-запросы к рецептам.
type RecipeHandler struct {
	service RecipeService
}

// NewRecipeHandler создает новый экземпляр RecipeHandler.
func NewRecipeHandler(s RecipeService) *RecipeHandler {
	return &RecipeHandler{service: s}
}

// List возвращает все рецепты.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// Get возвращает рецепт по ID.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	recipe, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// Create создает рецепт от имени текущего пользователя.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Println("[RecipeHandler:Create] Не удалось получить UserID из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	input, ok := decodeRecipeInput(w, r)
	if !ok {
		return
	}

	recipe, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// Update заменяет рецепт. Доступно только автору.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Println("[RecipeHandler:Update] Не удалось получить UserID из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	input, ok := decodeRecipeInput(w, r)
	if !ok {
		return
	}

	recipe, err := h.service.Update(r.Context(), id, userID, input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// Delete удаляет рецепт. Доступно только автору.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Println("[RecipeHandler:Delete] Не удалось получить UserID из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrRecipeNotFound):
		http.Error(w, "Рецепт не найден", http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, "Доступ запрещен", http.StatusForbidden)
	default:
		log.Printf("[RecipeHandler:%s] Ошибка сервиса: %v", op, err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

func recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Неверный ID рецепта", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeRecipeInput(w http.ResponseWriter, r *http.Request) (models.RecipeInput, bool) {
	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("[RecipeHandler] Ошибка декодирования рецепта: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return input, false
	}
	return input, true
}
