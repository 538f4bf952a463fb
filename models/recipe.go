package models

import (
	"io"
	"time"
)

// Recipe представляет рецепт вместе с ингредиентами и автором.
// Имена JSON-полей совпадают с публичным API сервиса.
type Recipe struct {
	ID           int64         `json:"id"`
	Name         string        `json:"nome"`
	Kind         string        `json:"tipo"`
	Ingredients  []Ingredient  `json:"ingredientes"`
	Instructions string        `json:"modo_de_preparo"`
	CreatedAt    int64         `json:"data_de_criacao"` // Unix timestamp (UTC)
	Creator      RecipeCreator `json:"criador"`
	Image        string        `json:"imagem"`
}

// Ingredient - ингредиент рецепта.
type Ingredient struct {
	ID       int64  `db:"id" json:"id,omitempty"`
	Name     string `db:"nome" json:"nome" validate:"required,max=100"`
	Quantity string `db:"quantidade" json:"quantidade" validate:"required,max=50"`
}

// RecipeCreator - краткие данные автора рецепта.
type RecipeCreator struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// RecipeInput - тело запроса на создание/обновление рецепта.
type RecipeInput struct {
	Name         string       `json:"nome" validate:"required,max=50"`
	Kind         string       `json:"tipo" validate:"required,max=30"`
	Ingredients  []Ingredient `json:"ingredientes" validate:"required,min=1,dive"`
	Instructions string       `json:"modo_de_preparo" validate:"required"`
	Image        string       `json:"imagem" validate:"required,http_url"`
}

// RecipeRow - строка таблицы receitas вместе с данными автора (JOIN users).
type RecipeRow struct {
	ID              int64     `db:"id"`
	Name            string    `db:"nome"`
	Kind            string    `db:"tipo"`
	CreatorID       int64     `db:"criador_id"`
	Image           string    `db:"imagem"`
	Instructions    string    `db:"modo_de_preparo"`
	CreatedAt       time.Time `db:"data_de_criacao"`
	CreatorName     string    `db:"criador_nome"`
	CreatorUsername string    `db:"criador_username"`
}

// ToRecipe собирает DTO рецепта из строки и списка ингредиентов.
func (r *RecipeRow) ToRecipe(ingredients []Ingredient) *Recipe {
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	return &Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Kind:         r.Kind,
		Ingredients:  ingredients,
		Instructions: r.Instructions,
		CreatedAt:    r.CreatedAt.UTC().Unix(),
		Creator: RecipeCreator{
			ID:       r.CreatorID,
			Name:     r.CreatorName,
			Username: r.CreatorUsername,
		},
		Image: r.Image,
	}
}

// ImageUpload - загружаемый клиентом файл изображения.
// Поток принадлежит запросу и может быть перечитан с начала.
type ImageUpload struct {
	Reader   io.ReadSeeker
	Filename string // Имя файла, заявленное клиентом
	Size     int64  // -1, если размер неизвестен
}
