package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/receitas/models"
)

const recipeSelect = `SELECT r.id, r.nome, r.tipo, r.criador_id, r.imagem, r.modo_de_preparo, r.data_de_criacao,
		u.name AS criador_nome, u.username AS criador_username
	FROM receitas r
	JOIN users u ON u.id = r.criador_id`

// RecipeRepository определяет методы для работы с рецептами и их ингредиентами.
type RecipeRepository interface {
	List(ctx context.Context) ([]*models.Recipe, error)
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	Create(ctx context.Context, creatorID int64, input *models.RecipeInput) (int64, error)
	Update(ctx context.Context, id int64, input *models.RecipeInput) error
	Delete(ctx context.Context, id int64) error
}

// postgresRecipeRepository реализует RecipeRepository для PostgreSQL.
type postgresRecipeRepository struct {
	db *sqlx.DB
}

// ingredientRow - строка таблицы ingredientes с внешним ключом.
type ingredientRow struct {
	models.Ingredient
	RecipeID int64 `db:"receita_id"`
}

// NewPostgresRecipeRepository создает новый экземпляр репозитория рецептов для PostgreSQL.
func NewPostgresRecipeRepository(db *sqlx.DB) RecipeRepository {
	return &postgresRecipeRepository{db: db}
}

// List возвращает все рецепты, новые первыми.
func (r *postgresRecipeRepository) List(ctx context.Context) ([]*models.Recipe, error) {
	var rows []models.RecipeRow
	if err := r.db.SelectContext(ctx, &rows, recipeSelect+` ORDER BY r.id DESC`); err != nil {
		log.Printf("[Repo] Ошибка получения списка рецептов: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение рецептов: %w", err)
	}

	recipes := make([]*models.Recipe, 0, len(rows))
	if len(rows) == 0 {
		return recipes, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	byRecipe, err := r.ingredients(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		recipes = append(recipes, rows[i].ToRecipe(byRecipe[rows[i].ID]))
	}
	return recipes, nil
}

// GetByID возвращает рецепт по ID или ErrRecipeNotFound.
func (r *postgresRecipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var row models.RecipeRow
	err := r.db.GetContext(ctx, &row, recipeSelect+` WHERE r.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Repo] Рецепт с ID %d не найден", id)
			return nil, ErrRecipeNotFound
		}
		log.Printf("[Repo] Ошибка при поиске рецепта %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение рецепта: %w", err)
	}

	byRecipe, err := r.ingredients(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return row.ToRecipe(byRecipe[id]), nil
}

// ingredients загружает ингредиенты для набора рецептов одним запросом.
func (r *postgresRecipeRepository) ingredients(ctx context.Context, ids []int64) (map[int64][]models.Ingredient, error) {
	var rows []ingredientRow
	query := `SELECT id, nome, quantidade, receita_id FROM ingredientes WHERE receita_id = ANY($1) ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		log.Printf("[Repo] Ошибка получения ингредиентов: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение ингредиентов: %w", err)
	}

	byRecipe := make(map[int64][]models.Ingredient, len(ids))
	for _, row := range rows {
		byRecipe[row.RecipeID] = append(byRecipe[row.RecipeID], row.Ingredient)
	}
	return byRecipe, nil
}

// Create сохраняет рецепт вместе с ингредиентами в одной транзакции.
func (r *postgresRecipeRepository) Create(
	ctx context.Context,
	creatorID int64,
	input *models.RecipeInput,
) (int64, error) {
	var recipeID int64
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO receitas (nome, tipo, criador_id, imagem, modo_de_preparo)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		err := tx.QueryRowxContext(ctx, query,
			input.Name, input.Kind, creatorID, input.Image, input.Instructions,
		).Scan(&recipeID)
		if err != nil {
			return fmt.Errorf("ошибка создания рецепта: %w", err)
		}
		return insertIngredients(ctx, tx, recipeID, input.Ingredients)
	})
	if err != nil {
		log.Printf("[Repo] Ошибка сохранения рецепта '%s': %v", input.Name, err)
		return 0, err
	}

	log.Printf("[Repo] Рецепт '%s' создан с ID %d", input.Name, recipeID)
	return recipeID, nil
}

// Update заменяет поля рецепта и полностью перезаписывает список ингредиентов.
func (r *postgresRecipeRepository) Update(ctx context.Context, id int64, input *models.RecipeInput) error {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `UPDATE receitas SET nome = $1, tipo = $2, imagem = $3, modo_de_preparo = $4 WHERE id = $5`
		res, err := tx.ExecContext(ctx, query, input.Name, input.Kind, input.Image, input.Instructions, id)
		if err != nil {
			return fmt.Errorf("ошибка обновления рецепта: %w", err)
		}
		if err = expectAffected(res); err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM ingredientes WHERE receita_id = $1`, id); err != nil {
			return fmt.Errorf("ошибка удаления ингредиентов: %w", err)
		}
		return insertIngredients(ctx, tx, id, input.Ingredients)
	})
	if err != nil {
		log.Printf("[Repo] Ошибка обновления рецепта %d: %v", id, err)
		return err
	}

	log.Printf("[Repo] Рецепт %d обновлен", id)
	return nil
}

// Delete удаляет рецепт. Ингредиенты удаляются каскадно.
func (r *postgresRecipeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receitas WHERE id = $1`, id)
	if err != nil {
		log.Printf("[Repo] Ошибка удаления рецепта %d: %v", id, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление рецепта: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}

	log.Printf("[Repo] Рецепт %d удален", id)
	return nil
}

func (r *postgresRecipeRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[Repo] Ошибка отката транзакции: %v", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sqlx.Tx, recipeID int64, ingredients []models.Ingredient) error {
	query := `INSERT INTO ingredientes (nome, quantidade, receita_id) VALUES ($1, $2, $3)`
	for _, ing := range ingredients {
		if _, err := tx.ExecContext(ctx, query, ing.Name, ing.Quantity, recipeID); err != nil {
			return fmt.Errorf("ошибка сохранения ингредиента '%s': %w", ing.Name, err)
		}
	}
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа измененных строк: %w", err)
	}
	if n == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// ErrRecipeNotFound - рецепт с указанным ID не существует.
var ErrRecipeNotFound = errors.New("рецепт не найден")
