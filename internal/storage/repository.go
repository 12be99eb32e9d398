// Package storage persists the tracker's entities in SQLite.
//
// Expenses are stored as single rows even when they represent installment
// purchases; occurrence expansion happens in core on read. Dates are stored
// as YYYY-MM-DD text, which compares correctly as strings.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrCategoryExists = errors.New("category with this name already exists")
	ErrCardExists     = errors.New("card with this name already exists")
)

// Category delete outcomes. A category referenced by expenses is only
// deactivated so the historical rows keep their label.
const (
	StatusDeleted     = "deleted"
	StatusSoftDeleted = "soft_deleted"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection, used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- categories ---

// CreateCategory inserts a category with the given name. A name clash with
// an inactive category reactivates it instead; a clash with an active one
// is ErrCategoryExists.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	var existing core.Category
	var active int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, is_active FROM categories WHERE name = ?", name).
		Scan(&existing.ID, &existing.Name, &active)
	switch {
	case err == nil:
		if active != 0 {
			return core.Category{}, ErrCategoryExists
		}
		if _, err := r.db.ExecContext(ctx,
			"UPDATE categories SET is_active = 1 WHERE id = ?", existing.ID); err != nil {
			return core.Category{}, fmt.Errorf("reactivate category: %w", err)
		}
		existing.IsActive = true
		slog.InfoContext(ctx, "Category reactivated", "id", existing.ID, "name", existing.Name)
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return core.Category{}, fmt.Errorf("lookup category: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, is_active) VALUES (?, 1)", name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return core.Category{ID: id, Name: name, IsActive: true}, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, includeInactive bool) ([]core.Category, error) {
	query := "SELECT id, name, is_active FROM categories"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var active int64
		if err := rows.Scan(&c.ID, &c.Name, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.IsActive = active != 0
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var active int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, is_active FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.IsActive = active != 0
	return c, nil
}

// DeleteCategory removes a category outright when no expense references it,
// otherwise it deactivates it. The returned status tells the caller which
// happened (StatusDeleted or StatusSoftDeleted).
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) (string, error) {
	if _, err := r.GetCategory(ctx, id); err != nil {
		return "", err
	}

	var referenced int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE category_id = ?", id).Scan(&referenced)
	if err != nil {
		return "", fmt.Errorf("count category expenses: %w", err)
	}

	if referenced > 0 {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE categories SET is_active = 0 WHERE id = ?", id); err != nil {
			return "", fmt.Errorf("deactivate category: %w", err)
		}
		slog.InfoContext(ctx, "Category soft-deleted", "id", id, "expenses", referenced)
		return StatusSoftDeleted, nil
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return "", fmt.Errorf("delete category: %w", err)
	}
	return StatusDeleted, nil
}

// --- cards ---

func (r *SQLiteRepository) CreateCard(ctx context.Context, card core.Card) (core.Card, error) {
	var exists int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cards WHERE name = ?", card.Name).Scan(&exists); err != nil {
		return core.Card{}, fmt.Errorf("lookup card: %w", err)
	}
	if exists > 0 {
		return core.Card{}, ErrCardExists
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO cards (name, closing_day, is_active) VALUES (?, ?, 1)",
		card.Name, card.ClosingDay)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Card{}, fmt.Errorf("card id: %w", err)
	}
	card.ID = id
	card.IsActive = true
	return card, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context, includeInactive bool) ([]core.Card, error) {
	query := "SELECT id, name, closing_day, is_active FROM cards"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		var c core.Card
		var active int64
		if err := rows.Scan(&c.ID, &c.Name, &c.ClosingDay, &active); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.IsActive = active != 0
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.Card, error) {
	var c core.Card
	var active int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, closing_day, is_active FROM cards WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.ClosingDay, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, ErrNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	c.IsActive = active != 0
	return c, nil
}

// SetCardActive deactivates or reactivates a card. Deactivation is
// non-destructive: historical expenses keep referencing the card.
func (r *SQLiteRepository) SetCardActive(ctx context.Context, id int64, active bool) (core.Card, error) {
	if _, err := r.GetCard(ctx, id); err != nil {
		return core.Card{}, err
	}
	value := 0
	if active {
		value = 1
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE cards SET is_active = ? WHERE id = ?", value, id); err != nil {
		return core.Card{}, fmt.Errorf("set card active: %w", err)
	}
	return r.GetCard(ctx, id)
}

// --- expenses ---

const expenseColumns = `
	e.id, e.name, e.note, e.value_cents, e.responsible, e.date,
	e.is_installment, e.installment_count, e.installment_value_cents,
	c.id, c.name, c.is_active,
	k.id, k.name, k.closing_day, k.is_active`

const expenseFrom = `
	FROM expenses e
	JOIN categories c ON c.id = e.category_id
	LEFT JOIN cards k ON k.id = e.card_id`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var cardID any
	if e.Card != nil {
		cardID = e.Card.ID
	}
	var installmentValue any
	if e.IsInstallment {
		installmentValue = e.InstallmentValue.Cents
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses
			(name, note, value_cents, responsible, date,
			 is_installment, installment_count, installment_value_cents,
			 category_id, card_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Note, e.Value.Cents, e.Responsible, e.Date.String(),
		boolToInt(e.IsInstallment), e.InstallmentCount, installmentValue,
		e.Category.ID, cardID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	created, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense saved",
		"id", created.ID,
		"name", created.Name,
		"value_cents", created.Value.Cents,
		"date", created.Date.String(),
		"installments", created.InstallmentCount)
	return created, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+expenseColumns+expenseFrom+" WHERE e.id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense replaces the mutable fields of an expense row. Callers merge
// partial updates against the current row before calling.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	var cardID any
	if e.Card != nil {
		cardID = e.Card.ID
	}
	var installmentValue any
	if e.IsInstallment {
		installmentValue = e.InstallmentValue.Cents
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET
			name = ?, note = ?, value_cents = ?, responsible = ?, date = ?,
			is_installment = ?, installment_count = ?, installment_value_cents = ?,
			category_id = ?, card_id = ?
		WHERE id = ?`,
		e.Name, e.Note, e.Value.Cents, e.Responsible, e.Date.String(),
		boolToInt(e.IsInstallment), e.InstallmentCount, installmentValue,
		e.Category.ID, cardID, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForPeriod returns the expense rows that can contribute occurrences to
// the closed date interval [start, end]: plain expenses dated inside it,
// plus every installment purchase dated on or before the end (a purchase
// months earlier may still have an installment falling due inside). The
// caller expands and filters through core.
func (r *SQLiteRepository) ListForPeriod(ctx context.Context, start, end core.Date, cardID *int64) ([]core.Expense, error) {
	query := "SELECT" + expenseColumns + expenseFrom + `
	WHERE ((e.is_installment = 0 AND e.date >= ? AND e.date <= ?)
	    OR (e.is_installment = 1 AND e.date <= ?))`
	args := []any{start.String(), end.String(), end.String()}
	if cardID != nil {
		query += " AND e.card_id = ?"
		args = append(args, *cardID)
	}
	query += " ORDER BY e.date DESC, e.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses for period: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// --- goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (name, target_value_cents, target_date, created_at)
		VALUES (?, ?, ?, ?)`,
		g.Name, g.TargetValue.Cents, g.TargetDate.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	return r.GetGoal(ctx, id)
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	var g core.Goal
	var targetDate, createdAt string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, target_value_cents, target_date, created_at FROM goals WHERE id = ?", id).
		Scan(&g.ID, &g.Name, &g.TargetValue.Cents, &targetDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if g.TargetDate, err = core.ParseDate(targetDate); err != nil {
		return core.Goal{}, fmt.Errorf("goal target date: %w", err)
	}
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if g.Contributions, err = r.listContributions(ctx, id); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM goals ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan goal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var goals []core.Goal
	for _, id := range ids {
		g, err := r.GetGoal(ctx, id)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// DeleteGoal removes the goal; its contributions cascade with it.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) AddContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	if _, err := r.GetGoal(ctx, c.GoalID); err != nil {
		return core.Contribution{}, err
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO contributions (goal_id, value_cents, responsible, contribution_date)
		VALUES (?, ?, ?, ?)`,
		c.GoalID, c.Value.Cents, c.Responsible, c.Date.String())
	if err != nil {
		return core.Contribution{}, fmt.Errorf("add contribution: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Contribution{}, fmt.Errorf("contribution id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contributions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contribution result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) listContributions(ctx context.Context, goalID int64) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, value_cents, responsible, contribution_date
		FROM contributions WHERE goal_id = ?
		ORDER BY contribution_date, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.Contribution
	for rows.Next() {
		var c core.Contribution
		var date string
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Value.Cents, &c.Responsible, &date); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("contribution date: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// --- scanning ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                core.Expense
		date             string
		isInstallment    int64
		installmentValue sql.NullInt64
		categoryActive   int64
		cardID           sql.NullInt64
		cardName         sql.NullString
		cardClosingDay   sql.NullInt64
		cardActive       sql.NullInt64
	)

	err := row.Scan(
		&e.ID, &e.Name, &e.Note, &e.Value.Cents, &e.Responsible, &date,
		&isInstallment, &e.InstallmentCount, &installmentValue,
		&e.Category.ID, &e.Category.Name, &categoryActive,
		&cardID, &cardName, &cardClosingDay, &cardActive)
	if err != nil {
		return core.Expense{}, err
	}

	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense date: %w", err)
	}
	e.IsInstallment = isInstallment != 0
	if installmentValue.Valid {
		e.InstallmentValue = core.Money{Cents: installmentValue.Int64}
	}
	e.Category.IsActive = categoryActive != 0
	if cardID.Valid {
		e.Card = &core.Card{
			ID:         cardID.Int64,
			Name:       cardName.String,
			ClosingDay: int(cardClosingDay.Int64),
			IsActive:   cardActive.Int64 != 0,
		}
	}
	return e, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
