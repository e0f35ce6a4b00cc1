package store

import (
	"database/sql"
	"fmt"

	"github.com/snap-point/social-posts/models"
	"github.com/snap-point/social-posts/utils"
	"gorm.io/gorm"
)

// Where scopes a statement to visible (Removed false) or soft-deleted
// (Removed true) posts, optionally narrowed to a single id.
type Where struct {
	ID      int64
	ByID    bool
	Removed bool
}

// Visible matches every post that has not been soft-deleted.
func Visible() Where {
	return Where{}
}

// PostByID matches one post in the given removed state.
func PostByID(id int64, removed bool) Where {
	return Where{ID: id, ByID: true, Removed: removed}
}

// Changes lists the columns an update touches. Nil fields are left alone.
type Changes struct {
	Content    *string
	Removed    *bool
	LikesDelta int64
}

// Result is the raw outcome of a select: rows in order plus column metadata.
type Result struct {
	Rows    [][]interface{}
	Columns []utils.Column
}

// PostTable is the per-session handle on the posts table.
type PostTable interface {
	// Select returns id, content, likes and created, newest id first.
	Select(where Where) (Result, error)
	// Insert stores a new post and returns its generated id.
	Insert(content string) (int64, error)
	// Update applies changes and reports the number of rows affected.
	Update(where Where, changes Changes) (int64, error)
}

type gormPostTable struct {
	tx   *gorm.DB
	name string
}

// TableName qualifies the posts table with schema.
func TableName(schema string) string {
	if schema == "" {
		return "posts"
	}
	return schema + ".posts"
}

func (t *gormPostTable) scope(where Where) *gorm.DB {
	query := t.tx.Table(t.name).Where("removed = ?", where.Removed)
	if where.ByID {
		query = query.Where("id = ?", where.ID)
	}
	return query
}

func (t *gormPostTable) Select(where Where) (Result, error) {
	rows, err := t.scope(where).Select(models.PostColumns).Order("id DESC").Rows()
	if err != nil {
		return Result{}, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	return scanResult(rows)
}

func (t *gormPostTable) Insert(content string) (int64, error) {
	post := models.Post{Content: content}
	if err := t.tx.Table(t.name).Select("content").Create(&post).Error; err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return post.ID, nil
}

func (t *gormPostTable) Update(where Where, changes Changes) (int64, error) {
	values := updateValues(changes)
	if len(values) == 0 {
		return 0, nil
	}

	result := t.scope(where).Updates(values)
	if result.Error != nil {
		return 0, fmt.Errorf("update posts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func updateValues(changes Changes) map[string]interface{} {
	values := map[string]interface{}{}
	if changes.Content != nil {
		values["content"] = *changes.Content
	}
	if changes.Removed != nil {
		values["removed"] = *changes.Removed
	}
	if changes.LikesDelta != 0 {
		values["likes"] = gorm.Expr("COALESCE(likes, 0) + ?", changes.LikesDelta)
	}
	return values
}

type sqlColumn struct {
	name string
}

func (c sqlColumn) Label() string {
	return c.name
}

func scanResult(rows *sql.Rows) (Result, error) {
	names, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("read columns: %w", err)
	}

	result := Result{Columns: make([]utils.Column, len(names))}
	for i, name := range names {
		result.Columns[i] = sqlColumn{name: name}
	}

	for rows.Next() {
		values := make([]interface{}, len(names))
		dest := make([]interface{}, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, fmt.Errorf("scan post: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate posts: %w", err)
	}
	return result, nil
}
