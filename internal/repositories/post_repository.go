package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bloghub/backend/internal/models"
	"go.uber.org/zap"
)

// postRepository implements post data access over database/sql
type postRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *sql.DB, logger *zap.Logger) *postRepository {
	return &postRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new post into the database
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (title, content, author_id, image, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	post.CreatedAt = time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, query, post.Title, post.Content, post.AuthorID, nullString(post.Image), post.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create post", zap.Error(err))
		return fmt.Errorf("failed to create post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	post.ID = int(id)
	return nil
}

// GetAll retrieves all posts, newest first
func (r *postRepository) GetAll(ctx context.Context) ([]models.Post, error) {
	query := `
		SELECT id, title, content, author_id, image, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query posts", zap.Error(err))
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetByID retrieves a post by ID
func (r *postRepository) GetByID(ctx context.Context, postID int) (*models.Post, error) {
	query := `
		SELECT id, title, content, author_id, image, created_at
		FROM posts
		WHERE id = ?
		LIMIT 1
	`

	post := &models.Post{}
	var image sql.NullString
	err := r.db.QueryRowContext(ctx, query, postID).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&image,
		&post.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	if err != nil {
		r.logger.Error("failed to get post by id", zap.Error(err), zap.Int("postId", postID))
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}

	post.Image = image.String
	return post, nil
}

// GetByAuthor retrieves all posts created by the given user, newest first
func (r *postRepository) GetByAuthor(ctx context.Context, authorID int) ([]models.Post, error) {
	query := `
		SELECT id, title, content, author_id, image, created_at
		FROM posts
		WHERE author_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		r.logger.Error("failed to query posts by author", zap.Error(err), zap.Int("authorId", authorID))
		return nil, fmt.Errorf("failed to query posts by author: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Update persists the post's title, content and image
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = ?, content = ?, image = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, post.Title, post.Content, nullString(post.Image), post.ID)
	if err != nil {
		r.logger.Error("failed to update post", zap.Error(err), zap.Int("postId", post.ID))
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

// Delete removes a post by ID
func (r *postRepository) Delete(ctx context.Context, postID int) error {
	query := `DELETE FROM posts WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		r.logger.Error("failed to delete post", zap.Error(err), zap.Int("postId", postID))
		return fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPostNotFound
	}

	return nil
}

// scanPosts reads post rows into a slice
func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var image sql.NullString
		err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Content,
			&post.AuthorID,
			&image,
			&post.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.Image = image.String
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return posts, nil
}

// nullString maps an empty string to SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
