package repository

import (
	"context"
	"time"

	"StorefrontAPI/internal/model"
)

type QuestionRepository struct {
	DB DB
}

func NewQuestionRepository(db DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(ctx context.Context, productID, userID int64, body string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO questions (product_id, user_id, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id
	`, productID, userID, body, time.Now()).Scan(&id)
	return id, err
}

func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	var q model.Question
	err := r.DB.QueryRow(ctx, `SELECT id, product_id, user_id, body, created_at FROM questions WHERE id = $1`, id).
		Scan(&q.ID, &q.ProductID, &q.UserID, &q.Body, &q.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *QuestionRepository) Answer(ctx context.Context, questionID, userID int64, body string, official bool) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO answers (question_id, user_id, body, is_official, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, questionID, userID, body, official, time.Now()).Scan(&id)
	return id, err
}

// ListByProduct returns questions newest first, each with its answers.
func (r *QuestionRepository) ListByProduct(ctx context.Context, productID int64) ([]model.Question, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, user_id, body, created_at FROM questions
		WHERE product_id = $1 ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Question{}
	index := map[int64]int{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ProductID, &q.UserID, &q.Body, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Answers = []model.Answer{}
		index[q.ID] = len(out)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	arows, err := r.DB.Query(ctx, `
		SELECT a.id, a.question_id, a.user_id, a.body, a.is_official, a.created_at
		FROM answers a JOIN questions q ON q.id = a.question_id
		WHERE q.product_id = $1
		ORDER BY a.is_official DESC, a.created_at, a.id
	`, productID)
	if err != nil {
		return nil, err
	}
	defer arows.Close()

	for arows.Next() {
		var a model.Answer
		if err := arows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Body, &a.IsOfficial, &a.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[a.QuestionID]; ok {
			out[i].Answers = append(out[i].Answers, a)
		}
	}
	return out, arows.Err()
}

// Delete removes the question and its answers.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
