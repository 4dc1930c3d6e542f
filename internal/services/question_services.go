package services

import (
	"context"
	"strings"

	"StorefrontAPI/internal/model"
)

const MaxQuestionLen = 2000

type QuestionService struct {
	Questions QuestionStore
	Products  ProductReader
}

func NewQuestionService(q QuestionStore, p ProductReader) *QuestionService {
	return &QuestionService{Questions: q, Products: p}
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", Validation("body is required")
	}
	if len(body) > MaxQuestionLen {
		return "", Validationf("body must be at most %d characters", MaxQuestionLen)
	}
	return body, nil
}

func (s *QuestionService) Ask(ctx context.Context, actor *model.Identity, productID int64, body string) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	body, err := cleanBody(body)
	if err != nil {
		return 0, err
	}
	if _, err := s.Products.GetByID(ctx, productID); err != nil {
		return 0, notFoundAs(err, "Product not found")
	}
	return s.Questions.Create(ctx, productID, actor.UserID, body)
}

// Answer adds a reply. Replies by admins are marked official.
func (s *QuestionService) Answer(ctx context.Context, actor *model.Identity, questionID int64, body string) (int64, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	body, err := cleanBody(body)
	if err != nil {
		return 0, err
	}
	if _, err := s.Questions.GetByID(ctx, questionID); err != nil {
		return 0, notFoundAs(err, "Question not found")
	}
	return s.Questions.Answer(ctx, questionID, actor.UserID, body, actor.IsAdmin())
}

func (s *QuestionService) List(ctx context.Context, productID int64) ([]model.Question, error) {
	out, err := s.Questions.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Question{}
	}
	return out, nil
}

func (s *QuestionService) Delete(ctx context.Context, actor *model.Identity, questionID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	q, err := s.Questions.GetByID(ctx, questionID)
	if err != nil {
		return notFoundAs(err, "Question not found")
	}
	if err := requireOwner(actor, q.UserID, "not your question"); err != nil {
		return err
	}
	return notFoundAs(s.Questions.Delete(ctx, questionID), "Question not found")
}
