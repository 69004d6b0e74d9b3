package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateResponse(_ context.Context, res quiz.Response, _ ...core.DBExecutor) (quiz.Response, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	res.ID = uuid.New().String()
	repo.db.responses[res.ID] = &res
	return res, nil
}

func (repo *quizRepository) GetResponseByToken(_ context.Context, token string, _ ...core.DBExecutor) (quiz.Response, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, res := range repo.db.responses {
		if res.Token == token {
			return *res, nil
		}
	}
	return quiz.Response{}, quiz.ErrNotFound
}
