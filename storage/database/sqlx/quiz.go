package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/quiz"
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo quizRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

const responseColumns = `id, token, experience_level, interests, goals, current_skills,
	learning_style, time_commitment, track, course_id, match_percent, created_at, ip_address`

func (repo quizRepository) CreateResponse(ctx context.Context, res quiz.Response, exec ...core.DBExecutor) (quiz.Response, error) {
	res.ID = uuid.New().String()

	q := `INSERT INTO questionnaire_response (` + responseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		res.ID, res.Token, res.ExperienceLevel, res.Interests, res.Goals, res.CurrentSkills,
		res.LearningStyle, res.TimeCommitment, res.Track, res.CourseID, res.MatchPercent,
		res.CreatedAt.UTC(), res.IPAddress,
	)
	if err != nil {
		return quiz.Response{}, errors.Wrap(err, "inserting response")
	}
	return res, nil
}

func (repo quizRepository) GetResponseByToken(ctx context.Context, token string, exec ...core.DBExecutor) (quiz.Response, error) {
	var res quiz.Response
	q := `SELECT ` + responseColumns + ` FROM questionnaire_response WHERE token = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &res, q, token); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Response{}, quiz.ErrNotFound
		}
		return quiz.Response{}, errors.Wrap(err, "finding response")
	}
	return res, nil
}
