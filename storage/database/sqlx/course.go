package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()

	q := `INSERT INTO course (id, track, title, description, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.getExec(exec).ExecContext(ctx, q, crs.ID, crs.Track, crs.Title, crs.Description, crs.CreatedAt.UTC())
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) CreateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	mod.ID = uuid.New().String()

	q := `INSERT INTO module (id, course_id, position, title, content) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.getExec(exec).ExecContext(ctx, q, mod.ID, mod.CourseID, mod.Position, mod.Title, mod.Content)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return mod, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	var courses []course.Course
	q := `SELECT id, track, title, description, created_at FROM course ORDER BY created_at, title`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &courses, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, filter course.GetFilter, exec ...core.DBExecutor) (course.Course, error) {
	q := `SELECT id, track, title, description, created_at FROM course WHERE `
	var arg interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return course.Course{}, course.ErrNotFound
		}
		q += `id = $1`
		arg = filter.ID
	case filter.Track != "":
		q += `track = $1`
		arg = filter.Track
	case filter.Title != "":
		q += `title = $1`
		arg = filter.Title
	default:
		return course.Course{}, course.ErrNotFound
	}

	var crs course.Course
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &crs, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return crs, nil
}

func (repo courseRepository) QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Module, error) {
	var mods []course.Module
	q := `SELECT id, course_id, position, title, content FROM module WHERE course_id = $1 ORDER BY position`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &mods, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return mods, nil
}

func (repo courseRepository) GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (course.Module, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Module{}, course.ErrModuleNotFound
	}

	var mod course.Module
	q := `SELECT id, course_id, position, title, content FROM module WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &mod, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "finding module")
	}
	return mod, nil
}

func (repo courseRepository) UpsertProgress(ctx context.Context, prog course.Progress, exec ...core.DBExecutor) (course.Progress, error) {
	prog.ID = uuid.New().String()

	q := `INSERT INTO progress (id, user_id, module_id, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, module_id)
		DO UPDATE SET completed = EXCLUDED.completed, updated_at = EXCLUDED.updated_at
		RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(ctx, q,
		prog.ID, prog.UserID, prog.ModuleID, prog.Completed, prog.UpdatedAt.UTC(),
	).Scan(&prog.ID)
	if err != nil {
		return course.Progress{}, errors.Wrap(err, "upserting progress")
	}
	return prog, nil
}

func (repo courseRepository) QueryProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]course.Progress, error) {
	var progs []course.Progress
	q := `SELECT id, user_id, module_id, completed, updated_at FROM progress WHERE user_id = $1`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &progs, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	return progs, nil
}
