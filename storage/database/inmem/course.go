package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = uuid.New().String()
	crs.Modules = nil
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) CreateModule(_ context.Context, mod course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	mod.ID = uuid.New().String()
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	// creation order, title as tie-break for same-instant rows
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		return courses[i].Title < courses[j].Title
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.db.courses {
		switch {
		case filter.ID != "":
			if crs.ID == filter.ID {
				return *crs, nil
			}
		case filter.Track != "":
			if crs.Track == filter.Track {
				return *crs, nil
			}
		case filter.Title != "":
			if crs.Title == filter.Title {
				return *crs, nil
			}
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryModules(_ context.Context, courseID string, _ ...core.DBExecutor) ([]course.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	mods := make([]course.Module, 0)
	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID {
			mods = append(mods, *mod)
		}
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Position < mods[j].Position })
	return mods, nil
}

func (repo *courseRepository) GetModule(_ context.Context, id string, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) UpsertProgress(_ context.Context, prog course.Progress, _ ...core.DBExecutor) (course.Progress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, p := range repo.db.progress {
		if p.UserID == prog.UserID && p.ModuleID == prog.ModuleID {
			p.Completed = prog.Completed
			p.UpdatedAt = prog.UpdatedAt
			return *p, nil
		}
	}

	prog.ID = uuid.New().String()
	repo.db.progress[prog.ID] = &prog
	return prog, nil
}

func (repo *courseRepository) QueryProgress(_ context.Context, userID string, _ ...core.DBExecutor) ([]course.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	progs := make([]course.Progress, 0)
	for _, p := range repo.db.progress {
		if p.UserID == userID {
			progs = append(progs, *p)
		}
	}
	return progs, nil
}
