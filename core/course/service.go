package course

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrModuleNotFound = errors.New("module not found")
)

type (
	GetFilter struct {
		ID    string
		Track string
		Title string
	}

	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		CreateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
		QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Course, error)
		QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Module, error)
		GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (Module, error)
		// UpsertProgress creates or updates the (user, module) completion flag.
		UpsertProgress(ctx context.Context, prog Progress, exec ...core.DBExecutor) (Progress, error)
		QueryProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Progress, error)
	}

	ServiceInterface interface {
		Query(ctx context.Context) ([]Course, error)
		Get(ctx context.Context, filter GetFilter) (Course, error)
		Curriculum(crs Course) []WeekTopic
		CompleteModule(ctx context.Context, userID, moduleID string) (Progress, error)
		// ProgressByModule returns the user's completion flags keyed by module id.
		ProgressByModule(ctx context.Context, userID string) (map[string]bool, error)
		// NextModule recommends the first incomplete module of a course;
		// ok is false when the course is fully completed.
		NextModule(crs Course, completed map[string]bool) (Module, bool)
	}

	service struct {
		repo    Repository
		catalog *Catalog
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, catalog *Catalog) *service {
	return &service{repo: repo, catalog: catalog}
}

func (svc *service) Query(ctx context.Context) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	for i, crs := range courses {
		mods, err := svc.repo.QueryModules(ctx, crs.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying modules")
		}
		courses[i].Modules = mods
	}
	return courses, nil
}

func (svc *service) Get(ctx context.Context, filter GetFilter) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, filter)
	if err != nil {
		return Course{}, err
	}
	mods, err := svc.repo.QueryModules(ctx, crs.ID)
	if err != nil {
		return Course{}, errors.Wrap(err, "querying modules")
	}
	crs.Modules = mods
	return crs, nil
}

func (svc *service) Curriculum(crs Course) []WeekTopic {
	return svc.catalog.Curriculum(crs.Title)
}

func (svc *service) CompleteModule(ctx context.Context, userID, moduleID string) (Progress, error) {
	mod, err := svc.repo.GetModule(ctx, moduleID)
	if err != nil {
		return Progress{}, err
	}
	prog := Progress{
		UserID:    userID,
		ModuleID:  mod.ID,
		Completed: true,
		UpdatedAt: time.Now().UTC(),
	}
	prog, err = svc.repo.UpsertProgress(ctx, prog)
	return prog, errors.Wrap(err, "upserting progress")
}

func (svc *service) ProgressByModule(ctx context.Context, userID string) (map[string]bool, error) {
	progs, err := svc.repo.QueryProgress(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	byModule := make(map[string]bool, len(progs))
	for _, p := range progs {
		byModule[p.ModuleID] = p.Completed
	}
	return byModule, nil
}

func (svc *service) NextModule(crs Course, completed map[string]bool) (Module, bool) {
	mods := make([]Module, len(crs.Modules))
	copy(mods, crs.Modules)
	sort.Slice(mods, func(i, j int) bool { return mods[i].Position < mods[j].Position })

	for _, mod := range mods {
		if !completed[mod.ID] {
			return mod, true
		}
	}
	return Module{}, false
}
