package inmemdb

import (
	"sync"

	"github.com/upscaleng/upscale/core/course"
	"github.com/upscaleng/upscale/core/payment"
	"github.com/upscaleng/upscale/core/quiz"
	"github.com/upscaleng/upscale/core/user"
)

// DB is a map-backed store with the same repository surface as postgres.
// Tests run against it; nothing here survives a restart.
type DB struct {
	mu sync.RWMutex

	users     map[string]*user.User
	courses   map[string]*course.Course
	modules   map[string]*course.Module
	progress  map[string]*course.Progress
	payments  map[string]*payment.Payment
	responses map[string]*quiz.Response
}

func NewDB() *DB {
	return &DB{
		users:     make(map[string]*user.User),
		courses:   make(map[string]*course.Course),
		modules:   make(map[string]*course.Module),
		progress:  make(map[string]*course.Progress),
		payments:  make(map[string]*payment.Payment),
		responses: make(map[string]*quiz.Response),
	}
}
