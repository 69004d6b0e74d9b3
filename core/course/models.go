package course

import "time"

type (
	Course struct {
		ID          string    `db:"id" json:"id"`
		Track       string    `db:"track" json:"track"`
		Title       string    `db:"title" json:"title"`
		Description string    `db:"description" json:"description"`
		CreatedAt   time.Time `db:"created_at" json:"created_at"` // UTC

		Modules []Module `db:"-" json:"modules,omitempty"`
	}

	Module struct {
		ID       string `db:"id" json:"id"`
		CourseID string `db:"course_id" json:"course_id"`
		Position int    `db:"position" json:"position"`
		Title    string `db:"title" json:"title"`
		Content  string `db:"content" json:"content"`
	}

	// Progress is a student's completion flag for one module.
	Progress struct {
		ID        string    `db:"id" json:"-"`
		UserID    string    `db:"user_id" json:"-"`
		ModuleID  string    `db:"module_id" json:"module_id"`
		Completed bool      `db:"completed" json:"completed"`
		UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
	}

	// WeekTopic is one row of a course's 12-week curriculum table.
	WeekTopic struct {
		Week  string `json:"week" yaml:"week"`
		Topic string `json:"topic" yaml:"topic"`
	}
)
