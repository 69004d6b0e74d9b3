package quiz

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upscaleng/upscale/core"
)

// Track identifies one of the course tracks the engine recommends between.
// The valid set and its order come from the question bank, not from code.
type Track string

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
)

// MinAnswers is the number of non-empty answers required before a
// submission is scored. A UX gate; the engine itself accepts any input.
const MinAnswers = 5

type (
	// Option is one selectable answer to a Question, carrying a score
	// contribution per track.
	Option struct {
		Value  string        `json:"value" yaml:"value"`
		Label  string        `json:"label" yaml:"label"`
		Scores map[Track]int `json:"-" yaml:"scores"`
	}

	Question struct {
		ID      string       `json:"id" yaml:"id"`
		Section string       `json:"section" yaml:"section"`
		Prompt  string       `json:"question" yaml:"prompt"`
		Type    QuestionType `json:"type" yaml:"type"`
		Options []Option     `json:"options" yaml:"options"`
	}

	Job struct {
		Title       string   `json:"title" yaml:"title"`
		Description string   `json:"description" yaml:"description"`
		SalaryRange string   `json:"salary_range" yaml:"salary_range"`
		Skills      []string `json:"skills" yaml:"skills"`
	}
)

// option resolves an option by value; unknown values are the caller's
// problem to skip.
func (q Question) option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// MaxScore is the highest score a respondent can contribute to `t` through
// this question: the best single option for single-cardinality questions,
// the sum of all options for multiple-cardinality ones (they can all be
// selected at once).
func (q Question) MaxScore(t Track) int {
	var max, sum int
	for _, opt := range q.Options {
		s := opt.Scores[t]
		sum += s
		if s > max {
			max = s
		}
	}
	if q.Type == QuestionMultiple {
		return sum
	}
	return max
}

// ResponseSet is a visitor's answers: question id -> selected option values.
// Single-cardinality questions read the first value only.
type ResponseSet map[string][]string

// Result is the engine's output: the winning track, the normalized match
// percentage and the full per-track score vector for transparency.
type Result struct {
	Track   Track         `json:"track"`
	Percent int           `json:"match_percentage"`
	Scores  map[Track]int `json:"scores"`
}

// Response is the persisted questionnaire outcome, keyed by an opaque
// session token. Immutable once stored.
type Response struct {
	ID              string      `db:"id" json:"-"`
	Token           string      `db:"token" json:"token"`
	ExperienceLevel null.String `db:"experience_level" json:"experience_level"`
	Interests       null.String `db:"interests" json:"interests"`       // JSON-encoded
	Goals           null.String `db:"goals" json:"goals"`               // JSON-encoded
	CurrentSkills   null.String `db:"current_skills" json:"current_skills"` // JSON-encoded
	LearningStyle   null.String `db:"learning_style" json:"learning_style"`
	TimeCommitment  null.String `db:"time_commitment" json:"time_commitment"`
	Track           Track       `db:"track" json:"track"`
	CourseID        null.String `db:"course_id" json:"course_id"`
	MatchPercent    int         `db:"match_percent" json:"match_percentage"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"` // UTC
	IPAddress       null.String `db:"ip_address" json:"-"`
}

// Selection holds one answer's selected values. It accepts either a single
// JSON string or an array of strings; no other shape is accepted.
type Selection []string

func (s *Selection) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = Selection{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("answer must be a string or a list of strings")
	}
	*s = many
	return nil
}

// Submission is the questionnaire form as posted by a visitor.
type Submission struct {
	Answers map[string]Selection `json:"answers" validate:"required"`
}

var errTooFewAnswers = errors.Errorf("at least %d answers are required", MinAnswers)

func (sub *Submission) Validate(validate *validator.Validate) error {
	for qid, sel := range sub.Answers {
		cleaned := make(Selection, 0, len(sel))
		for _, val := range sel {
			if val = core.CleanString(val); val != "" {
				cleaned = append(cleaned, val)
			}
		}
		sub.Answers[qid] = cleaned
	}

	if err := validate.Struct(sub); err != nil {
		return err
	}
	if sub.answered() < MinAnswers {
		return core.NewValidationError(errTooFewAnswers, core.FieldError{Field: "answers", Error: errTooFewAnswers.Error()})
	}
	return nil
}

func (sub *Submission) answered() int {
	var n int
	for _, sel := range sub.Answers {
		if len(sel) > 0 {
			n++
		}
	}
	return n
}

// ResponseSet exposes the submission in the engine's input shape.
func (sub *Submission) ResponseSet() ResponseSet {
	rs := make(ResponseSet, len(sub.Answers))
	for qid, sel := range sub.Answers {
		if len(sel) > 0 {
			rs[qid] = sel
		}
	}
	return rs
}
