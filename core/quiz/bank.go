package quiz

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/upscaleng/upscale/fs"
)

const bankAsset = "assets/questionnaire.yaml"

type (
	// TrackInfo maps a track id to the catalog course it recommends.
	TrackInfo struct {
		ID     Track  `json:"id" yaml:"id"`
		Course string `json:"course" yaml:"course"`
	}

	// Bank is the static questionnaire configuration: the versioned question
	// table, the ordered track set and the jobs/companies reference tables.
	// Loaded once at startup and treated as read-only from then on.
	Bank struct {
		// MaxQuestionScore is the flat per-question score ceiling used for
		// normalization. See Engine.Evaluate for why this is deliberately
		// loose for multiple-cardinality questions.
		MaxQuestionScore int `yaml:"max_question_score"`

		// DefaultTrack and FallbackPercent are returned when every track
		// scores zero.
		DefaultTrack    Track `yaml:"default_track"`
		FallbackPercent int   `yaml:"fallback_percent"`

		// Tracks order is the engine's tie-break order.
		Tracks    []TrackInfo `yaml:"tracks"`
		Questions []Question  `yaml:"questions"`

		Jobs      map[Track][]Job      `yaml:"jobs"`
		Companies map[Track][]string   `yaml:"companies"`

		index map[string]int // question id -> position
	}
)

// LoadBank parses and validates the embedded question bank.
func LoadBank() (*Bank, error) {
	raw, err := appfs.FS.ReadFile(bankAsset)
	if err != nil {
		return nil, errors.Wrap(err, "reading question bank")
	}

	var bank Bank
	if err = yaml.Unmarshal(raw, &bank); err != nil {
		return nil, errors.Wrap(err, "parsing question bank")
	}
	if err = bank.validate(); err != nil {
		return nil, errors.Wrap(err, "validating question bank")
	}

	bank.index = make(map[string]int, len(bank.Questions))
	for i, q := range bank.Questions {
		bank.index[q.ID] = i
	}
	return &bank, nil
}

func (b *Bank) validate() error {
	if b.MaxQuestionScore <= 0 {
		return errors.New("max_question_score must be positive")
	}
	if len(b.Tracks) == 0 {
		return errors.New("no tracks defined")
	}

	known := make(map[Track]bool, len(b.Tracks))
	for _, t := range b.Tracks {
		if t.ID == "" || t.Course == "" {
			return errors.New("track id and course are required")
		}
		if known[t.ID] {
			return errors.Errorf("duplicate track %q", t.ID)
		}
		known[t.ID] = true
	}
	if !known[b.DefaultTrack] {
		return errors.Errorf("default_track %q is not a declared track", b.DefaultTrack)
	}

	seenQ := make(map[string]bool, len(b.Questions))
	for _, q := range b.Questions {
		if q.ID == "" {
			return errors.New("question id is required")
		}
		if seenQ[q.ID] {
			return errors.Errorf("duplicate question %q", q.ID)
		}
		seenQ[q.ID] = true

		if !(q.Type == QuestionSingle || q.Type == QuestionMultiple) {
			return errors.Errorf("question %q: unknown type %q", q.ID, q.Type)
		}
		if len(q.Options) < 2 {
			return errors.Errorf("question %q: at least 2 options are required", q.ID)
		}

		seenOpt := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if opt.Value == "" {
				return errors.Errorf("question %q: option value is required", q.ID)
			}
			if seenOpt[opt.Value] {
				return errors.Errorf("question %q: duplicate option %q", q.ID, opt.Value)
			}
			seenOpt[opt.Value] = true

			for t, s := range opt.Scores {
				if !known[t] {
					return errors.Errorf("question %q, option %q: unknown track %q", q.ID, opt.Value, t)
				}
				if s < 0 {
					return errors.Errorf("question %q, option %q: negative score for %q", q.ID, opt.Value, t)
				}
			}
		}
	}
	return nil
}

// Question resolves a question by id.
func (b *Bank) Question(id string) (Question, bool) {
	if i, ok := b.index[id]; ok {
		return b.Questions[i], true
	}
	return Question{}, false
}

// CourseTitle returns the catalog course title a track recommends.
func (b *Bank) CourseTitle(t Track) (string, bool) {
	for _, info := range b.Tracks {
		if info.ID == t {
			return info.Course, true
		}
	}
	return "", false
}

func (b *Bank) JobsFor(t Track) []Job          { return b.Jobs[t] }
func (b *Bank) CompaniesFor(t Track) []string  { return b.Companies[t] }
