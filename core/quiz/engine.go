package quiz

// Engine scores a ResponseSet against the question bank. It is stateless
// and holds no mutable data: Evaluate may be called concurrently from any
// number of requests.
type Engine struct {
	bank *Bank

	// DedupeMulti collapses repeated selections of the same option on a
	// multiple-cardinality question. Off by default: the reference behavior
	// counts every occurrence again.
	DedupeMulti bool
}

func NewEngine(bank *Bank) *Engine {
	return &Engine{bank: bank}
}

// Evaluate turns a visitor's answers into (winning track, match percentage,
// per-track raw scores).
//
// Unknown question ids and option values are skipped silently: the bank
// changes over time and stale answers are not an error. If every track
// scores zero the bank's default track is returned at its fixed fallback
// percentage instead of falling through to the max logic.
func (e *Engine) Evaluate(responses ResponseSet) Result {
	scores := make(map[Track]int, len(e.bank.Tracks))
	for _, t := range e.bank.Tracks {
		scores[t.ID] = 0
	}

	for qid, sel := range responses {
		q, ok := e.bank.Question(qid)
		if !ok {
			continue
		}

		switch q.Type {
		case QuestionSingle:
			if len(sel) == 0 {
				continue
			}
			if opt, ok := q.option(sel[0]); ok {
				accumulate(scores, opt)
			}
		case QuestionMultiple:
			var seen map[string]bool
			if e.DedupeMulti {
				seen = make(map[string]bool, len(sel))
			}
			for _, val := range sel {
				if seen != nil {
					if seen[val] {
						continue
					}
					seen[val] = true
				}
				if opt, ok := q.option(val); ok {
					accumulate(scores, opt)
				}
			}
		}
	}

	// Winner by max score; ties break on the bank's track order, never on
	// map iteration order.
	var winner Track
	var max int
	for _, t := range e.bank.Tracks {
		if s := scores[t.ID]; s > max {
			winner, max = t.ID, s
		}
	}

	if max == 0 {
		// no clear match
		return Result{Track: e.bank.DefaultTrack, Percent: e.bank.FallbackPercent, Scores: scores}
	}

	// Normalize against a flat per-question ceiling. This under-counts the
	// true maximum of multiple-cardinality questions (their real ceiling is
	// the sum of all option scores, see Question.MaxScore) so heavy
	// multi-select profiles could exceed 100 before the cap; the cap at 99
	// masks that. Kept as-is: correcting the denominator would change every
	// historical percentage.
	total := len(e.bank.Questions) * e.bank.MaxQuestionScore
	percent := max * 100 / total
	if percent > 99 {
		percent = 99
	}
	return Result{Track: winner, Percent: percent, Scores: scores}
}

func accumulate(scores map[Track]int, opt Option) {
	for t, s := range opt.Scores {
		if _, ok := scores[t]; ok {
			scores[t] += s
		}
	}
}
