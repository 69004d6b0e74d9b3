package quiz

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/course"
)

var (
	// errors
	ErrNotFound = errors.New("result not found")
)

type (
	Repository interface {
		CreateResponse(ctx context.Context, res Response, exec ...core.DBExecutor) (Response, error)
		GetResponseByToken(ctx context.Context, token string, exec ...core.DBExecutor) (Response, error)
	}

	// ResultPage is everything the results screen needs: the winning track,
	// the recommended course with its curriculum and the career reference
	// tables for that track.
	ResultPage struct {
		Track        Track              `json:"track"`
		MatchPercent int                `json:"match_percentage"`
		Course       course.Course      `json:"course"`
		Curriculum   []course.WeekTopic `json:"curriculum"`
		Jobs         []Job              `json:"jobs"`
		Companies    []string           `json:"companies"`
	}

	ServiceInterface interface {
		// Questions returns the question table in presentation order.
		Questions() []Question
		// Submit scores a submission, persists the outcome and returns it.
		// The returned Response carries the session token for result lookup.
		Submit(ctx context.Context, sub Submission, ip string) (Response, error)
		// Result resolves a stored outcome by token. Malformed or unknown
		// tokens read as ErrNotFound.
		Result(ctx context.Context, token string) (ResultPage, error)
	}

	service struct {
		repo      Repository
		courseSvc course.ServiceInterface
		bank      *Bank
		engine    *Engine
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, courseSvc course.ServiceInterface, bank *Bank) *service {
	return &service{
		repo:      repo,
		courseSvc: courseSvc,
		bank:      bank,
		engine:    NewEngine(bank),
	}
}

func (svc *service) Questions() []Question { return svc.bank.Questions }

func (svc *service) Submit(ctx context.Context, sub Submission, ip string) (Response, error) {
	responses := sub.ResponseSet()
	result := svc.engine.Evaluate(responses)

	res := Response{
		Token:           uuid.New().String(),
		ExperienceLevel: firstValue(responses, "q1"),
		Interests:       jsonValue(responses, "q4"),
		CurrentSkills:   jsonValue(responses, "q8"),
		LearningStyle:   firstValue(responses, "q9"),
		TimeCommitment:  firstValue(responses, "q10"),
		Goals:           jsonValue(responses, "q12"),
		Track:           result.Track,
		MatchPercent:    result.Percent,
		CreatedAt:       time.Now().UTC(),
		IPAddress:       anonymizeIP(ip),
	}

	if title, ok := svc.bank.CourseTitle(result.Track); ok {
		if crs, err := svc.courseSvc.Get(ctx, course.GetFilter{Title: title}); err == nil {
			res.CourseID = null.StringFrom(crs.ID)
		}
	}

	res, err := svc.repo.CreateResponse(ctx, res)
	return res, errors.Wrap(err, "creating response")
}

func (svc *service) Result(ctx context.Context, token string) (ResultPage, error) {
	token = core.CleanString(token)
	if _, err := uuid.Parse(token); err != nil {
		return ResultPage{}, ErrNotFound
	}

	res, err := svc.repo.GetResponseByToken(ctx, token)
	if err != nil {
		return ResultPage{}, err
	}

	page := ResultPage{
		Track:        res.Track,
		MatchPercent: res.MatchPercent,
		Jobs:         svc.bank.JobsFor(res.Track),
		Companies:    svc.bank.CompaniesFor(res.Track),
	}
	if res.CourseID.Valid {
		crs, err := svc.courseSvc.Get(ctx, course.GetFilter{ID: res.CourseID.String})
		if err != nil {
			return ResultPage{}, err
		}
		page.Course = crs
		page.Curriculum = svc.courseSvc.Curriculum(crs)
	}
	return page, nil
}

// firstValue echoes a single-cardinality answer, null when unanswered.
func firstValue(responses ResponseSet, qid string) null.String {
	if sel := responses[qid]; len(sel) > 0 {
		return null.StringFrom(sel[0])
	}
	return null.String{}
}

// jsonValue echoes an answer JSON-encoded, preserving single/multiple shape.
func jsonValue(responses ResponseSet, qid string) null.String {
	sel := responses[qid]
	if len(sel) == 0 {
		return null.String{}
	}

	var raw []byte
	if len(sel) == 1 {
		raw, _ = json.Marshal(sel[0])
	} else {
		raw, _ = json.Marshal(sel)
	}
	return null.StringFrom(string(raw))
}

// anonymizeIP drops the host part of the visitor address before storage:
// the last octet for IPv4, everything past the /48 for IPv6.
func anonymizeIP(ip string) null.String {
	parsed := net.ParseIP(core.CleanString(ip))
	if parsed == nil {
		return null.String{}
	}
	if v4 := parsed.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return null.StringFrom(masked.String())
	}
	masked := parsed.Mask(net.CIDRMask(48, 128))
	return null.StringFrom(masked.String())
}
