package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/upscaleng/upscale/apps/api/echo"
	"github.com/upscaleng/upscale/core/course"
)

func getCourse(t *testing.T, track string) course.Course {
	t.Helper()

	crs, err := crsRepo.GetCourse(context.Background(), course.GetFilter{Track: track})
	if err != nil {
		t.Fatalf("GetCourse(%s) failed: %v", track, err)
	}
	return crs
}

func Test_courseApi_query(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/courses")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var courses []course.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	wantTitles := []string{"Cybersecurity with AI", "Data Engineering for AI", "Web App Development with AI"}
	if len(courses) != len(wantTitles) {
		t.Fatalf("failed! len(courses) = %d; want %d", len(courses), len(wantTitles))
	}
	for i, crs := range courses {
		if crs.Title != wantTitles[i] {
			t.Errorf("failed! courses[%d].Title = %q; want %q", i, crs.Title, wantTitles[i])
		}
		if len(crs.Modules) != 3 {
			t.Errorf("failed! %q has %d modules; want 3", crs.Title, len(crs.Modules))
		}
		for j, mod := range crs.Modules {
			if mod.Position != j+1 {
				t.Errorf("failed! %q modules out of order: position %d at index %d", crs.Title, mod.Position, j)
			}
		}
	}
}

func Test_courseApi_retrieve(t *testing.T) {
	app := setup(t)

	crs := getCourse(t, "security")

	t.Run("unknown course", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newRequest(http.MethodGet, "/v1/courses/lol")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("found", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.CourseDetailResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Title != crs.Title {
			t.Errorf("failed! title = %q; want %q", respData.Title, crs.Title)
		}
		if len(respData.Modules) != 3 {
			t.Errorf("failed! len(Modules) = %d; want 3", len(respData.Modules))
		}
		if len(respData.Curriculum) != 12 {
			t.Errorf("failed! len(Curriculum) = %d; want 12", len(respData.Curriculum))
		}
	})
}

func Test_courseApi_dashboard(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero01", "hero@test.ng", "LolC@t123", nil, true)
	token := getToken(t, student)

	fetchDashboard := func(t *testing.T) echoapi.DashboardResponse {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData echoapi.DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return respData
	}

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/dashboard")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("fresh student", func(t *testing.T) {
		dash := fetchDashboard(t)
		if len(dash.Courses) != 3 {
			t.Fatalf("failed! len(Courses) = %d; want 3", len(dash.Courses))
		}
		for _, entry := range dash.Courses {
			for id, done := range entry.Progress {
				if done {
					t.Errorf("failed! module %s already completed", id)
				}
			}
			if entry.NextModule == nil {
				t.Errorf("failed! no next module for %q", entry.Course.Title)
			} else if entry.NextModule.Position != 1 {
				t.Errorf("failed! next module position = %d; want 1", entry.NextModule.Position)
			}
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/modules/lol/complete", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("complete first module", func(t *testing.T) {
		dash := fetchDashboard(t)
		first := dash.Courses[0].NextModule

		req, rec := newAuthRequest(http.MethodPost, "/v1/modules/"+first.ID+"/complete", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var prog course.Progress
		if err := json.Unmarshal(rec.Body.Bytes(), &prog); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !prog.Completed || prog.ModuleID != first.ID {
			t.Errorf("failed! progress = %+v", prog)
		}

		// completing twice stays idempotent
		req, rec = newAuthRequest(http.MethodPost, "/v1/modules/"+first.ID+"/complete", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v on repeat completion", rec.Code)
		}

		dash = fetchDashboard(t)
		entry := dash.Courses[0]
		if !entry.Progress[first.ID] {
			t.Error("failed! completed module not flagged")
		}
		if entry.NextModule == nil || entry.NextModule.Position != 2 {
			t.Errorf("failed! next module = %+v; want position 2", entry.NextModule)
		}
	})

	t.Run("course completed", func(t *testing.T) {
		crs := getCourse(t, "security")
		dash := fetchDashboard(t)

		// finish every module of the first course (sorted by title, security first)
		for _, entry := range dash.Courses {
			if entry.Course.ID != crs.ID {
				continue
			}
			for id := range entry.Progress {
				req, rec := newAuthRequest(http.MethodPost, "/v1/modules/"+id+"/complete", token)
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Fatalf("failed! code = %v completing %s", rec.Code, id)
				}
			}
		}

		dash = fetchDashboard(t)
		for _, entry := range dash.Courses {
			if entry.Course.ID != crs.ID {
				continue
			}
			if entry.NextModule != nil {
				t.Errorf("failed! next module = %+v; want none", entry.NextModule)
			}
		}
	})
}
