package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/user"
	testutil "github.com/stiapanreha-dev/klabu/tests"
)

func Test_achievementApi_create(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero", "hero@test.cd", "", user.StudentRoles, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teacher", "teach", "teach@test.cd", "", user.TeacherRoles, true)

	body := func(userID string, points int, category achievement.Category) []byte {
		return marchallObj(t, achievement.NewAchievement{
			UserID:    userID,
			Title:     "Chess cup",
			Category:  category,
			Points:    points,
			AwardedAt: now,
		})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", token: getToken(t, student), body: body(student.ID, 10, achievement.CategorySport),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown owner", token: getToken(t, teacher), body: body("a9a5bb40-0000-0000-0000-000000000000", 10, achievement.CategorySport),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"user_id": "user not found"}),
		},
		{
			name: "Points out of range", token: getToken(t, teacher), body: body(student.ID, 1001, achievement.CategorySport),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid category", token: getToken(t, teacher), body: body(student.ID, 10, achievement.Category("cooking")),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"category": "invalid category"}),
		},
		{name: "Created", token: getToken(t, teacher), body: body(student.ID, 10, achievement.CategorySport), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/achievements"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// creation recomputed the owner's rating
	rtg, err := env.ratingSvc.GetByUser(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetByUser(): %v", err)
	}
	if rtg.TotalPoints != 10 {
		t.Errorf("totalPoints = %d; want 10", rtg.TotalPoints)
	}
}

func Test_achievementApi_query(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero", "hero@test.cd", "", user.StudentRoles, true)
	other := testutil.CreateUser(t, env.usrRepo, "Other", "other", "other@test.cd", "", user.StudentRoles, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teacher", "teach", "teach@test.cd", "", user.TeacherRoles, true)

	a1 := testutil.CreateAchievement(t, env.achRepo, student.ID, "Chess cup", achievement.CategorySport, 10, now)
	a2 := testutil.CreateAchievement(t, env.achRepo, student.ID, "Math olympiad", achievement.CategoryStudy, 25, now.Add(time.Hour))
	b1 := testutil.CreateAchievement(t, env.achRepo, other.ID, "Charity drive", achievement.CategoryVolunteer, 40, now.Add(2*time.Hour))

	path := func(q url.Values) string {
		if len(q) == 0 {
			return "/v1/achievements"
		}
		return "/v1/achievements?" + q.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: path(nil), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken), extra: nil},
		{name: "Staff sees all", path: path(nil), token: getToken(t, teacher), extra: []string{b1.ID, a2.ID, a1.ID}}, // latest first
		{name: "Students see only their own", path: path(nil), token: getToken(t, student), extra: []string{a2.ID, a1.ID}},
		{name: "Filter by category", path: path(url.Values{"category": {"study"}}), token: getToken(t, teacher), extra: []string{a2.ID}},
		{name: "Filter by owner", path: path(url.Values{"user_id": {other.ID}}), token: getToken(t, teacher), extra: []string{b1.ID}},
		{name: "Search", path: path(url.Values{"search": {"chess"}}), token: getToken(t, teacher), extra: []string{a1.ID}},
		{name: "Ordering by points", path: path(url.Values{"ordering": {"points"}}), token: getToken(t, teacher), extra: []string{a1.ID, a2.ID, b1.ID}},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			wantIDs, checkIDs := tt.extra.([]string)
			if !checkIDs {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var achs []achievement.Achievement
			if err := json.Unmarshal(rec.Body.Bytes(), &achs); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			gotIDs := make([]string, 0, len(achs))
			for _, a := range achs {
				gotIDs = append(gotIDs, a.ID)
			}
			if len(gotIDs) != len(wantIDs) {
				t.Fatalf("failed! got %v; want %v", gotIDs, wantIDs)
			}
			for i := range wantIDs {
				if gotIDs[i] != wantIDs[i] {
					t.Errorf("failed! got %v; want %v", gotIDs, wantIDs)
					break
				}
			}
		})
	}
}

func Test_achievementApi_retrieve(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero", "hero@test.cd", "", user.StudentRoles, true)
	other := testutil.CreateUser(t, env.usrRepo, "Other", "other", "other@test.cd", "", user.StudentRoles, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teacher", "teach", "teach@test.cd", "", user.TeacherRoles, true)

	ach := testutil.CreateAchievement(t, env.achRepo, student.ID, "Chess cup", achievement.CategorySport, 10, now)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "Auth required", path: "/v1/achievements/" + ach.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Owner reads own", path: "/v1/achievements/" + ach.ID, token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, ach)},
		{name: "Staff reads any", path: "/v1/achievements/" + ach.ID, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, ach)},
		{name: "Students cannot read others", path: "/v1/achievements/" + ach.ID, token: getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "Unknown", path: "/v1/achievements/a9a5bb40-0000-0000-0000-000000000000", token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_achievementApi_updateAndDestroy(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero", "hero@test.cd", "", user.StudentRoles, true)
	teacher := testutil.CreateUser(t, env.usrRepo, "Teacher", "teach", "teach@test.cd", "", user.TeacherRoles, true)

	ach := testutil.CreateAchievement(t, env.achRepo, student.ID, "Chess cup", achievement.CategorySport, 10, now)

	// students cannot write
	req, rec := newAuthRequest(http.MethodPut, "/v1/achievements/"+ach.ID, getToken(t, student), marchallObj(t, achievement.UpdateAchievement{Points: 20}))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student update: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	// partial update keeps unset fields
	req, rec = newAuthRequest(http.MethodPut, "/v1/achievements/"+ach.ID, getToken(t, teacher), marchallObj(t, achievement.UpdateAchievement{Points: 20}))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher update: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var updated achievement.Achievement
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if updated.Points != 20 || updated.Title != "Chess cup" || updated.UserID != student.ID {
		t.Errorf("unexpected update result: %+v", updated)
	}

	// rating followed the update
	rtg, err := env.ratingSvc.GetByUser(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByUser(): %v", err)
	}
	if rtg.TotalPoints != 20 {
		t.Errorf("totalPoints = %d; want 20", rtg.TotalPoints)
	}

	// destroy
	req, rec = newAuthRequest(http.MethodDelete, "/v1/achievements/"+ach.ID, getToken(t, teacher))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy: code = %v; body %s", rec.Code, rec.Body.String())
	}

	rtg, err = env.ratingSvc.GetByUser(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByUser(): %v", err)
	}
	if rtg.TotalPoints != 0 {
		t.Errorf("totalPoints = %d; want 0", rtg.TotalPoints)
	}
}

func Test_achievementApi_categories(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Hero", "hero", "hero@test.cd", "", user.StudentRoles, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/achievements/categories", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v", rec.Code)
	}
	var cats []achievement.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(cats) != 4 {
		t.Errorf("got %d categories; want 4", len(cats))
	}
}
