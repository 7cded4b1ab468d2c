package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tempoedu/tempo-api/config"
	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/auth"
)

const (
	testAdminEmail    = "admin@tempo.local"
	testAdminPassword = "admin-secret-1"
)

// testStore satisfies database.Storage over an in-memory sqlite handle.
type testStore struct {
	db *gorm.DB
}

func (s *testStore) GetDB() *gorm.DB { return s.db }
func (s *testStore) Init() error     { return nil }
func (s *testStore) Close() error    { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// :memory: gives every connection its own database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.TeacherAccount{},
		&model.Course{},
		&model.Enrollment{},
		&model.Subscription{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	admin := model.User{
		Name:         "Tempo Admin",
		Email:        testAdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	app := fiber.New()
	SetupRoutes(app, &testStore{db: db}, &config.EnvironmentVariable{
		JWT_SECRET:      "router-test-secret",
		ALLOWED_ORIGINS: "http://localhost:3000",
	})
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func registerStudent(t *testing.T, app *fiber.App, name, email string) (uint, string) {
	t.Helper()

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "student-secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, status, env.Message)
	}

	var data struct {
		User  struct{ ID uint }
		Token string
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode register data: %v", err)
	}
	if data.Token == "" {
		t.Fatal("register returned no token")
	}
	return data.User.ID, data.Token
}

func adminToken(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, env := doJSON(t, app, http.MethodPost, "/api/auth/admin-login", "", fiber.Map{
		"username": testAdminEmail,
		"password": testAdminPassword,
	})
	if status != http.StatusOK {
		t.Fatalf("admin login: status %d (%s)", status, env.Message)
	}
	var data struct{ Token string }
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode admin login data: %v", err)
	}
	return data.Token
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	_, token := registerStudent(t, app, "Test Student", "student@test.local")
	if token == "" {
		t.Fatal("missing token")
	}

	// Duplicate email is rejected.
	status, env := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "Other",
		"email":    "student@test.local",
		"password": "student-secret",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate register: status %d (%s)", status, env.Message)
	}

	// Short password fails validation.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "Short",
		"email":    "short@test.local",
		"password": "short",
	})
	if status != http.StatusBadRequest {
		t.Errorf("short password: status %d", status)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "student@test.local",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d (%s)", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "student@test.local",
		"password": "student-secret",
	})
	if status != http.StatusOK {
		t.Errorf("login: status %d (%s)", status, env.Message)
	}
}

func TestAdminLogin(t *testing.T) {
	app := newTestApp(t)

	if token := adminToken(t, app); token == "" {
		t.Fatal("missing admin token")
	}

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/admin-login", "", fiber.Map{
		"username": testAdminEmail,
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("wrong admin password: status %d", status)
	}

	// A student's address cannot use the admin door.
	registerStudent(t, app, "Test Student", "student@test.local")
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/admin-login", "", fiber.Map{
		"username": "student@test.local",
		"password": "student-secret",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("student via admin login: status %d", status)
	}
}

func TestRoleEnforcement(t *testing.T) {
	app := newTestApp(t)
	_, studentToken := registerStudent(t, app, "Test Student", "student@test.local")

	status, _ := doJSON(t, app, http.MethodGet, "/api/teacher/courses", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("no token on teacher route: status %d", status)
	}

	status, _ = doJSON(t, app, http.MethodGet, "/api/teacher/courses", studentToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("student on teacher route: status %d", status)
	}

	status, _ = doJSON(t, app, http.MethodGet, "/api/admin/courses", studentToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("student on admin route: status %d", status)
	}
}

func TestTeacherOnboardingAndCourseFlow(t *testing.T) {
	app := newTestApp(t)
	admin := adminToken(t, app)

	teacherID, _ := registerStudent(t, app, "Future Teacher", "teacher@test.local")
	_, buyerToken := registerStudent(t, app, "Buyer", "buyer@test.local")

	status, env := doJSON(t, app, http.MethodPost, "/api/admin/teacher-accounts/create", admin, fiber.Map{
		"username": "teacher01",
		"password": "pool-secret-1",
	})
	if status != http.StatusCreated {
		t.Fatalf("create pool account: status %d (%s)", status, env.Message)
	}
	var created struct {
		Account struct{ ID uint }
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode account: %v", err)
	}

	// Valid pool credentials do not log in until allocated.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/teacher-login", "", fiber.Map{
		"username": "teacher01",
		"password": "pool-secret-1",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("unallocated teacher login: status %d", status)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/admin/teacher-accounts/allocate", admin, fiber.Map{
		"account_id": created.Account.ID,
		"teacher_id": teacherID,
	})
	if status != http.StatusOK {
		t.Fatalf("allocate: status %d (%s)", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/auth/teacher-login", "", fiber.Map{
		"username": "teacher01",
		"password": "pool-secret-1",
	})
	if status != http.StatusOK {
		t.Fatalf("teacher login: status %d (%s)", status, env.Message)
	}
	var login struct {
		User  struct{ Role string }
		Token string
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode teacher login: %v", err)
	}
	if login.User.Role != model.RoleTeacher {
		t.Fatalf("teacher login role = %q", login.User.Role)
	}
	teacherToken := login.Token

	status, env = doJSON(t, app, http.MethodPost, "/api/teacher/courses", teacherToken, fiber.Map{
		"title":       "Algebra Basics",
		"description": "Linear equations from scratch",
		"subject":     "Mathematics",
		"class":       "Grade 9",
		"price":       100.0,
	})
	if status != http.StatusCreated {
		t.Fatalf("create course: status %d (%s)", status, env.Message)
	}
	var courseResp struct {
		Course struct {
			ID         uint    `json:"id"`
			FinalPrice float64 `json:"final_price"`
		}
	}
	if err := json.Unmarshal(env.Data, &courseResp); err != nil {
		t.Fatalf("decode course: %v", err)
	}
	if courseResp.Course.FinalPrice != 103.00 {
		t.Errorf("final price = %v, want 103.00", courseResp.Course.FinalPrice)
	}
	courseID := courseResp.Course.ID

	status, env = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/teacher/courses/%d/video", courseID), teacherToken, fiber.Map{
			"video_url": "https://cdn.test.local/algebra-basics.mp4",
		})
	if status != http.StatusOK {
		t.Fatalf("upload video: status %d (%s)", status, env.Message)
	}

	// Drafts are invisible to the catalog and not purchasable.
	status, env = doJSON(t, app, http.MethodGet, "/api/student/browse", "", nil)
	if status != http.StatusOK {
		t.Fatalf("browse: status %d", status)
	}
	var browse struct {
		Courses []json.RawMessage
	}
	if err := json.Unmarshal(env.Data, &browse); err != nil {
		t.Fatalf("decode browse: %v", err)
	}
	if len(browse.Courses) != 0 {
		t.Fatalf("draft course visible in browse: %d courses", len(browse.Courses))
	}

	status, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/student/course/%d/purchase", courseID), buyerToken, nil)
	if status != http.StatusBadRequest {
		t.Errorf("purchase of draft: status %d", status)
	}

	status, env = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/admin/courses/%d/approve", courseID), admin, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: status %d (%s)", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodGet, "/api/student/browse", "", nil)
	if status != http.StatusOK {
		t.Fatalf("browse after approve: status %d", status)
	}
	if err := json.Unmarshal(env.Data, &browse); err != nil {
		t.Fatalf("decode browse: %v", err)
	}
	if len(browse.Courses) != 1 {
		t.Fatalf("browse courses = %d, want 1", len(browse.Courses))
	}
	if strings.Contains(string(browse.Courses[0]), "video_url") {
		t.Error("catalog listing leaks the video URL")
	}

	status, env = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/student/course/%d/purchase", courseID), buyerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("purchase: status %d (%s)", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/student/course/%d/purchase", courseID), buyerToken, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate purchase: status %d (%s)", status, env.Message)
	}

	// The buyer sees the video URL through access; outsiders do not get in.
	status, env = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/student/course/%d/access", courseID), buyerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("access: status %d (%s)", status, env.Message)
	}
	if !strings.Contains(string(env.Data), "algebra-basics.mp4") {
		t.Error("access response missing the video URL")
	}

	_, outsiderToken := registerStudent(t, app, "Outsider", "outsider@test.local")
	status, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/student/course/%d/access", courseID), outsiderToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("outsider access: status %d", status)
	}

	// Rejection removes the course from every listing.
	status, env = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/admin/courses/%d/reject", courseID), admin, nil)
	if status != http.StatusOK {
		t.Fatalf("reject: status %d (%s)", status, env.Message)
	}
	status, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/student/course/%d", courseID), "", nil)
	if status != http.StatusNotFound {
		t.Errorf("details after reject: status %d", status)
	}
}

func TestSubscriptionRoutes(t *testing.T) {
	app := newTestApp(t)
	admin := adminToken(t, app)
	userID, studentToken := registerStudent(t, app, "Subscriber", "subscriber@test.local")

	status, env := doJSON(t, app, http.MethodPost, "/api/subscriptions/", studentToken, fiber.Map{
		"user_id": userID,
		"plan":    model.PlanStarter,
		"price":   999,
	})
	if status != http.StatusCreated {
		t.Fatalf("create subscription: status %d (%s)", status, env.Message)
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode subscription: %v", err)
	}

	status, env = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/subscriptions/user/%d", userID), studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("subscription status: status %d (%s)", status, env.Message)
	}

	// Students cannot act on other users' subscriptions; the admin can.
	_, otherToken := registerStudent(t, app, "Other", "other@test.local")
	status, _ = doJSON(t, app, http.MethodPost, "/api/subscriptions/", otherToken, fiber.Map{
		"user_id": userID,
		"plan":    model.PlanStarter,
		"price":   999,
	})
	if status != http.StatusForbidden {
		t.Errorf("subscription for another user: status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/subscriptions/user/%d", userID), otherToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("viewing another user's subscription: status %d", status)
	}
	status, env = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/subscriptions/user/%d", userID), admin, nil)
	if status != http.StatusOK {
		t.Errorf("admin viewing subscription: status %d (%s)", status, env.Message)
	}

	// Ledger-wide views are admin only.
	status, _ = doJSON(t, app, http.MethodGet, "/api/subscriptions/", studentToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("student listing all subscriptions: status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodGet, "/api/subscriptions/stats", admin, nil)
	if status != http.StatusOK {
		t.Errorf("stats: status %d", status)
	}

	status, env = doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/api/subscriptions/%d/cancel", created.ID), studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel: status %d (%s)", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/subscriptions/%d/renew", created.ID), studentToken, fiber.Map{})
	if status != http.StatusOK {
		t.Fatalf("renew: status %d (%s)", status, env.Message)
	}
}
