package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/services"
	"github.com/pwronski/go-taskboard/internal/storage/file"
)

type testAPI struct {
	router *gin.Engine
	store  *file.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.Nop()
	store := file.NewStore(logger, t.TempDir())
	tokens := auth.NewTokenManager("taskboard-test", []byte("test-signing-key"), time.Hour)
	handler := New(
		logger,
		services.NewAuthService(logger, store, tokens),
		services.NewTaskService(logger, store),
	)

	router := gin.New()
	RegisterRoutes(router, handler)
	return &testAPI{router: router, store: store}
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// register + login, returning the bearer token.
func (api *testAPI) loginAs(t *testing.T, email, password string) string {
	t.Helper()

	rec := api.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}

	rec = api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}

	body := decodeBody[struct {
		Token string `json:"token"`
	}](t, rec)
	if body.Token == "" {
		t.Fatal("login response missing token")
	}
	return body.Token
}

// loginAsAdmin seeds an admin straight into the store, since registration
// never assigns the admin role.
func (api *testAPI) loginAsAdmin(t *testing.T) string {
	t.Helper()

	hash, err := argon2id.CreateHash("admin-pw", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	adminUUID, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generate admin uuid: %v", err)
	}
	_, err = api.store.CreateUser(context.Background(), models.User{
		ID:        adminUUID.String(),
		Email:     "admin@x.com",
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	rec := api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "admin@x.com", "password": "admin-pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody[struct {
		Token string `json:"token"`
	}](t, rec)
	return body.Token
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody[struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}](t, rec)
	if body.Status != "OK" {
		t.Fatalf("status = %q", body.Status)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", body.Timestamp, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	for name, body := range map[string]gin.H{
		"missing email":    {"password": "pw1"},
		"missing password": {"email": "a@x.com"},
		"empty body":       {},
		"bad email":        {"email": "not-an-email", "password": "pw1"},
	} {
		rec := api.do(t, http.MethodPost, "/auth/register", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "pw1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "pw2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", rec.Code)
	}
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "pw1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	wrongPassword := api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "nope"})
	unknownEmail := api.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@x.com", "password": "pw1"})

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401 for both", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", wrongPassword.Body, unknownEmail.Body)
	}
}

func TestTasksRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for name, header := range map[string]string{
		"no token":      "",
		"garbage token": "garbage",
	} {
		rec := api.do(t, http.MethodGet, "/tasks", header, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.loginAs(t, "a@x.com", "pw1")

	rec := api.do(t, http.MethodPost, "/tasks", token, gin.H{"title": "T"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[taskResponse](t, rec)
	if created.Title != "T" || created.Description != "" || created.Completed {
		t.Fatalf("unexpected task: %+v", created)
	}

	rec = api.do(t, http.MethodGet, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	listed := decodeBody[[]taskResponse](t, rec)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", listed)
	}

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), token, gin.H{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	updated := decodeBody[taskResponse](t, rec)
	if !updated.Completed || updated.Title != "T" || updated.Description != "" {
		t.Fatalf("patch went wrong: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("updated_at not stamped")
	}

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	deleted := decodeBody[struct {
		Message string       `json:"message"`
		Task    taskResponse `json:"task"`
	}](t, rec)
	if deleted.Message != "Task deleted" || deleted.Task.ID != created.ID {
		t.Fatalf("unexpected delete response: %+v", deleted)
	}

	rec = api.do(t, http.MethodGet, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if remaining := decodeBody[[]taskResponse](t, rec); len(remaining) != 0 {
		t.Fatalf("task still listed after delete: %+v", remaining)
	}
}

func TestCreateTaskEmptyTitle(t *testing.T) {
	api := newTestAPI(t)
	token := api.loginAs(t, "a@x.com", "pw1")

	for name, body := range map[string]gin.H{
		"absent title": {"description": "D"},
		"empty title":  {"title": ""},
		"blank title":  {"title": "   "},
	} {
		rec := api.do(t, http.MethodPost, "/tasks", token, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
	}
}

// Another user's task must answer 404, not 403, so its existence stays hidden.
func TestForeignTaskAnswers404(t *testing.T) {
	api := newTestAPI(t)
	ownerToken := api.loginAs(t, "a@x.com", "pw1")
	strangerToken := api.loginAs(t, "b@x.com", "pw2")

	rec := api.do(t, http.MethodPost, "/tasks", ownerToken, gin.H{"title": "T"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decodeBody[taskResponse](t, rec)

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), strangerToken, gin.H{"completed": true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger update status = %d, want 404", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger delete status = %d, want 404", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/tasks", strangerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stranger list status = %d", rec.Code)
	}
	if tasks := decodeBody[[]taskResponse](t, rec); len(tasks) != 0 {
		t.Fatalf("stranger sees foreign tasks: %+v", tasks)
	}
}

func TestUpdateAbsentTask(t *testing.T) {
	api := newTestAPI(t)
	token := api.loginAs(t, "a@x.com", "pw1")

	rec := api.do(t, http.MethodPut, "/tasks/42", token, gin.H{"completed": true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = api.do(t, http.MethodPut, "/tasks/not-a-number", token, gin.H{"completed": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.loginAs(t, "a@x.com", "pw1")
	adminToken := api.loginAsAdmin(t)

	rec := api.do(t, http.MethodPost, "/tasks", userToken, gin.H{"title": "user task"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decodeBody[taskResponse](t, rec)

	// read-all is the one policy-only denial, surfaced as 403.
	rec = api.do(t, http.MethodGet, "/admin/tasks", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user read-all status = %d, want 403", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/admin/tasks", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin read-all status = %d", rec.Code)
	}
	if tasks := decodeBody[[]taskResponse](t, rec); len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("admin list mismatch: %+v", tasks)
	}

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), adminToken, gin.H{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d", rec.Code)
	}
}
