package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/authz"
	"taskhub/internal/handlers"
	"taskhub/internal/models"
	"taskhub/internal/repositories/inmemory"
	"taskhub/internal/routes"
	"taskhub/internal/services"
)

var testJWTSecret = []byte("test-secret")

type sinkRecorder struct {
	mu     sync.Mutex
	events []services.Event
}

func (r *sinkRecorder) Enqueue(event services.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *sinkRecorder) all() []services.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]services.Event, len(r.events))
	copy(out, r.events)
	return out
}

type gatewayRecorder struct {
	mu     sync.Mutex
	events []services.Event
}

func (g *gatewayRecorder) Notify(ctx context.Context, event services.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
	return nil
}

func (g *gatewayRecorder) all() []services.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]services.Event, len(g.events))
	copy(out, g.events)
	return out
}

type testEnv struct {
	router  *gin.Engine
	users   *inmemory.UserStorage
	auth    services.AuthService
	sink    *sinkRecorder
	gateway *gatewayRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	taskStore := inmemory.NewTaskStorage()
	userStore := inmemory.NewUserStorage()
	resetStore := inmemory.NewResetStorage()
	sink := &sinkRecorder{}
	gateway := &gatewayRecorder{}

	authSvc := services.NewAuthService(testJWTSecret, 15*time.Minute)
	userSvc := services.NewUserService(userStore, authSvc, gateway)
	taskSvc := services.NewTaskService(taskStore, userStore, sink)
	resetSvc := services.NewPasswordResetService(userStore, resetStore, authSvc, gateway, "https://app.test/reset?token=", "security@test.local")

	router := routes.SetupRoutes(
		gin.New(),
		testJWTSecret,
		handlers.NewAuthHandler(userSvc, authSvc, resetSvc),
		handlers.NewUserHandler(userSvc),
		handlers.NewTaskHandler(taskSvc),
	)
	return &testEnv{router: router, users: userStore, auth: authSvc, sink: sink, gateway: gateway}
}

// addUser creates a user directly in storage and returns a signed token.
func (e *testEnv) addUser(t *testing.T, email string, role authz.Role) (*models.User, string) {
	t.Helper()
	hash, err := e.auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	u := &models.User{Name: "Test User", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	token, err := e.auth.IssueAccessToken(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func taskBody(assignees ...string) gin.H {
	return gin.H{
		"title":     "Ship release",
		"content":   "Cut the tag and deploy",
		"assignees": assignees,
		"status":    uuid.New().String(),
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTasksRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/" + uuid.New().String()},
		{http.MethodPatch, "/tasks/" + uuid.New().String()},
		{http.MethodDelete, "/tasks/" + uuid.New().String()},
	} {
		w := e.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCreateTask(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	actor, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	w := e.do(t, http.MethodPost, "/tasks", token, taskBody(assignee.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task models.Task
	decode(t, w, &task)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, actor.ID, task.CreatedBy)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.True(t, task.NotifyAssigneesOnChange)
	assert.Equal(t, []string{assignee.ID}, task.Assignees)

	events := e.sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventTaskCreated, events[0].Kind)
	assert.Equal(t, assignee.Email, events[0].To.Email)
}

func TestCreateTaskValidation(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	_, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"content": "c", "assignees": []string{assignee.ID}, "status": uuid.New().String()}},
		{"missing content", gin.H{"title": "t", "assignees": []string{assignee.ID}, "status": uuid.New().String()}},
		{"no assignees", gin.H{"title": "t", "content": "c", "assignees": []string{}, "status": uuid.New().String()}},
		{"assignee not a uuid", gin.H{"title": "t", "content": "c", "assignees": []string{"bob"}, "status": uuid.New().String()}},
		{"missing status", gin.H{"title": "t", "content": "c", "assignees": []string{assignee.ID}}},
		{"status not a uuid", gin.H{"title": "t", "content": "c", "assignees": []string{assignee.ID}, "status": "open"}},
		{"bad priority", gin.H{"title": "t", "content": "c", "assignees": []string{assignee.ID}, "status": uuid.New().String(), "priority": "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/tasks", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestGetTaskByID(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	_, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	var created models.Task
	decode(t, e.do(t, http.MethodPost, "/tasks", token, taskBody(assignee.ID)), &created)

	w := e.do(t, http.MethodGet, "/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// malformed id is a client error, not a lookup miss
	w = e.do(t, http.MethodGet, "/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/tasks/"+uuid.New().String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTask(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	editor, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	var created models.Task
	decode(t, e.do(t, http.MethodPost, "/tasks", token, taskBody(assignee.ID)), &created)

	w := e.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Task
	decode(t, w, &updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, created.Content, updated.Content)
	assert.Equal(t, editor.ID, updated.UpdatedBy)

	t.Run("empty patch", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("malformed id", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/tasks/xyz", token, gin.H{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("absent id", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/tasks/"+uuid.New().String(), token, gin.H{"title": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("bad priority", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{"priority": "asap"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateTaskStatusChangeNotifies(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	_, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	var created models.Task
	decode(t, e.do(t, http.MethodPost, "/tasks", token, taskBody(assignee.ID)), &created)
	require.Len(t, e.sink.all(), 1)

	w := e.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{"status": uuid.New().String()})
	require.Equal(t, http.StatusOK, w.Code)

	events := e.sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, services.EventTaskStatusChanged, events[1].Kind)
}

func TestDeleteTask(t *testing.T) {
	e := newTestEnv(t)
	assignee, _ := e.addUser(t, "dev@example.com", authz.RoleUser)
	_, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	var created models.Task
	decode(t, e.do(t, http.MethodPost, "/tasks", token, taskBody(assignee.ID)), &created)

	w := e.do(t, http.MethodDelete, "/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// the second delete finds nothing
	w = e.do(t, http.MethodDelete, "/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTasks(t *testing.T) {
	e := newTestEnv(t)
	alice, _ := e.addUser(t, "alice@example.com", authz.RoleUser)
	bob, _ := e.addUser(t, "bob@example.com", authz.RoleUser)
	_, token := e.addUser(t, "actor@example.com", authz.RoleUser)

	status := uuid.New().String()
	for i := 0; i < 3; i++ {
		body := taskBody(alice.ID)
		body["title"] = fmt.Sprintf("alice-%d", i)
		body["status"] = status
		require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/tasks", token, body).Code)
	}
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/tasks", token, taskBody(bob.ID)).Code)

	t.Run("pagination envelope", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?page=1&limit=2", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.TaskPage
		decode(t, w, &page)
		assert.Len(t, page.Results, 2)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.Limit)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 4, page.TotalResults)
	})

	t.Run("filter by assignee", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?assignees="+alice.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.TaskPage
		decode(t, w, &page)
		assert.Equal(t, 3, page.TotalResults)
	})

	t.Run("filter by status", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?status="+status, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.TaskPage
		decode(t, w, &page)
		assert.Equal(t, 3, page.TotalResults)
	})

	t.Run("sort descending", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?sortBy=title:desc&status="+status, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.TaskPage
		decode(t, w, &page)
		require.Len(t, page.Results, 3)
		assert.Equal(t, "alice-2", page.Results[0].Title)
		assert.Equal(t, "alice-0", page.Results[2].Title)
	})

	t.Run("bad page and limit rejected", func(t *testing.T) {
		for _, q := range []string{"?limit=0", "?page=abc", "?page=0", "?limit=-3"} {
			w := e.do(t, http.MethodGet, "/tasks"+q, token, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("omitted page and limit get defaults", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.TaskPage
		decode(t, w, &page)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.Limit)
	})

	t.Run("bad sort field", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?sortBy=secretField:asc", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad sort direction", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?sortBy=title:sideways", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad createdAt", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/tasks?createdAt=yesterday", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
