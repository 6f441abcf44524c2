package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-graph/internal/api/handler"
	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Thought{}, &model.UserThought{}, &model.Friend{}))
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	m := metrics.New()
	h := handler.NewHandler(
		service.NewUserService(store.Users, store.Thoughts, m),
		service.NewThoughtService(store.Users, store.Thoughts, m),
		func(c *gin.Context) error { return sqlDB.PingContext(c.Request.Context()) },
	)
	return &testServer{t: t, router: NewRouter(h, Options{Metrics: m, Swagger: true})}
}

func (s *testServer) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (s *testServer) list(path string) []map[string]any {
	s.t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(s.t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestScenario_CreateReactDeleteCascade(t *testing.T) {
	s := newTestServer(t)

	code, user := s.do("POST", "/api/users", map[string]string{"username": "Alex_Rider", "email": "alex.rider@email.com"})
	require.Equal(t, http.StatusCreated, code)
	userID, _ := user["_id"].(string)
	require.NotEmpty(t, userID)
	assert.Equal(t, float64(0), user["friendCount"])
	assert.Equal(t, []any{}, user["thoughts"])

	code, thought := s.do("POST", "/api/thoughts", map[string]string{"thoughtText": "hi", "userId": userID})
	require.Equal(t, http.StatusCreated, code)
	thoughtID, _ := thought["_id"].(string)
	require.NotEmpty(t, thoughtID)
	assert.Equal(t, float64(0), thought["reactionCount"])
	assert.Equal(t, "Alex_Rider", thought["username"])

	code, thought = s.do("POST", "/api/thoughts/"+thoughtID+"/reactions", map[string]string{"reactionBody": "nice", "username": "Emma"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), thought["reactionCount"])

	code, view := s.do("GET", "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, code)
	thoughts, _ := view["thoughts"].([]any)
	require.Len(t, thoughts, 1)
	assert.Equal(t, "hi", thoughts[0].(map[string]any)["thoughtText"])

	code, body := s.do("DELETE", "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User and their thoughts deleted", body["message"])
	assert.Equal(t, float64(1), body["deletedThoughts"])

	code, body = s.do("GET", "/api/thoughts/"+thoughtID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Thought not found", body["error"])
}

func TestUsers_Validation(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do("POST", "/api/users", map[string]string{"username": "alex"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields, _ := body["fields"].(map[string]any)
	assert.Contains(t, fields, "email")

	code, body = s.do("POST", "/api/users", map[string]string{"username": "alex", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields, _ = body["fields"].(map[string]any)
	assert.Equal(t, "invalid email format", fields["email"])

	code, body = s.do("POST", "/api/users", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "malformed JSON body", body["error"])

	assert.Empty(t, s.list("/api/users"))
}

func TestUsers_UpdateAndNotFound(t *testing.T) {
	s := newTestServer(t)
	_, user := s.do("POST", "/api/users", map[string]string{"username": "alex", "email": "alex@example.com"})
	id := user["_id"].(string)

	code, body := s.do("PUT", "/api/users/"+id, map[string]string{"email": "alex@new.io"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alex@new.io", body["email"])
	assert.Equal(t, "alex", body["username"])

	code, _ = s.do("PUT", "/api/users/"+id, map[string]string{"email": "broken"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do("PUT", "/api/users/missing", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusNotFound, code)
	code, body = s.do("GET", "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["error"])
	code, _ = s.do("DELETE", "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFriends(t *testing.T) {
	s := newTestServer(t)
	_, a := s.do("POST", "/api/users", map[string]string{"username": "a", "email": "a@example.com"})
	_, b := s.do("POST", "/api/users", map[string]string{"username": "b", "email": "b@example.com"})
	aID, bID := a["_id"].(string), b["_id"].(string)

	for i := 0; i < 2; i++ {
		code, body := s.do("POST", "/api/users/"+aID+"/friends/"+bID, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Friend added successfully", body["message"])
		u := body["user"].(map[string]any)
		assert.Equal(t, []any{bID}, u["friends"])
		assert.Equal(t, float64(1), u["friendCount"])
	}

	code, body := s.do("GET", "/api/users/"+bID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["friendCount"])

	code, body = s.do("POST", "/api/users/"+aID+"/friends/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User or friend not found", body["error"])

	code, body = s.do("DELETE", "/api/users/"+bID+"/friends/"+aID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["user"].(map[string]any)["friends"])

	code, body = s.do("DELETE", "/api/users/"+aID+"/friends/"+bID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Friend removed successfully", body["message"])
	assert.Equal(t, float64(0), body["user"].(map[string]any)["friendCount"])

	code, _ = s.do("DELETE", "/api/users/missing/friends/"+aID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestThoughts_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	assert.Empty(t, s.list("/api/thoughts"))

	_, u := s.do("POST", "/api/users", map[string]string{"username": "alex", "email": "alex@example.com"})
	uid := u["_id"].(string)

	code, _ := s.do("POST", "/api/thoughts", map[string]string{"thoughtText": "hi"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, body := s.do("POST", "/api/thoughts", map[string]string{"thoughtText": "hi", "userId": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["error"])

	_, th := s.do("POST", "/api/thoughts", map[string]string{"thoughtText": "hi", "userId": uid})
	tid := th["_id"].(string)

	code, body = s.do("PUT", "/api/thoughts/"+tid, map[string]string{"thoughtText": "edited"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "edited", body["thoughtText"])
	code, _ = s.do("PUT", "/api/thoughts/"+tid, map[string]string{"thoughtText": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	in := map[string]string{"reactionBody": "same", "username": "emma"}
	s.do("POST", "/api/thoughts/"+tid+"/reactions", in)
	code, body = s.do("POST", "/api/thoughts/"+tid+"/reactions", in)
	require.Equal(t, http.StatusCreated, code)
	reactions := body["reactions"].([]any)
	require.Len(t, reactions, 2)
	r0 := reactions[0].(map[string]any)["reactionId"]
	r1 := reactions[1].(map[string]any)["reactionId"]
	assert.NotEqual(t, r0, r1)

	code, body = s.do("DELETE", "/api/thoughts/"+tid+"/reactions/unknown", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["thought"].(map[string]any)["reactionCount"])

	code, body = s.do("DELETE", fmt.Sprintf("/api/thoughts/%s/reactions/%s", tid, r0), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Reaction removed successfully", body["message"])
	assert.Equal(t, float64(1), body["thought"].(map[string]any)["reactionCount"])

	code, _ = s.do("POST", "/api/thoughts/ghost/reactions", in)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do("DELETE", "/api/thoughts/ghost/reactions/x", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do("DELETE", "/api/thoughts/"+tid, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Thought successfully deleted", body["message"])
	code, _ = s.do("DELETE", "/api/thoughts/"+tid, nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, view := s.do("GET", "/api/users/"+uid, nil)
	assert.Equal(t, []any{}, view["thoughts"])
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do("GET", "/healthz", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	s.do("GET", "/api/users", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `socialgraph_http_requests_total{method="GET",route="/api/users",status="200"}`)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/users/{id}/friends/{friendId}")
}
