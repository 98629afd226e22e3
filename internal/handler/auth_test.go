package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/faceapi/backend/internal/config"
	"github.com/faceapi/backend/internal/db"
	"github.com/faceapi/backend/internal/model"
	"github.com/faceapi/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type memStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	images map[string]*model.Image
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*model.User),
		images: make(map[string]*model.Image),
	}
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, db.ErrUniqueViolation
		}
	}
	stored := *u
	m.users[u.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) SetRefreshToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().Unix()
	return nil
}

func (m *memStore) ConsumeQuota(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.APIQuota <= 0 {
		return false, nil
	}
	u.APIQuota--
	return true, nil
}

func (m *memStore) CreateImage(_ context.Context, img *model.Image) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *img
	m.images[img.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) GetImageByID(_ context.Context, id string) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := *img
	return &out, nil
}

func (m *memStore) ListImagesForUser(_ context.Context, userID string, sortDir, limit int) ([]model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var images []model.Image
	for _, img := range m.images {
		for _, id := range img.Access {
			if id == userID {
				images = append(images, *img)
				break
			}
		}
	}
	// Tiebreak on id so records created within the same second still have
	// a deterministic, reversible order.
	sort.Slice(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if a.CreatedAt != b.CreatedAt {
			if sortDir < 0 {
				return a.CreatedAt < b.CreatedAt
			}
			return a.CreatedAt > b.CreatedAt
		}
		if sortDir < 0 {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

type stubDetector struct {
	faces int
}

func (d *stubDetector) Detect(data []byte) ([]byte, int, error) {
	return data, d.faces, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := newMemStore()
	authService, err := service.NewAuthService(store, config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTTLMins:         30,
		DefaultRefreshTTLMins: 1440,
		DefaultAPIQuota:       100,
	}, logger)
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}
	quotaService := service.NewQuotaService(store, logger)
	imageService := service.NewImageService(store, quotaService, &stubDetector{faces: 1}, logger)

	authHandler := NewAuthHandler(authService)
	imageHandler := NewImageHandler(imageService)

	r := gin.New()
	users := r.Group("/users")
	{
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)
		users.POST("/refreshtoken", authHandler.RefreshToken)
	}
	app := r.Group("/app")
	app.Use(AuthMiddleware(authService))
	{
		app.POST("/detect_faces", imageHandler.DetectFaces)
		app.GET("/", imageHandler.ListImages)
		app.GET("/:id", imageHandler.GetImage)
	}
	return r, store
}

func doJSON(r *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane Doe","email":"jane@example.com","password":"Sup3rSecret"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var res map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if res["email"] != "jane@example.com" || res["name"] != "Jane Doe" {
		t.Fatalf("unexpected response: %v", res)
	}
	for _, forbidden := range []string{"password", "passwordHash", "hashedPassword"} {
		if _, ok := res[forbidden]; ok {
			t.Fatalf("response must not expose %q", forbidden)
		}
	}
	if _, ok := res["createdAt"].(string); !ok {
		t.Fatalf("expected ISO-8601 createdAt string, got %v", res["createdAt"])
	}
}

func TestRegisterEndpointFailures(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane","email":"jane@example.com","password":"weak"}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad password: expected 400, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane","email":"not-an-email","password":"Sup3rSecret"}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", w.Code)
	}

	ok := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane","email":"a@b.com","password":"Sup3rSecret"}`, "")
	if ok.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", ok.Code)
	}
	if w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Someone Else","email":"a@b.com","password":"An0therPass"}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: expected 400, got %d", w.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane","email":"jane@example.com","password":"Sup3rSecret"}`, ""); w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/users/login",
		`{"email":"jane@example.com","password":"Sup3rSecret"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res model.TokenPairResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", res)
	}

	// Wrong password on an existing account is 401, not 404.
	if w := doJSON(r, http.MethodPost, "/users/login",
		`{"email":"jane@example.com","password":"WrongPass1"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/users/login",
		`{"email":"nobody@example.com","password":"Sup3rSecret"}`, ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", w.Code)
	}
}

func TestRefreshTokenEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodPost, "/users/register",
		`{"name":"Jane","email":"jane@example.com","password":"Sup3rSecret"}`, ""); w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", w.Code)
	}
	login := doJSON(r, http.MethodPost, "/users/login",
		`{"email":"jane@example.com","password":"Sup3rSecret"}`, "")
	var pair model.TokenPairResponse
	if err := json.Unmarshal(login.Body.Bytes(), &pair); err != nil {
		t.Fatalf("invalid login JSON: %v", err)
	}

	w := doJSON(r, http.MethodPost, "/users/refreshtoken",
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res model.AccessTokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("expected a new access token")
	}

	if w := doJSON(r, http.MethodPost, "/users/refreshtoken",
		`{"refreshToken":"garbage"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/users/refreshtoken",
		`{"refreshToken":""}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("empty token: expected 400, got %d", w.Code)
	}
	// An access token must not pass the refresh flow.
	if w := doJSON(r, http.MethodPost, "/users/refreshtoken",
		`{"refreshToken":"`+pair.AccessToken+`"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("access token in refresh flow: expected 401, got %d", w.Code)
	}
}
