package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-box/internal/api/handlers/myrecipes"
	"recipe-box/internal/core/favorites"
	"recipe-box/internal/core/recipe"
	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/infrastructure/storage"
	"recipe-box/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const testKey = "@custom_recipes"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeCatalog 固定內容的遠端目錄
type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]recipe.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []recipe.Category{{ID: "1", Name: "Seafood"}}, nil
}

func (f *fakeCatalog) ByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	if category != "Seafood" {
		return []recipe.Recipe{}, nil
	}
	return []recipe.Recipe{
		{ID: "52959", Name: "Baked salmon with fennel", Category: "Seafood"},
		{ID: "52819", Name: "Cajun spiced fish tacos", Category: "Seafood"},
	}, nil
}

func (f *fakeCatalog) Search(ctx context.Context, term string) ([]recipe.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []recipe.Recipe{{ID: "53013", Name: "Big Mac", Category: "Beef"}}, nil
}

func (f *fakeCatalog) Lookup(ctx context.Context, id string) (recipe.Recipe, error) {
	if f.err != nil {
		return recipe.Recipe{}, f.err
	}
	if id != "52959" {
		return recipe.Recipe{}, common.ErrNotFound
	}
	return recipe.Recipe{
		ID:          "52959",
		Name:        "Baked salmon with fennel",
		Ingredients: []recipe.Ingredient{{Name: "Fennel", Measure: "2 medium"}},
	}, nil
}

// brokenStorage 所有操作都失敗的儲存
type brokenStorage struct{}

func (brokenStorage) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("disk offline")
}

func (brokenStorage) Set(ctx context.Context, key, value string) error {
	return errors.New("disk offline")
}

func (brokenStorage) Ping(ctx context.Context) error {
	return errors.New("disk offline")
}

func (brokenStorage) Close() error {
	return nil
}

// flakyStorage 前 failSets 次寫入失敗，之後正常
type flakyStorage struct {
	storage.Storage
	failSets int
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.failSets > 0 {
		f.failSets--
		return errors.New("disk busy")
	}
	return f.Storage.Set(ctx, key, value)
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Version: "test", Env: "test"},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Storage: config.StorageConfig{
			Driver:  config.DriverMemory,
			Key:     testKey,
			Timeout: time.Second,
		},
		DedupWindow: time.Second,
	}
}

type testServer struct {
	router *gin.Engine
	store  storage.Storage
}

func newTestServer(t *testing.T, store storage.Storage, cat *fakeCatalog) *testServer {
	t.Helper()
	deps := Dependencies{
		Storage:   store,
		Recipes:   recipe.NewRepository(store, testKey),
		Favorites: favorites.NewStore(),
		Catalog:   cat,
	}
	router, stop, err := SetupRouter(testConfig(), deps)
	if err != nil {
		t.Fatalf("setup router: %v", err)
	}
	t.Cleanup(stop)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestSetupRouterRequiresDependencies(t *testing.T) {
	if _, _, err := SetupRouter(testConfig(), Dependencies{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})

	for _, path := range []string{"/health", "/ready", "/live"} {
		if w := s.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	broken := newTestServer(t, brokenStorage{}, &fakeCatalog{})
	if w := broken.do(t, http.MethodGet, "/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is down, got %d", w.Code)
	}
}

func TestMyRecipesLifecycle(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})

	w := s.do(t, http.MethodPost, "/api/v1/my-recipes", recipe.Input{
		Name:         "Pancakes",
		Category:     "Breakfast",
		Ingredients:  "flour\n\neggs\nmilk",
		Instructions: "mix\nfry",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created recipe.CustomRecipe
	decode(t, w, &created)
	if created.Difficulty != "Medium" || created.Image != recipe.PlaceholderImage {
		t.Fatalf("expected defaults applied, got %+v", created)
	}

	w = s.do(t, http.MethodGet, "/api/v1/my-recipes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var detail myrecipes.DetailResponse
	decode(t, w, &detail)
	if detail.ID != created.ID || len(detail.IngredientLines) != 3 || len(detail.InstructionSteps) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	w = s.do(t, http.MethodPut, "/api/v1/my-recipes/"+created.ID, recipe.Input{Name: "Pancakes", Difficulty: "Easy"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated recipe.CustomRecipe
	decode(t, w, &updated)
	if updated.Difficulty != "Easy" || updated.CreatedAt != created.CreatedAt {
		t.Fatalf("unexpected update %+v", updated)
	}

	if w = s.do(t, http.MethodDelete, "/api/v1/my-recipes/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w = s.do(t, http.MethodDelete, "/api/v1/my-recipes/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected repeated delete to succeed, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/my-recipes/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var errResp common.ErrorResponse
	decode(t, w, &errResp)
	if errResp.Code != common.ErrCodeNotFound {
		t.Fatalf("expected %s, got %s", common.ErrCodeNotFound, errResp.Code)
	}
}

func TestMyRecipesListFilter(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})
	for _, in := range []recipe.Input{
		{Name: "Omelette", Category: "Breakfast"},
		{Name: "Brownies", Category: "Dessert"},
		{Name: "Waffles", Category: "Breakfast"},
	} {
		if w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in); w.Code != http.StatusCreated {
			t.Fatalf("create %s: expected 201, got %d", in.Name, w.Code)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 3},
		{query: "?category=All", want: 3},
		{query: "?category=Breakfast", want: 2},
		{query: "?category=Lamb", want: 0},
	}
	for _, tt := range tests {
		w := s.do(t, http.MethodGet, "/api/v1/my-recipes"+tt.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.query, w.Code)
		}
		var resp myrecipes.ListResponse
		decode(t, w, &resp)
		if len(resp.Recipes) != tt.want {
			t.Fatalf("%q: expected %d recipes, got %d", tt.query, tt.want, len(resp.Recipes))
		}
	}
}

func TestMyRecipesValidation(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})

	w := s.do(t, http.MethodPost, "/api/v1/my-recipes", recipe.Input{Name: "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp common.ErrorResponse
	decode(t, w, &resp)
	if resp.Code != common.ErrCodeValidation || resp.Field != "name" || resp.Message == "" {
		t.Fatalf("unexpected error response %+v", resp)
	}
	if _, err := s.store.Get(context.Background(), testKey); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected nothing written, got %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/my-recipes", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}

	w = s.do(t, http.MethodPut, "/api/v1/my-recipes/missing", recipe.Input{Name: "Ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing update, got %d", w.Code)
	}
}

func TestMyRecipesDuplicateSubmit(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})
	in := recipe.Input{Name: "Curry"}

	if w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected duplicate submit rejected, got %d", w.Code)
	}

	var resp myrecipes.ListResponse
	decode(t, s.do(t, http.MethodGet, "/api/v1/my-recipes", nil), &resp)
	if len(resp.Recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(resp.Recipes))
	}
}

func TestMyRecipesCorruptDataDegrades(t *testing.T) {
	store := storage.NewMemory()
	if err := store.Set(context.Background(), testKey, "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := newTestServer(t, store, &fakeCatalog{})

	w := s.do(t, http.MethodGet, "/api/v1/my-recipes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp myrecipes.ListResponse
	decode(t, w, &resp)
	if len(resp.Recipes) != 0 || resp.Warning != common.ErrCodeCorruptData {
		t.Fatalf("expected empty list with warning, got %+v", resp)
	}

	w = s.do(t, http.MethodPost, "/api/v1/my-recipes", recipe.Input{Name: "New"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on create over corrupt data, got %d", w.Code)
	}
}

func TestMyRecipesStorageFailure(t *testing.T) {
	s := newTestServer(t, brokenStorage{}, &fakeCatalog{})

	w := s.do(t, http.MethodGet, "/api/v1/my-recipes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list myrecipes.ListResponse
	decode(t, w, &list)
	if len(list.Recipes) != 0 || list.Warning != common.ErrCodeStorageRead {
		t.Fatalf("expected empty list with %s warning, got %+v", common.ErrCodeStorageRead, list)
	}

	w = s.do(t, http.MethodPost, "/api/v1/my-recipes", recipe.Input{Name: "Toast"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var resp common.ErrorResponse
	decode(t, w, &resp)
	if resp.Code != common.ErrCodeStorageRead {
		t.Fatalf("expected %s, got %s", common.ErrCodeStorageRead, resp.Code)
	}
}

func TestMyRecipesRetryAfterWriteFailure(t *testing.T) {
	s := newTestServer(t, &flakyStorage{Storage: storage.NewMemory(), failSets: 1}, &fakeCatalog{})
	in := recipe.Input{Name: "Risotto"}

	w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var resp common.ErrorResponse
	decode(t, w, &resp)
	if resp.Code != common.ErrCodeStorageWrite {
		t.Fatalf("expected %s, got %s", common.ErrCodeStorageWrite, resp.Code)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in); w.Code != http.StatusCreated {
		t.Fatalf("expected retry to be saved, got %d: %s", w.Code, w.Body.String())
	}

	var list myrecipes.ListResponse
	decode(t, s.do(t, http.MethodGet, "/api/v1/my-recipes", nil), &list)
	if len(list.Recipes) != 1 || list.Recipes[0].Name != "Risotto" {
		t.Fatalf("expected the retried recipe only, got %+v", list.Recipes)
	}
}

func TestMyRecipesInvalidResubmitStillValidates(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})
	in := recipe.Input{Name: " "}

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/my-recipes", in)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %d", i+1, w.Code)
		}
		var resp common.ErrorResponse
		decode(t, w, &resp)
		if resp.Code != common.ErrCodeValidation || resp.Field != "name" {
			t.Fatalf("attempt %d: unexpected error response %+v", i+1, resp)
		}
	}
}

func TestMyRecipesOptions(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})

	w := s.do(t, http.MethodGet, "/api/v1/my-recipes/options", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp myrecipes.OptionsResponse
	decode(t, w, &resp)
	if len(resp.Categories) != len(recipe.Categories) || resp.DefaultDifficulty != "Medium" {
		t.Fatalf("unexpected options %+v", resp)
	}
}

func TestFavoritesRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})
	meal := recipe.Recipe{ID: "52959", Name: "Baked salmon with fennel"}

	w := s.do(t, http.MethodPost, "/api/v1/favorites/toggle", meal)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var toggled struct {
		ID       string `json:"id"`
		Favorite bool   `json:"favorite"`
		Count    int    `json:"count"`
	}
	decode(t, w, &toggled)
	if !toggled.Favorite || toggled.Count != 1 {
		t.Fatalf("expected favorite added, got %+v", toggled)
	}

	var status struct {
		Favorite bool `json:"favorite"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/favorites/52959", nil), &status)
	if !status.Favorite {
		t.Fatal("expected favorite status true")
	}

	var list struct {
		Favorites []recipe.Recipe `json:"favorites"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/favorites", nil), &list)
	if len(list.Favorites) != 1 || list.Favorites[0].Name != meal.Name {
		t.Fatalf("unexpected favorites %+v", list.Favorites)
	}

	decode(t, s.do(t, http.MethodPost, "/api/v1/favorites/toggle", meal), &toggled)
	if toggled.Favorite || toggled.Count != 0 {
		t.Fatalf("expected favorite removed, got %+v", toggled)
	}

	s.do(t, http.MethodPost, "/api/v1/favorites/toggle", meal)
	if w := s.do(t, http.MethodDelete, "/api/v1/favorites", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/favorites/52959", nil), &status)
	if status.Favorite {
		t.Fatal("expected favorites cleared")
	}

	if w := s.do(t, http.MethodPost, "/api/v1/favorites/toggle", recipe.Recipe{Name: "no id"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing id, got %d", w.Code)
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemory(), &fakeCatalog{})

	var meals struct {
		Meals []recipe.Recipe `json:"meals"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/recipes?category=Seafood&q=SALMON", nil), &meals)
	if len(meals.Meals) != 1 || meals.Meals[0].ID != "52959" {
		t.Fatalf("expected filtered seafood, got %+v", meals.Meals)
	}

	decode(t, s.do(t, http.MethodGet, "/api/v1/recipes?category=All", nil), &meals)
	if len(meals.Meals) != 1 || meals.Meals[0].ID != "53013" {
		t.Fatalf("expected search results, got %+v", meals.Meals)
	}

	w := s.do(t, http.MethodGet, "/api/v1/recipes/52959", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var raw map[string]interface{}
	decode(t, w, &raw)
	if raw["strIngredient1"] != "Fennel" {
		t.Fatalf("expected numbered ingredient in response, got %v", raw)
	}

	if w := s.do(t, http.MethodGet, "/api/v1/recipes/1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/categories", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	failing := newTestServer(t, storage.NewMemory(), &fakeCatalog{err: common.ErrCatalog})
	if w := failing.do(t, http.MethodGet, "/api/v1/categories", nil); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
