package recipe

import (
	"context"
	"errors"
	"sync"
	"time"

	"recipe-box/internal/infrastructure/storage"
	"recipe-box/internal/pkg/common"

	"go.uber.org/zap"
)

// TimeLayout 儲存時間戳的格式（UTC，毫秒精度）
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultTimeout 單次儲存操作的預設上限
const DefaultTimeout = 5 * time.Second

// Repository 自訂食譜儲存庫
//
// 所有食譜以一個 JSON 陣列存放在單一鍵下，每次變更都讀取整個陣列、
// 修改後整個寫回。讀寫週期在 mu 保護下進行，同一程序內不會互相覆蓋。
type Repository struct {
	store   storage.Storage
	key     string
	timeout time.Duration
	now     func() time.Time
	newID   func() string
	mu      sync.Mutex
}

// Option 儲存庫選項
type Option func(*Repository)

// WithTimeout 設定單次儲存操作的上限
func WithTimeout(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock 替換時間來源
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator 替換識別碼產生器
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) {
		r.newID = newID
	}
}

// NewRepository 創建自訂食譜儲存庫
func NewRepository(store storage.Storage, key string, opts ...Option) *Repository {
	r := &Repository{
		store:   store,
		key:     key,
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   common.GenerateUUID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List 讀取所有自訂食譜，依建立順序排列
func (r *Repository) List(ctx context.Context) ([]CustomRecipe, error) {
	return r.load(ctx)
}

// Get 依識別碼讀取單筆食譜
func (r *Repository) Get(ctx context.Context, id string) (CustomRecipe, error) {
	recipes, err := r.load(ctx)
	if err != nil {
		return CustomRecipe{}, err
	}
	if i := indexOf(recipes, id); i >= 0 {
		return recipes[i], nil
	}
	return CustomRecipe{}, common.ErrNotFound.Wrap(errors.New("custom recipe " + id))
}

// Create 驗證輸入後新增一筆食譜，寫入失敗時原有資料不變
func (r *Repository) Create(ctx context.Context, input Input) (CustomRecipe, error) {
	in, err := input.normalize()
	if err != nil {
		return CustomRecipe{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recipes, err := r.load(ctx)
	if err != nil {
		return CustomRecipe{}, err
	}

	stamp := r.now().UTC().Format(TimeLayout)
	created := fromInput(r.newID(), in, stamp, stamp)
	recipes = append(recipes, created)

	if err := r.save(ctx, recipes); err != nil {
		return CustomRecipe{}, err
	}

	common.LogInfo("自訂食譜已建立",
		zap.String("id", created.ID),
		zap.String("category", created.Category),
		zap.Int("total", len(recipes)),
	)
	return created, nil
}

// Update 以輸入整筆取代既有食譜，保留識別碼與建立時間
func (r *Repository) Update(ctx context.Context, id string, input Input) (CustomRecipe, error) {
	in, err := input.normalize()
	if err != nil {
		return CustomRecipe{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recipes, err := r.load(ctx)
	if err != nil {
		return CustomRecipe{}, err
	}

	i := indexOf(recipes, id)
	if i < 0 {
		return CustomRecipe{}, common.ErrNotFound.Wrap(errors.New("custom recipe " + id))
	}

	prev := recipes[i]
	updated := fromInput(prev.ID, in, prev.CreatedAt, r.nextStamp(prev.UpdatedAt))
	recipes[i] = updated

	if err := r.save(ctx, recipes); err != nil {
		return CustomRecipe{}, err
	}

	common.LogInfo("自訂食譜已更新",
		zap.String("id", updated.ID),
		zap.String("updated_at", updated.UpdatedAt),
	)
	return updated, nil
}

// Delete 依識別碼刪除，識別碼不存在時不做任何事
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipes, err := r.load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(recipes, id)
	if i < 0 {
		common.LogDebug("自訂食譜不存在，略過刪除", zap.String("id", id))
		return nil
	}

	remaining := make([]CustomRecipe, 0, len(recipes)-1)
	remaining = append(remaining, recipes[:i]...)
	remaining = append(remaining, recipes[i+1:]...)

	if err := r.save(ctx, remaining); err != nil {
		return err
	}

	common.LogInfo("自訂食譜已刪除",
		zap.String("id", id),
		zap.Int("total", len(remaining)),
	)
	return nil
}

// nextStamp 產生新的更新時間，保證嚴格晚於 prev
func (r *Repository) nextStamp(prev string) string {
	now := r.now().UTC().Truncate(time.Millisecond)
	if last, err := time.Parse(time.RFC3339Nano, prev); err == nil {
		last = last.UTC().Truncate(time.Millisecond)
		if !now.After(last) {
			now = last.Add(time.Millisecond)
		}
	}
	return now.Format(TimeLayout)
}

// load 讀取並解析整個陣列
func (r *Repository) load(ctx context.Context) ([]CustomRecipe, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		common.LogStorageCall("get", r.key, time.Since(start), nil)
		return []CustomRecipe{}, nil
	}
	common.LogStorageCall("get", r.key, time.Since(start), err)
	if err != nil {
		return nil, common.ErrStorageRead.Wrap(err)
	}

	recipes := []CustomRecipe{}
	if err := common.ParseJSONArray(raw, &recipes); err != nil {
		common.LogError("自訂食譜資料損毀",
			zap.String("key", r.key),
			zap.Int("length", len(raw)),
			zap.Error(err),
		)
		return nil, common.ErrCorruptData.Wrap(err)
	}
	return recipes, nil
}

// save 以單次寫入取代整個陣列
func (r *Repository) save(ctx context.Context, recipes []CustomRecipe) error {
	if recipes == nil {
		recipes = []CustomRecipe{}
	}
	payload, err := common.ToJSON(recipes)
	if err != nil {
		return common.ErrStorageWrite.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err = r.store.Set(ctx, r.key, payload)
	common.LogStorageCall("set", r.key, time.Since(start), err)
	if err != nil {
		return common.ErrStorageWrite.Wrap(err)
	}
	return nil
}

func fromInput(id string, in Input, createdAt, updatedAt string) CustomRecipe {
	return CustomRecipe{
		ID:           id,
		Name:         in.Name,
		Image:        in.Image,
		Category:     in.Category,
		Servings:     in.Servings,
		PrepTime:     in.PrepTime,
		Difficulty:   in.Difficulty,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
		Notes:        in.Notes,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

func indexOf(recipes []CustomRecipe, id string) int {
	for i, r := range recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}
