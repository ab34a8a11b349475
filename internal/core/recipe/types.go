package recipe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipe-box/internal/pkg/common"
)

// MaxIngredients 遠端食譜最多的食材/份量組數
const MaxIngredients = 20

// PlaceholderImage 自訂食譜未填圖片時使用的預設圖片
const PlaceholderImage = "https://via.placeholder.com/400x300?text=Recipe"

// 自訂食譜的預設值
const (
	DefaultCategory   = "Other"
	DefaultDifficulty = "Medium"
)

// Categories 自訂食譜可選的分類
var Categories = []string{
	"Beef", "Chicken", "Dessert", "Lamb", "Pasta",
	"Seafood", "Vegetarian", "Vegan", "Breakfast", "Other",
}

// Difficulties 自訂食譜可選的難度
var Difficulties = []string{"Easy", "Medium", "Hard"}

// Ingredient 遠端食譜的食材與份量
type Ingredient struct {
	Name    string `json:"ingredient"`
	Measure string `json:"measure"`
}

// Recipe 遠端目錄提供的唯讀食譜
type Recipe struct {
	ID           string       `json:"idMeal"`
	Name         string       `json:"strMeal"`
	Category     string       `json:"strCategory,omitempty"`
	Area         string       `json:"strArea,omitempty"`
	Image        string       `json:"strMealThumb,omitempty"`
	Instructions string       `json:"strInstructions,omitempty"`
	Ingredients  []Ingredient `json:"-"`
	Servings     Metric       `json:"servings,omitempty"`
	Calories     Metric       `json:"calories,omitempty"`
	PrepTime     Metric       `json:"prepTime,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
}

// Metric 選填數值，接受 JSON 數字、數字字串、空字串或 null
type Metric string

// UnmarshalJSON 實現 json.Unmarshaler
func (m *Metric) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch {
	case text == "null":
		*m = ""
		return nil
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Metric(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid metric %s: %w", text, err)
	}
	*m = Metric(n.String())
	return nil
}

// MarshalJSON 數值以 JSON 數字輸出，其他文字保持字串
func (m Metric) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(m), 64); err == nil && json.Valid([]byte(m)) {
		return []byte(m), nil
	}
	return json.Marshal(string(m))
}

// recipeFields 避免 MarshalJSON/UnmarshalJSON 遞迴
type recipeFields Recipe

// UnmarshalJSON 將 strIngredient1..20 / strMeasure1..20 收斂為食材清單
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var fields recipeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields.Ingredients = nil
	for i := 1; i <= MaxIngredients; i++ {
		name := rawString(raw[fmt.Sprintf("strIngredient%d", i)])
		if name == "" {
			continue
		}
		fields.Ingredients = append(fields.Ingredients, Ingredient{
			Name:    name,
			Measure: rawString(raw[fmt.Sprintf("strMeasure%d", i)]),
		})
	}

	*r = Recipe(fields)
	return nil
}

// rawString 取出去除前後空白的字串值，null 或非字串視為空
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// MarshalJSON 以遠端目錄的編號欄位輸出食材
func (r Recipe) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recipeFields(r))
	if err != nil {
		return nil, err
	}
	if len(r.Ingredients) == 0 {
		return base, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(base, &out); err != nil {
		return nil, err
	}
	for i, ing := range r.Ingredients {
		if i >= MaxIngredients {
			break
		}
		name, _ := json.Marshal(ing.Name)
		measure, _ := json.Marshal(ing.Measure)
		out[fmt.Sprintf("strIngredient%d", i+1)] = name
		out[fmt.Sprintf("strMeasure%d", i+1)] = measure
	}
	return json.Marshal(out)
}

// Category 遠端目錄的分類
type Category struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Image       string `json:"strCategoryThumb,omitempty"`
	Description string `json:"strCategoryDescription,omitempty"`
}

// CustomRecipe 使用者自行建立的食譜，欄位全部以字串儲存
type CustomRecipe struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Category     string `json:"category"`
	Servings     string `json:"servings"`
	PrepTime     string `json:"prepTime"`
	Difficulty   string `json:"difficulty"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// IngredientLines 每行一項食材，忽略空白行
func (c CustomRecipe) IngredientLines() []string {
	return common.SplitLines(c.Ingredients)
}

// InstructionSteps 每行一個步驟，忽略空白行
func (c CustomRecipe) InstructionSteps() []string {
	return common.SplitLines(c.Instructions)
}

// Input 建立或更新自訂食譜的表單內容，更新時為整筆取代
type Input struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	Category     string `json:"category"`
	Servings     string `json:"servings"`
	PrepTime     string `json:"prepTime"`
	Difficulty   string `json:"difficulty"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	Notes        string `json:"notes"`
}

// normalize 驗證並套用預設值
func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, common.NewValidationError("name", "請輸入食譜名稱")
	}

	in.Image = strings.TrimSpace(in.Image)
	if in.Image == "" {
		in.Image = PlaceholderImage
	}

	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	if !common.ContainsString(Categories, in.Category) {
		return in, common.NewValidationError("category", fmt.Sprintf("不支援的分類 %q", in.Category))
	}

	in.Difficulty = strings.TrimSpace(in.Difficulty)
	if in.Difficulty == "" {
		in.Difficulty = DefaultDifficulty
	}
	if !common.ContainsString(Difficulties, in.Difficulty) {
		return in, common.NewValidationError("difficulty", fmt.Sprintf("不支援的難度 %q", in.Difficulty))
	}

	return in, nil
}
