package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotJSONArray 表示 JSON 頂層不是陣列
var ErrNotJSONArray = errors.New("json value is not an array")

// ParseJSONArray 解析頂層必須是陣列的 JSON，null 也視為錯誤
func ParseJSONArray(data string, v interface{}) error {
	trimmed := strings.TrimSpace(data)
	if !strings.HasPrefix(trimmed, "[") {
		return ErrNotJSONArray
	}
	return decodeJSON(strings.NewReader(trimmed), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SplitLines 以換行切分文字，去除空白行與每行前後空白
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
