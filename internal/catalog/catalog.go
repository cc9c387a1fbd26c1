// Package catalog は収集対象の文字セット (カテゴリ → 文字の並び) を扱います。
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Category は文字の分類です。
type Category string

const (
	Vowels       Category = "vowels"
	Consonants   Category = "consonants"
	VowelSigns   Category = "vowel_signs"
	SpecialSigns Category = "special_signs"
)

// Categories は既知のカテゴリを表示順で並べたものです。
var Categories = []Category{Vowels, Consonants, VowelSigns, SpecialSigns}

//go:embed telugu_script.json
var defaultScript []byte

// Entry はカタログ中の1文字です。
type Entry struct {
	Category  Category `json:"category"`
	Character string   `json:"character"`
}

// Catalog は起動時に一度だけ読み込まれ、以後変更されません。
type Catalog struct {
	characters map[Category][]string
}

// Load は path の JSON からカタログを読み込みます。path が空なら組み込みの
// テルグ文字セットを使います。
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultScript)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s の読み込みに失敗しました: %w", path, err)
	}
	return Parse(data)
}

// Parse は {"vowels": [...], ...} 形式の JSON を解釈します。
// 存在しないカテゴリは空として扱い、未知のキーは無視します。
func Parse(data []byte) (*Catalog, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog JSON のパースに失敗しました: %w", err)
	}
	c := &Catalog{characters: make(map[Category][]string, len(Categories))}
	for _, cat := range Categories {
		chars := make([]string, 0, len(raw[string(cat)]))
		for _, ch := range raw[string(cat)] {
			if ch == "" {
				continue
			}
			chars = append(chars, ch)
		}
		c.characters[cat] = chars
	}
	return c, nil
}

// New はテスト等で直接カタログを組み立てるためのコンストラクタです。
func New(characters map[Category][]string) *Catalog {
	c := &Catalog{characters: make(map[Category][]string, len(Categories))}
	for _, cat := range Categories {
		c.characters[cat] = append([]string(nil), characters[cat]...)
	}
	return c
}

// Characters はカテゴリ内の文字をコピーして返します。
func (c *Catalog) Characters(cat Category) []string {
	out := make([]string, len(c.characters[cat]))
	copy(out, c.characters[cat])
	return out
}

// HasCategory は name が既知のカテゴリかどうかを返します。
func (c *Catalog) HasCategory(name string) bool {
	_, ok := c.characters[Category(name)]
	return ok
}

// Contains は文字がカテゴリに含まれるかを返します。
func (c *Catalog) Contains(cat Category, character string) bool {
	for _, ch := range c.characters[cat] {
		if ch == character {
			return true
		}
	}
	return false
}

// TotalCharacters は全カテゴリの文字数の合計です。
func (c *Catalog) TotalCharacters() int {
	total := 0
	for _, cat := range Categories {
		total += len(c.characters[cat])
	}
	return total
}

// DefaultEntry は最初の母音を返します。母音が無ければ ok は false。
func (c *Catalog) DefaultEntry() (Entry, bool) {
	vowels := c.characters[Vowels]
	if len(vowels) == 0 {
		return Entry{}, false
	}
	return Entry{Category: Vowels, Character: vowels[0]}, true
}

// MarshalJSON は元データと同じ {"vowels": [...], ...} 形式で出力します。
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(Categories))
	for _, cat := range Categories {
		out[string(cat)] = c.Characters(cat)
	}
	return json.Marshal(out)
}
