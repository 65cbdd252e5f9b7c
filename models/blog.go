package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type BlogPost struct {
	Base
	Title           string     `gorm:"not null" json:"title" binding:"required,max=200"`
	Slug            string     `gorm:"uniqueIndex;not null" json:"slug" binding:"omitempty,slug"`
	Content         string     `gorm:"type:text" json:"content"`
	Image           string     `json:"image"`
	Author          string     `json:"author"`
	Published       bool       `gorm:"index" json:"published"`
	PublishedAt     *time.Time `gorm:"index" json:"publishedAt"`
	Views           int64      `gorm:"not null;default:0" json:"views"`
	Tags            StringSet  `gorm:"type:text" json:"tags"`
	MetaTitle       string     `json:"metaTitle"`
	MetaDescription string     `json:"metaDescription"`
	ContentHTML     string     `gorm:"-" json:"contentHtml,omitempty"`
	Excerpt         string     `gorm:"-" json:"excerpt,omitempty"`
}

// StringSet is an ordered set of strings stored as a JSON array.
type StringSet []string

// NewStringSet trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling.
func NewStringSet(values ...string) StringSet {
	seen := make(map[string]bool, len(values))
	set := StringSet{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		set = append(set, v)
	}
	return set
}

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSet) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(raw) == 0 {
		*s = StringSet{}
		return nil
	}
	return json.Unmarshal(raw, s)
}
