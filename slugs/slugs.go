package slugs

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify folds diacritics, lowercases and joins words with hyphens.
// Applying it to its own output returns the same value.
func Slugify(title string) string {
	return slug.Make(strings.ReplaceAll(title, "_", " "))
}

// Field tracks a slug derived from a title. Once the slug is edited by hand,
// title changes no longer overwrite it until Reset is called or the slug is cleared.
type Field struct {
	value string
	dirty bool
}

// NewField starts from a stored slug. An empty stored slug is not treated as a manual edit.
func NewField(stored string) *Field {
	return &Field{value: stored, dirty: stored != ""}
}

// SetTitle re-derives the slug unless it was edited manually.
func (f *Field) SetTitle(title string) {
	if f.dirty {
		return
	}
	f.value = Slugify(title)
}

// Edit records a manual slug change. Clearing the field hands control back to the title.
func (f *Field) Edit(value string) {
	f.value = value
	f.dirty = value != ""
}

// Reset drops the manual edit and derives from title again.
func (f *Field) Reset(title string) {
	f.dirty = false
	f.SetTitle(title)
}

func (f *Field) Value() string {
	return f.value
}

func (f *Field) Dirty() bool {
	return f.dirty
}
