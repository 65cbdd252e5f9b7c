package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klinika/content"
	"klinika/crud"
	"klinika/models"
	"klinika/validation"
)

// MenuModule serves the two-level navigation tree.
type MenuModule struct {
	items     *crud.Resource[models.MenuItem, *models.MenuItem]
	dropdowns *crud.Resource[models.DropdownItem, *models.DropdownItem]
}

func NewMenuModule(db *gorm.DB) *MenuModule {
	return &MenuModule{
		items: crud.New("/api/menu", db, crud.Hooks[models.MenuItem, *models.MenuItem]{
			Preloads:    itemPreloads,
			Prepare:     prepareItem,
			AfterCreate: createDropdowns,
			Delete:      deleteItem,
		}, crud.Options{}),
		dropdowns: crud.New("/api/menu/dropdown", db, crud.Hooks[models.DropdownItem, *models.DropdownItem]{
			Filters: dropdownFilters,
			Public:  publicDropdowns,
			Prepare: prepareDropdown,
		}, crud.Options{IDRoutes: true}),
	}
}

func (m *MenuModule) RegisterRoutes(router gin.IRouter) {
	m.items.RegisterRoutes(router)
	m.dropdowns.RegisterRoutes(router)
}

func itemPreloads(_ *gin.Context, public bool) []content.Preload {
	p := content.Preload{Path: "Dropdowns"}
	if public {
		p.Scopes = []content.Scope{content.Active}
	}
	return []content.Preload{p}
}

func normalizeHref(href *string) *string {
	if href == nil {
		return nil
	}
	v := strings.TrimSpace(*href)
	if v == "" {
		return nil
	}
	return &v
}

func countDropdowns(tx *gorm.DB, itemID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.DropdownItem{}).Where("menu_item_id = ?", itemID).Count(&n).Error
	return n, err
}

// prepareItem enforces that a menu item is either a link or a dropdown parent.
func prepareItem(ctx context.Context, tx *gorm.DB, rec *models.MenuItem, existing *models.MenuItem) error {
	rec.Label = strings.TrimSpace(rec.Label)
	rec.Href = normalizeHref(rec.Href)

	if existing == nil {
		if rec.HasHref() && len(rec.Dropdowns) > 0 {
			return validation.NewConflict("href", "A menu item with dropdowns cannot have its own href")
		}
		return nil
	}

	rec.Dropdowns = nil
	if !rec.HasHref() {
		return nil
	}
	n, err := countDropdowns(tx.WithContext(ctx), rec.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return validation.NewConflict("href", "Menu item %q has %d dropdown items, remove them before setting an href", rec.Label, n)
	}
	return nil
}

// createDropdowns stores dropdown items posted together with a new menu item.
func createDropdowns(ctx context.Context, tx *gorm.DB, rec *models.MenuItem) error {
	errs := validation.FieldErrors{}
	for i := range rec.Dropdowns {
		d := &rec.Dropdowns[i]
		d.MenuItemID = rec.ID
		d.Label = strings.TrimSpace(d.Label)
		d.Href = strings.TrimSpace(d.Href)
		errs.Merge(fmt.Sprintf("dropdowns[%d].", i), validation.Struct(d))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	tx = tx.WithContext(ctx)
	for i := range rec.Dropdowns {
		d := &rec.Dropdowns[i]
		d.ID = 0
		if err := tx.Omit(clause.Associations).Create(d).Error; err != nil {
			return fmt.Errorf("create dropdown item: %w", err)
		}
	}
	return nil
}

func deleteItem(ctx context.Context, tx *gorm.DB, id uint) error {
	tx = tx.WithContext(ctx)
	var n int64
	if err := tx.Model(&models.MenuItem{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	if err := tx.Where("menu_item_id = ?", id).Delete(&models.DropdownItem{}).Error; err != nil {
		return fmt.Errorf("delete dropdown items: %w", err)
	}
	return tx.Delete(&models.MenuItem{}, id).Error
}

func dropdownFilters(c *gin.Context) ([]content.Scope, error) {
	raw := c.Query("menuItemId")
	if raw == "" {
		return nil, nil
	}
	id, ok := crud.ParseID(raw)
	if !ok {
		return nil, validation.FieldErrors{"menuItemId": "must be a positive integer"}
	}
	return []content.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("menu_item_id = ?", id)
	}}, nil
}

// publicDropdowns hides active dropdowns of an inactive parent.
func publicDropdowns(db *gorm.DB) *gorm.DB {
	parents := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.MenuItem{}).Select("id").Where("is_active = ?", true)
	return db.Where("is_active = ? AND menu_item_id IN (?)", true, parents)
}

func prepareDropdown(ctx context.Context, tx *gorm.DB, rec *models.DropdownItem, _ *models.DropdownItem) error {
	rec.Label = strings.TrimSpace(rec.Label)
	rec.Href = strings.TrimSpace(rec.Href)
	if rec.Href == "" {
		return validation.FieldErrors{"href": "is required"}
	}

	var parent models.MenuItem
	err := tx.WithContext(ctx).Select("id", "label", "href").First(&parent, rec.MenuItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validation.FieldErrors{"menuItemId": fmt.Sprintf("menu item %d does not exist", rec.MenuItemID)}
	}
	if err != nil {
		return err
	}
	if parent.HasHref() {
		return validation.NewConflict("menuItemId", "Menu item %q links to %s, clear its href before adding dropdown items", parent.Label, *parent.Href)
	}
	return nil
}
