package models

// MenuItem is either a direct link (Href set) or a dropdown parent, never both.
type MenuItem struct {
	Base
	Label     string         `gorm:"not null" json:"label" binding:"required,max=100"`
	Href      *string        `json:"href"`
	IconPath  string         `json:"iconPath"`
	SortOrder int            `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool           `gorm:"index" json:"isActive"`
	Dropdowns []DropdownItem `gorm:"foreignKey:MenuItemID" json:"dropdowns" binding:"-"`
}

func (m *MenuItem) HasHref() bool {
	return m.Href != nil && *m.Href != ""
}

type DropdownItem struct {
	Base
	MenuItemID uint   `gorm:"not null;index" json:"menuItemId" binding:"required"`
	Label      string `gorm:"not null" json:"label" binding:"required,max=100"`
	Href       string `gorm:"not null" json:"href" binding:"required"`
	IconPath   string `json:"iconPath"`
	SortOrder  int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive   bool   `gorm:"index" json:"isActive"`
}
