package models

type Service struct {
	Base
	Title       string       `gorm:"not null" json:"title" binding:"required,max=200"`
	Icon        string       `json:"icon"`
	Description string       `gorm:"type:text" json:"description"`
	Href        string       `gorm:"uniqueIndex;not null" json:"href" binding:"omitempty,slug"`
	SortOrder   int          `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive    bool         `gorm:"index" json:"isActive"`
	SubServices []SubService `gorm:"foreignKey:ServiceID" json:"subServices,omitempty" binding:"-"`
}

type SubService struct {
	Base
	ServiceID      uint            `gorm:"not null;uniqueIndex:idx_sub_service_slug" json:"serviceId" binding:"required"`
	Service        *Service        `json:"service,omitempty" binding:"-"`
	Title          string          `gorm:"not null" json:"title" binding:"required,max=200"`
	Description    string          `gorm:"type:text" json:"description"`
	Content        string          `gorm:"type:text" json:"content"`
	Gallery1       string          `json:"gallery1,omitempty"`
	Gallery2       string          `json:"gallery2,omitempty"`
	Gallery3       string          `json:"gallery3,omitempty"`
	Gallery4       string          `json:"gallery4,omitempty"`
	Duration       string          `json:"duration"`
	Price          string          `json:"price"`
	Slug           string          `gorm:"not null;uniqueIndex:idx_sub_service_slug" json:"slug" binding:"omitempty,slug"`
	SortOrder      int             `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive       bool            `gorm:"index" json:"isActive"`
	SubSubServices []SubSubService `gorm:"foreignKey:SubServiceID" json:"subSubServices,omitempty" binding:"-"`
	FAQ            []FAQItem       `gorm:"foreignKey:SubServiceID" json:"faq,omitempty" binding:"-"`
	Preview        string          `gorm:"-" json:"preview,omitempty"`
	Images         []string        `gorm:"-" json:"gallery,omitempty" binding:"-"`
}

// Gallery returns the filled image slots in slot order.
func (s *SubService) Gallery() []string {
	var images []string
	for _, img := range []string{s.Gallery1, s.Gallery2, s.Gallery3, s.Gallery4} {
		if img != "" {
			images = append(images, img)
		}
	}
	return images
}

type SubSubService struct {
	Base
	SubServiceID uint        `gorm:"not null;uniqueIndex:idx_sub_sub_service_slug" json:"subServiceId" binding:"required"`
	SubService   *SubService `json:"subService,omitempty" binding:"-"`
	Title        string      `gorm:"not null" json:"title" binding:"required,max=200"`
	Description  string      `gorm:"type:text" json:"description"`
	Content      string      `gorm:"type:text" json:"content"`
	Duration     string      `json:"duration"`
	Price        string      `json:"price"`
	Slug         string      `gorm:"not null;uniqueIndex:idx_sub_sub_service_slug" json:"slug" binding:"omitempty,slug"`
	SortOrder    int         `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive     bool        `gorm:"index" json:"isActive"`
	FAQ          []FAQItem   `gorm:"foreignKey:SubSubServiceID" json:"faq,omitempty" binding:"-"`
	Preview      string      `gorm:"-" json:"preview,omitempty"`
}

var FAQIcons = []string{"question", "info", "price", "time", "care", "safety"}

// FAQItem belongs to a sub-service, a sub-sub-service or, with both ids nil, the whole site.
type FAQItem struct {
	Base
	Question        string `gorm:"not null" json:"question" binding:"required"`
	Answer          string `gorm:"type:text;not null" json:"answer" binding:"required"`
	Category        string `gorm:"index" json:"category"`
	Icon            string `json:"icon" binding:"omitempty,oneof=question info price time care safety"`
	SortOrder       int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive        bool   `gorm:"index" json:"isActive"`
	SubServiceID    *uint  `gorm:"index" json:"subServiceId"`
	SubSubServiceID *uint  `gorm:"index" json:"subSubServiceId"`
}
