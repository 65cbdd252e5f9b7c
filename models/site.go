package models

// Singletons: ContactInfo, FooterSettings, TopBar and ExperienceContent hold at most one row.

type ContactInfo struct {
	Base
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email" binding:"omitempty,email"`
	WorkingHours string `json:"workingHours"`
	MapURL       string `json:"mapUrl"`
	IsActive     bool   `json:"isActive"`
}

type ContactBenefit struct {
	Base
	Title       string `gorm:"not null" json:"title" binding:"required"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive    bool   `gorm:"index" json:"isActive"`
}

type ContactService struct {
	Base
	Name      string `gorm:"not null" json:"name" binding:"required"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}

type PricingGroup struct {
	Base
	Title       string        `gorm:"not null" json:"title" binding:"required"`
	Description string        `gorm:"type:text" json:"description"`
	SortOrder   int           `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive    bool          `gorm:"index" json:"isActive"`
	Items       []PricingItem `gorm:"foreignKey:GroupID" json:"items,omitempty" binding:"-"`
}

type PricingItem struct {
	Base
	GroupID     uint   `gorm:"not null;index" json:"groupId" binding:"required"`
	Name        string `gorm:"not null" json:"name" binding:"required"`
	Price       string `gorm:"not null" json:"price" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive    bool   `gorm:"index" json:"isActive"`
}

type SocialLink struct {
	Base
	Platform  string `gorm:"not null" json:"platform" binding:"required"`
	URL       string `gorm:"not null" json:"url" binding:"required,url"`
	IconPath  string `json:"iconPath"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}

type QuickLink struct {
	Base
	Label     string `gorm:"not null" json:"label" binding:"required"`
	Href      string `gorm:"not null" json:"href" binding:"required"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}

type FooterSettings struct {
	Base
	CompanyName  string `json:"companyName"`
	Description  string `gorm:"type:text" json:"description"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email" binding:"omitempty,email"`
	WorkingHours string `json:"workingHours"`
	Copyright    string `json:"copyright"`
	IsActive     bool   `json:"isActive"`
}

type TopBar struct {
	Base
	Phone        string `json:"phone"`
	Email        string `json:"email" binding:"omitempty,email"`
	Address      string `json:"address"`
	WorkingHours string `json:"workingHours"`
	Message      string `json:"message"`
	IsActive     bool   `json:"isActive"`
}

type Slide struct {
	Base
	Title      string `gorm:"not null" json:"title" binding:"required"`
	Subtitle   string `json:"subtitle"`
	Image      string `gorm:"not null" json:"image" binding:"required"`
	ButtonText string `json:"buttonText"`
	ButtonLink string `json:"buttonLink"`
	SortOrder  int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive   bool   `gorm:"index" json:"isActive"`
}

type Testimonial struct {
	Base
	Name      string `gorm:"not null" json:"name" binding:"required"`
	Text      string `gorm:"type:text;not null" json:"text" binding:"required"`
	Rating    int    `gorm:"not null" json:"rating" binding:"required,min=1,max=5"`
	Image     string `json:"image"`
	Service   string `json:"service"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}

type ExperienceStat struct {
	Base
	Value     int    `gorm:"not null" json:"value" binding:"gte=0"`
	Suffix    string `json:"suffix"`
	Label     string `gorm:"not null" json:"label" binding:"required"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}

type ExperienceContent struct {
	Base
	Title       string `json:"title" binding:"required"`
	Subtitle    string `json:"subtitle"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `json:"isActive"`
}

type InfoBlock struct {
	Base
	Title     string `gorm:"not null" json:"title" binding:"required"`
	Content   string `gorm:"type:text" json:"content"`
	Image     string `json:"image"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order" binding:"gte=0"`
	IsActive  bool   `gorm:"index" json:"isActive"`
}
