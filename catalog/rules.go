package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"klinika/models"
	"klinika/slugs"
	"klinika/validation"
)

// taken reports whether another row than selfID matches query.
func taken(tx *gorm.DB, model any, selfID uint, query string, args ...any) (bool, error) {
	var count int64
	q := tx.Model(model).Where(query, args...)
	if selfID != 0 {
		q = q.Where("id <> ?", selfID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	err := tx.Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// deriveSlug fills an empty slug from the title.
func deriveSlug(slug *string, title, field string) error {
	*slug = strings.TrimSpace(*slug)
	if *slug == "" {
		*slug = slugs.Slugify(title)
	}
	if *slug == "" {
		return validation.FieldErrors{field: "cannot be derived from the title, set it explicitly"}
	}
	return nil
}

func prepareService(ctx context.Context, tx *gorm.DB, rec *models.Service, _ *models.Service) error {
	rec.SubServices = nil
	rec.Title = strings.TrimSpace(rec.Title)
	if err := deriveSlug(&rec.Href, rec.Title, "href"); err != nil {
		return err
	}

	dup, err := taken(tx, &models.Service{}, rec.ID, "href = ?", rec.Href)
	if err != nil {
		return err
	}
	if dup {
		return validation.NewConflict("href", "A service with href %q already exists", rec.Href)
	}
	return nil
}

func prepareSubService(ctx context.Context, tx *gorm.DB, rec *models.SubService, existing *models.SubService) error {
	rec.Service = nil
	rec.Title = strings.TrimSpace(rec.Title)

	ok, err := exists(tx, &models.Service{}, rec.ServiceID)
	if err != nil {
		return err
	}
	if !ok {
		return validation.FieldErrors{"serviceId": "service does not exist"}
	}

	if err := deriveSlug(&rec.Slug, rec.Title, "slug"); err != nil {
		return err
	}
	dup, err := taken(tx, &models.SubService{}, rec.ID, "service_id = ? AND slug = ?", rec.ServiceID, rec.Slug)
	if err != nil {
		return err
	}
	if dup {
		return validation.NewConflict("slug", "Slug %q is already used in this service", rec.Slug)
	}

	if existing != nil {
		// Children are managed through their own endpoints.
		rec.SubSubServices = nil
		rec.FAQ = nil
	}
	return nil
}

func prepareSubSubService(ctx context.Context, tx *gorm.DB, rec *models.SubSubService, _ *models.SubSubService) error {
	rec.SubService = nil
	rec.FAQ = nil
	rec.Title = strings.TrimSpace(rec.Title)

	ok, err := exists(tx, &models.SubService{}, rec.SubServiceID)
	if err != nil {
		return err
	}
	if !ok {
		return validation.FieldErrors{"subServiceId": "sub-service does not exist"}
	}

	if err := deriveSlug(&rec.Slug, rec.Title, "slug"); err != nil {
		return err
	}
	dup, err := taken(tx, &models.SubSubService{}, rec.ID, "sub_service_id = ? AND slug = ?", rec.SubServiceID, rec.Slug)
	if err != nil {
		return err
	}
	if dup {
		return validation.NewConflict("slug", "Slug %q is already used in this sub-service", rec.Slug)
	}
	return nil
}

func prepareFAQ(ctx context.Context, tx *gorm.DB, rec *models.FAQItem, _ *models.FAQItem) error {
	if rec.SubServiceID != nil && rec.SubSubServiceID != nil {
		return validation.FieldErrors{"subSubServiceId": "a FAQ item belongs to a sub-service or a sub-sub-service, not both"}
	}
	if rec.Icon == "" {
		rec.Icon = "question"
	}

	if rec.SubServiceID != nil {
		ok, err := exists(tx, &models.SubService{}, *rec.SubServiceID)
		if err != nil {
			return err
		}
		if !ok {
			return validation.FieldErrors{"subServiceId": "sub-service does not exist"}
		}
	}
	if rec.SubSubServiceID != nil {
		ok, err := exists(tx, &models.SubSubService{}, *rec.SubSubServiceID)
		if err != nil {
			return err
		}
		if !ok {
			return validation.FieldErrors{"subSubServiceId": "sub-sub-service does not exist"}
		}
	}
	return nil
}
