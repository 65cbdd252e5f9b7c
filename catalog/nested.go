package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klinika/models"
	"klinika/slugs"
	"klinika/validation"
)

// createNested stores the sub-sub-services and FAQ items posted together with a new sub-service.
// It runs in the same transaction, so any invalid child rolls back the whole tree.
func createNested(ctx context.Context, tx *gorm.DB, rec *models.SubService) error {
	if err := validateNested(rec); err != nil {
		return err
	}
	tx = tx.WithContext(ctx)

	for i := range rec.FAQ {
		item := &rec.FAQ[i]
		item.ID = 0
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return fmt.Errorf("create faq: %w", err)
		}
	}

	for i := range rec.SubSubServices {
		child := &rec.SubSubServices[i]
		child.ID = 0
		if err := tx.Omit(clause.Associations).Create(child).Error; err != nil {
			return fmt.Errorf("create sub-sub-service: %w", err)
		}
		for j := range child.FAQ {
			item := &child.FAQ[j]
			item.ID = 0
			item.SubSubServiceID = &child.ID
			if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
				return fmt.Errorf("create faq: %w", err)
			}
		}
	}
	return nil
}

func validateNested(rec *models.SubService) error {
	errs := validation.FieldErrors{}

	for i := range rec.FAQ {
		item := &rec.FAQ[i]
		item.SubServiceID = &rec.ID
		item.SubSubServiceID = nil
		if item.Icon == "" {
			item.Icon = "question"
		}
		errs.Merge(fmt.Sprintf("faq[%d].", i), validation.Struct(item))
	}

	seen := map[string]bool{}
	for i := range rec.SubSubServices {
		child := &rec.SubSubServices[i]
		prefix := fmt.Sprintf("subSubServices[%d].", i)

		child.SubServiceID = rec.ID
		child.SubService = nil
		if child.Slug == "" {
			child.Slug = slugs.Slugify(child.Title)
		}
		errs.Merge(prefix, validation.Struct(child))
		if child.Title != "" && child.Slug == "" {
			errs.Add(prefix+"slug", "cannot be derived from the title, set it explicitly")
		}
		if child.Slug != "" && seen[child.Slug] {
			errs.Add(prefix+"slug", fmt.Sprintf("slug %q is used twice", child.Slug))
		}
		seen[child.Slug] = true

		for j := range child.FAQ {
			item := &child.FAQ[j]
			item.SubServiceID = nil
			if item.Icon == "" {
				item.Icon = "question"
			}
			errs.Merge(fmt.Sprintf("%sfaq[%d].", prefix, j), validation.Struct(item))
		}
	}

	return errs.Err()
}
