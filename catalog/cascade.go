package catalog

import (
	"gorm.io/gorm"

	"klinika/content"
	"klinika/models"
)

// Deletes are hard and cascade down the tree. Callers run them inside one transaction.

func DeleteService(tx *gorm.DB, id uint) error {
	ok, err := exists(tx, &models.Service{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return content.ErrNotFound
	}

	var subIDs []uint
	if err := tx.Model(&models.SubService{}).Where("service_id = ?", id).Pluck("id", &subIDs).Error; err != nil {
		return err
	}
	for _, subID := range subIDs {
		if err := DeleteSubService(tx, subID); err != nil {
			return err
		}
	}
	return tx.Delete(&models.Service{}, id).Error
}

func DeleteSubService(tx *gorm.DB, id uint) error {
	ok, err := exists(tx, &models.SubService{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return content.ErrNotFound
	}

	var childIDs []uint
	if err := tx.Model(&models.SubSubService{}).Where("sub_service_id = ?", id).Pluck("id", &childIDs).Error; err != nil {
		return err
	}
	if len(childIDs) > 0 {
		if err := tx.Where("sub_sub_service_id IN ?", childIDs).Delete(&models.FAQItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sub_service_id = ?", id).Delete(&models.SubSubService{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("sub_service_id = ?", id).Delete(&models.FAQItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.SubService{}, id).Error
}

func DeleteSubSubService(tx *gorm.DB, id uint) error {
	ok, err := exists(tx, &models.SubSubService{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return content.ErrNotFound
	}

	if err := tx.Where("sub_sub_service_id = ?", id).Delete(&models.FAQItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.SubSubService{}, id).Error
}
