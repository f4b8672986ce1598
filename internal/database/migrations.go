package database

import (
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.CarOwner{},
		&models.Driver{},
		&models.Garage{},
		&models.GarageImage{},
		&models.Car{},
		&models.ServiceRequest{},
		&models.WorkItem{},
		&models.Notification{},
		&models.ProductCategory{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.ServiceInquiry{},
	)
	if err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Keep status values honest for anything writing around the API.
	constraints := []string{
		`ALTER TABLE service_requests DROP CONSTRAINT IF EXISTS service_requests_status_check`,
		`ALTER TABLE service_requests ADD CONSTRAINT service_requests_status_check CHECK (status IN ('pending', 'assigned', 'picked_up', 'in_service', 'completed', 'delivered'))`,
		`ALTER TABLE service_work_items DROP CONSTRAINT IF EXISTS service_work_items_cost_check`,
		`ALTER TABLE service_work_items ADD CONSTRAINT service_work_items_cost_check CHECK (cost > 0)`,
		`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`,
		`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('car_owner', 'mechanic', 'garage', 'admin'))`,
	}
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
