package bootstrap

import (
	"context"
	"errors"
	"log"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/progress"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Project{},
		&entity.Task{},
	)
}

type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

var seedUsers = []seedUser{
	{Name: "Administrator", Email: "admin@taskmanager.local", Password: "Password1234.", Role: entity.RoleAdmin},
	{Name: "Developer One", Email: "dev1@taskmanager.local", Password: "Password1234.", Role: entity.RoleDeveloper},
	{Name: "Developer Two", Email: "dev2@taskmanager.local", Password: "Password1234.", Role: entity.RoleDeveloper},
}

// Seed inserts demo users, projects and tasks once, then rebuilds every project's progress.
func Seed(ctx context.Context, db *gorm.DB) error {
	users := make([]*entity.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := seedUserOnce(ctx, db, su)
		if err != nil {
			return err
		}
		users = append(users, u)
	}
	admin, dev1, dev2 := users[0], users[1], users[2]

	var count int64
	if err := db.WithContext(ctx).Model(&entity.Project{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Projects already exist, skipping project seed")
		return nil
	}

	core := &entity.Project{
		CreatorID:   admin.ID,
		Name:        "Management Platform (CORE)",
		Description: stringPtr("REST API and the admin/developer dashboard."),
	}
	dashboard := &entity.Project{
		CreatorID:   dev1.ID,
		Name:        "Frontend Dashboard",
		Description: stringPtr("Dashboard views and state handling."),
	}
	reports := &entity.Project{
		CreatorID:   dev2.ID,
		Name:        "Reports Module",
		Description: stringPtr("Interfaces and API for quarterly reports."),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range []*entity.Project{core, dashboard, reports} {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}

		tasks := []*entity.Task{
			{ProjectID: core.ID, AssigneeID: &dev1.ID, Title: "Login and token flow", Status: entity.TaskStatusCompleted},
			{ProjectID: core.ID, AssigneeID: &dev2.ID, Title: "Task CRUD with policies", Status: entity.TaskStatusInProgress},
			{ProjectID: core.ID, AssigneeID: &dev1.ID, Title: "Project progress calculation", Status: entity.TaskStatusPending},
			{ProjectID: dashboard.ID, AssigneeID: &dev2.ID, Title: "Developer dashboard", Status: entity.TaskStatusPending},
		}
		for _, t := range tasks {
			if err := tx.Create(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := progress.RecomputeAll(ctx, db); err != nil {
		return err
	}

	log.Println("✅ Demo data seeded successfully")
	for _, su := range seedUsers {
		log.Printf("   %s (%s): %s", su.Email, su.Role, su.Password)
	}

	return nil
}

func seedUserOnce(ctx context.Context, db *gorm.DB, su seedUser) (*entity.User, error) {
	var existing entity.User
	err := db.WithContext(ctx).Where("email = ?", su.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Name:         su.Name,
		Email:        su.Email,
		PasswordHash: string(hashedPasswordBytes),
		Role:         su.Role,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}

	return u, nil
}

func stringPtr(s string) *string {
	return &s
}
