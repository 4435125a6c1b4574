package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/user-management/internal"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default roles and an admin account",
	Long:  `Seed the database with the default role, the admin role with management permissions, and an initial admin user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			clearTables(db)
		}

		defaultRoleID := ensureRole(db, cfg.Auth.DefaultRoleName)
		adminRoleID := ensureRole(db, "Admin")

		permissions := []struct {
			Name string
			Desc string
		}{
			{"manage_users", "Create, edit, and delete user accounts"},
			{"manage_roles", "Manage roles and user-role assignments"},
			{"manage_permissions", "Manage the permission catalog"},
		}

		for _, p := range permissions {
			pid := ensurePermission(db, p.Name, p.Desc)
			grantPermission(db, adminRoleID, pid)
		}
		fmt.Println("Granted management permissions to the Admin role")

		adminEmail := "admin@mail.com"
		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), internal.DefaultBCryptCost)

		var adminUserID int64
		err = db.QueryRow("SELECT id FROM users WHERE email = $1", adminEmail).Scan(&adminUserID)
		if err != nil {
			err = db.QueryRow(
				"INSERT INTO users (name, email, password_hash, verified, visibility, created_at, updated_at) VALUES ($1, $2, $3, true, $4, now(), now()) RETURNING id",
				"Admin", adminEmail, string(hash), cfg.Auth.DefaultVisibility,
			).Scan(&adminUserID)
			if err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		} else {
			fmt.Println("admin user already exists; will ensure roles")
		}

		attachRole(db, adminUserID, adminRoleID)
		attachRole(db, adminUserID, defaultRoleID)

		fmt.Println("Seeding complete")
	},
}

func clearTables(db *sqlx.DB) {
	tables := []string{
		"password_changes", "password_resets", "account_verifications",
		"permission_roles", "user_roles", "permissions", "roles", "users",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			log.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func ensureRole(db *sqlx.DB, name string) int64 {
	var id int64
	if err := db.QueryRow("SELECT id FROM roles WHERE name = $1", name).Scan(&id); err == nil {
		return id
	}
	err := db.QueryRow(
		"INSERT INTO roles (name, created_at, updated_at) VALUES ($1, now(), now()) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		log.Fatalf("failed to insert role %s: %v", name, err)
	}
	fmt.Println("Seeded role:", name)
	return id
}

func ensurePermission(db *sqlx.DB, name, description string) int64 {
	var id int64
	if err := db.QueryRow("SELECT id FROM permissions WHERE name = $1", name).Scan(&id); err == nil {
		return id
	}
	err := db.QueryRow(
		"INSERT INTO permissions (name, description, created_at, updated_at) VALUES ($1, $2, now(), now()) RETURNING id",
		name, description,
	).Scan(&id)
	if err != nil {
		log.Fatalf("failed to insert permission %s: %v", name, err)
	}
	fmt.Println("Seeded permission:", name)
	return id
}

func grantPermission(db *sqlx.DB, roleID, permissionID int64) {
	var exists int
	if err := db.QueryRow(
		"SELECT 1 FROM permission_roles WHERE role_id = $1 AND permission_id = $2", roleID, permissionID,
	).Scan(&exists); err == nil {
		return
	}
	if _, err := db.Exec(
		"INSERT INTO permission_roles (role_id, permission_id) VALUES ($1, $2)", roleID, permissionID,
	); err != nil {
		log.Fatalf("failed to grant permission %d to role %d: %v", permissionID, roleID, err)
	}
}

func attachRole(db *sqlx.DB, userID, roleID int64) {
	var exists int
	if err := db.QueryRow(
		"SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID,
	).Scan(&exists); err == nil {
		return
	}
	if _, err := db.Exec(
		"INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)", userID, roleID,
	); err != nil {
		log.Fatalf("failed to attach role %d to user %d: %v", roleID, userID, err)
	}
}
