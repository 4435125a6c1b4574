package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	changeDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/passwordchange"
	rbacDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/rbac"
	tokenDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/token"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/user"
	userPostgres "github.com/frahmantamala/user-management/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo user.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&userDatamodel.User{},
			&rbacDatamodel.UserRole{},
			&tokenDatamodel.AccountVerification{},
			&tokenDatamodel.PasswordReset{},
			&changeDatamodel.PasswordChange{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = userPostgres.NewUserRepository(db)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("should persist all fields and assign an ID", func() {
			created, err := repo.Create(ctx, user.CreateParams{
				Name:         "Ana",
				Email:        "ana@example.com",
				PasswordHash: "hash",
				Verified:     true,
				Visibility:   "private",
				Country:      "ES",
				Phone:        "+34600000000",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeZero())
			Expect(created.Verified).To(BeTrue())
			Expect(created.Country).To(Equal("ES"))
		})

		It("should enforce email uniqueness", func() {
			_, err := repo.Create(ctx, user.CreateParams{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Create(ctx, user.CreateParams{Name: "Other", Email: "ana@example.com", PasswordHash: "x"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("lookups", func() {
		It("should find by ID and email, returning nil when absent", func() {
			created, err := repo.Create(ctx, user.CreateParams{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())

			byID, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Email).To(Equal("ana@example.com"))

			byEmail, err := repo.GetByEmail(ctx, "ana@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(created.ID))

			missing, err := repo.GetByID(ctx, 999)
			Expect(err).NotTo(HaveOccurred())
			Expect(missing).To(BeNil())
		})

		It("should list users in ID order", func() {
			_, err := repo.Create(ctx, user.CreateParams{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())
			_, err = repo.Create(ctx, user.CreateParams{Name: "Bea", Email: "bea@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())

			users, err := repo.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].Name).To(Equal("Ana"))
		})
	})

	Describe("Update", func() {
		It("should persist field changes including false booleans", func() {
			created, err := repo.Create(ctx, user.CreateParams{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Verified: true})
			Expect(err).NotTo(HaveOccurred())

			created.Name = "Ana Maria"
			created.Verified = false
			Expect(repo.Update(ctx, created)).To(Succeed())

			reloaded, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Name).To(Equal("Ana Maria"))
			Expect(reloaded.Verified).To(BeFalse())
		})
	})

	Describe("cascade helpers", func() {
		It("should delete only the target user's satellite rows", func() {
			created, err := repo.Create(ctx, user.CreateParams{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())
			other, err := repo.Create(ctx, user.CreateParams{Name: "Bea", Email: "bea@example.com", PasswordHash: "x"})
			Expect(err).NotTo(HaveOccurred())

			expires := time.Now().Add(time.Hour)
			Expect(db.Create(&rbacDatamodel.UserRole{UserID: created.ID, RoleID: 1}).Error).To(Succeed())
			Expect(db.Create(&rbacDatamodel.UserRole{UserID: other.ID, RoleID: 1}).Error).To(Succeed())
			Expect(db.Create(&tokenDatamodel.AccountVerification{UserID: created.ID, Token: "v1", ExpiresAt: expires}).Error).To(Succeed())
			Expect(db.Create(&tokenDatamodel.PasswordReset{UserID: created.ID, Token: "r1", ExpiresAt: expires}).Error).To(Succeed())
			Expect(db.Create(&changeDatamodel.PasswordChange{UserID: created.ID, ChangesCount: 1, LastChangeDate: time.Now()}).Error).To(Succeed())

			Expect(repo.DetachRoleEdges(ctx, created.ID)).To(Succeed())
			Expect(repo.DeleteTokens(ctx, created.ID)).To(Succeed())
			Expect(repo.DeletePasswordHistory(ctx, created.ID)).To(Succeed())
			Expect(repo.Delete(ctx, created.ID)).To(Succeed())

			var roleCount, verifyCount, resetCount, changeCount int64
			Expect(db.Model(&rbacDatamodel.UserRole{}).Count(&roleCount).Error).To(Succeed())
			Expect(db.Model(&tokenDatamodel.AccountVerification{}).Count(&verifyCount).Error).To(Succeed())
			Expect(db.Model(&tokenDatamodel.PasswordReset{}).Count(&resetCount).Error).To(Succeed())
			Expect(db.Model(&changeDatamodel.PasswordChange{}).Count(&changeCount).Error).To(Succeed())

			Expect(roleCount).To(Equal(int64(1))) // the other user's edge survives
			Expect(verifyCount).To(BeZero())
			Expect(resetCount).To(BeZero())
			Expect(changeCount).To(BeZero())

			gone, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(gone).To(BeNil())
		})
	})
})
