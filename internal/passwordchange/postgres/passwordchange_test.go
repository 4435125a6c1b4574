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
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/passwordchange"
	changePostgres "github.com/frahmantamala/user-management/internal/passwordchange/postgres"
)

func TestPasswordChangePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Password Change Postgres Suite")
}

var _ = Describe("Password Change PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo passwordchange.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&userDatamodel.User{}, &changeDatamodel.PasswordChange{})
		Expect(err).NotTo(HaveOccurred())

		repo = changePostgres.NewPasswordChangeRepository(db)
		ctx = context.Background()
	})

	Describe("UserPasswordHash", func() {
		It("should return the stored hash", func() {
			user := userDatamodel.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash-1"}
			Expect(db.Create(&user).Error).To(Succeed())

			hash, err := repo.UserPasswordHash(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(hash).To(Equal("hash-1"))
		})

		It("should return empty for an unknown user", func() {
			hash, err := repo.UserPasswordHash(ctx, 999)
			Expect(err).NotTo(HaveOccurred())
			Expect(hash).To(BeEmpty())
		})
	})

	Describe("UpdateUserPasswordHash", func() {
		It("should overwrite the user's hash", func() {
			user := userDatamodel.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash-1"}
			Expect(db.Create(&user).Error).To(Succeed())

			Expect(repo.UpdateUserPasswordHash(ctx, user.ID, "hash-2")).To(Succeed())

			hash, err := repo.UserPasswordHash(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(hash).To(Equal("hash-2"))
		})
	})

	Describe("records", func() {
		It("should return nil when the user has no record", func() {
			record, err := repo.LatestRecord(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(BeNil())
		})

		It("should create, reload and update a record in place", func() {
			anchor := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			record := &passwordchange.Record{
				UserID:          5,
				OldPasswordHash: "old",
				NewPasswordHash: "new",
				ChangesCount:    1,
				LastChangeDate:  anchor,
			}
			Expect(repo.SaveRecord(ctx, record)).To(Succeed())
			Expect(record.ID).NotTo(BeZero())

			loaded, err := repo.LatestRecord(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ChangesCount).To(Equal(1))
			Expect(loaded.LastChangeDate.Unix()).To(Equal(anchor.Unix()))

			loaded.ChangesCount = 2
			Expect(repo.SaveRecord(ctx, loaded)).To(Succeed())

			reloaded, err := repo.LatestRecord(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.ID).To(Equal(record.ID))
			Expect(reloaded.ChangesCount).To(Equal(2))
		})
	})
})
