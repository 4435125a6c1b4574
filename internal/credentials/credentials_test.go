package credentials

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentials(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Credentials Suite")
}

var _ = ginkgo.Describe("Store", func() {
	var store *Store

	ginkgo.BeforeEach(func() {
		// MinCost keeps the suite fast; production cost comes from config.
		store = NewStore(bcrypt.MinCost)
	})

	ginkgo.Describe("Hash", func() {
		ginkgo.It("should produce a hash that verifies against the original password", func() {
			hash, err := store.Hash("s3cret-password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(hash).ToNot(gomega.BeEmpty())
			gomega.Expect(store.Verify("s3cret-password", hash)).To(gomega.BeTrue())
		})

		ginkgo.It("should salt hashes so equal passwords do not collide", func() {
			first, err := store.Hash("same-password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := store.Hash("same-password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(first).ToNot(gomega.Equal(second))
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.It("should reject a wrong password", func() {
			hash, err := store.Hash("right-password")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(store.Verify("wrong-password", hash)).To(gomega.BeFalse())
		})

		ginkgo.It("should reject garbage that is not a bcrypt hash", func() {
			gomega.Expect(store.Verify("anything", "not-a-hash")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("NewStore", func() {
		ginkgo.It("should fall back to the default cost when given an out-of-range cost", func() {
			s := NewStore(99)
			hash, err := s.Hash("pw")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			cost, err := bcrypt.Cost([]byte(hash))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(cost).To(gomega.Equal(bcrypt.DefaultCost))
		})
	})
})
