package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/pkg/logger"
)

func TestToken(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Token Ledger Suite")
}

// Mock repository keyed the way the real tables are: one record per user per
// purpose.
type mockTokenRepository struct {
	records       map[Purpose]map[int64]*Record
	returnError   bool
	errorToReturn error
}

func newMockTokenRepository() *mockTokenRepository {
	return &mockTokenRepository{
		records: map[Purpose]map[int64]*Record{
			PurposeVerification: {},
			PurposeReset:        {},
		},
	}
}

func (m *mockTokenRepository) Upsert(_ context.Context, purpose Purpose, record *Record) error {
	if m.returnError {
		return m.errorToReturn
	}
	copied := *record
	m.records[purpose][record.UserID] = &copied
	return nil
}

func (m *mockTokenRepository) FindByToken(_ context.Context, purpose Purpose, tokenValue string) (*Record, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	for _, record := range m.records[purpose] {
		if record.Token == tokenValue {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockTokenRepository) FindByUser(_ context.Context, purpose Purpose, userID int64) (*Record, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if record, exists := m.records[purpose][userID]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (m *mockTokenRepository) DeleteForUser(_ context.Context, purpose Purpose, userID int64) error {
	if m.returnError {
		return m.errorToReturn
	}
	delete(m.records[purpose], userID)
	return nil
}

func (m *mockTokenRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ = ginkgo.Describe("Ledger", func() {
	var (
		ledger   *Ledger
		mockRepo *mockTokenRepository
		ctx      context.Context
		clock    time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockTokenRepository()
		ledger = NewLedger(mockRepo, passthroughTransactor{}, logger.LoggerWrapper(), 24*time.Hour, time.Hour)

		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		ledger.now = func() time.Time { return clock }
	})

	ginkgo.Describe("Issue", func() {
		ginkgo.It("should issue a verification token expiring exactly 24h later", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(record.Token).To(gomega.HaveLen(64)) // 32 bytes hex encoded
			gomega.Expect(record.ExpiresAt).To(gomega.Equal(clock.Add(24 * time.Hour)))
		})

		ginkgo.It("should issue a reset token expiring exactly 1h later", func() {
			record, err := ledger.Issue(ctx, 5, PurposeReset)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(record.ExpiresAt).To(gomega.Equal(clock.Add(time.Hour)))
		})

		ginkgo.It("should replace a prior pending token for the same user and purpose", func() {
			first, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Token).ToNot(gomega.Equal(first.Token))

			// The first token is gone from the ledger.
			gomega.Expect(ledger.Validate(ctx, first.Token, 5, PurposeVerification)).
				To(gomega.MatchError(internal.ErrTokenNotFound))
			gomega.Expect(ledger.Validate(ctx, second.Token, 5, PurposeVerification)).To(gomega.Succeed())
		})

		ginkgo.It("should keep the two purposes independent", func() {
			verification, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = ledger.Issue(ctx, 5, PurposeReset)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(ledger.Validate(ctx, verification.Token, 5, PurposeVerification)).To(gomega.Succeed())
		})

		ginkgo.It("should surface store failures as typed errors", func() {
			mockRepo.setError(errors.New("connection refused"))

			_, err := ledger.Issue(ctx, 5, PurposeVerification)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeStoreFailure))
		})
	})

	ginkgo.Describe("Validate", func() {
		ginkgo.It("should accept a live token belonging to the user", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(ledger.Validate(ctx, record.Token, 5, PurposeVerification)).To(gomega.Succeed())
		})

		ginkgo.It("should report TokenNotFound for an unknown token", func() {
			err := ledger.Validate(ctx, "deadbeef", 5, PurposeVerification)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenNotFound))
		})

		ginkgo.It("should report TokenExpired once the expiry has passed", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			clock = clock.Add(24*time.Hour + time.Second)

			err = ledger.Validate(ctx, record.Token, 5, PurposeVerification)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("should treat expires_at == now as expired", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			clock = record.ExpiresAt

			err = ledger.Validate(ctx, record.Token, 5, PurposeVerification)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("should report RelationshipMismatch when a live token belongs to someone else", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = ledger.Validate(ctx, record.Token, 6, PurposeVerification)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenRelationship))
		})

		ginkgo.It("should report expiry before ownership for an expired token of another user", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			clock = clock.Add(25 * time.Hour)

			err = ledger.Validate(ctx, record.Token, 6, PurposeVerification)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})
	})

	ginkgo.Describe("Consume", func() {
		ginkgo.It("should apply the side effect and delete the record", func() {
			record, err := ledger.Issue(ctx, 5, PurposeVerification)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			applied := false
			err = ledger.Consume(ctx, 5, PurposeVerification, func(ctx context.Context) error {
				applied = true
				return nil
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(applied).To(gomega.BeTrue())

			// Re-validation finds nothing: the token was single-use.
			gomega.Expect(ledger.Validate(ctx, record.Token, 5, PurposeVerification)).
				To(gomega.MatchError(internal.ErrTokenNotFound))
		})

		ginkgo.It("should fail with a precondition error when no token was issued", func() {
			err := ledger.Consume(ctx, 5, PurposeVerification, nil)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenPrecondition))
		})

		ginkgo.It("should keep the record when the side effect fails", func() {
			record, err := ledger.Issue(ctx, 5, PurposeReset)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			boom := errors.New("hash failed")
			err = ledger.Consume(ctx, 5, PurposeReset, func(ctx context.Context) error {
				return boom
			})
			gomega.Expect(err).To(gomega.MatchError(boom))

			gomega.Expect(ledger.Validate(ctx, record.Token, 5, PurposeReset)).To(gomega.Succeed())
		})
	})
})
