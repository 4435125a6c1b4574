package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/user-management/internal/credentials"
	"github.com/frahmantamala/user-management/internal/session"
	"github.com/frahmantamala/user-management/internal/token"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
	"github.com/frahmantamala/user-management/pkg/logger"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		router    *chi.Mux
		userStore *mockUserStore
		tokenRepo *mockTokenRepository
		notifier  *mockNotifier
	)

	const sessionTTL = time.Hour

	ginkgo.BeforeEach(func() {
		userStore = newMockUserStore()
		roleGraph := newMockRoleGraph()
		tokenRepo = newMockTokenRepository()
		notifier = &mockNotifier{}
		hasher := credentials.NewStore(bcrypt.MinCost)
		ledger := token.NewLedger(tokenRepo, passthroughTransactor{}, logger.LoggerWrapper(), 24*time.Hour, time.Hour)

		newFacade := func(sessions SessionAPI) *Service {
			return NewService(
				userStore, userStore, roleGraph, ledger, sessions, notifier, hasher,
				passthroughTransactor{}, logger.LoggerWrapper(),
				1, "public", sessionTTL,
			)
		}

		handler := NewHandler(logger.LoggerWrapper(), newFacade, sessionTTL)
		sessionStore := session.NewMemoryStore()

		router = chi.NewRouter()
		router.Use(middleware.Session(sessionStore, sessionTTL, logger.LoggerWrapper()))
		router.Post("/auth/register", handler.Register)
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/logout", handler.Logout)
		router.Get("/auth/me", handler.Me)
		router.Post("/auth/verify", handler.VerifyAccount)
		router.Post("/auth/password/forgot", handler.ForgotPassword)
		router.Post("/auth/password/reset", handler.ResetPassword)
	})

	post := func(path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	sessionCookie := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range w.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				return c
			}
		}
		return nil
	}

	register := func(email string, verified bool) *httptest.ResponseRecorder {
		return post("/auth/register", RegisterDTO{
			Name: "Ana", Email: email, Password: "long-enough-pw", Verified: boolPtr(verified),
		})
	}

	ginkgo.Describe("registration", func() {
		ginkgo.It("should create an unverified account and send a token instead of a session", func() {
			w := register("ana@example.com", false)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(sessionCookie(w)).To(gomega.BeNil())
			gomega.Expect(notifier.sent).To(gomega.HaveLen(1))
			gomega.Expect(notifier.sent[0].kind).To(gomega.Equal(NotifyVerification))
		})

		ginkgo.It("should log a pre-verified account in and set the session cookie", func() {
			w := register("ana@example.com", true)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated))
			cookie := sessionCookie(w)
			gomega.Expect(cookie).ToNot(gomega.BeNil())
			gomega.Expect(cookie.Value).ToNot(gomega.BeEmpty())
			gomega.Expect(notifier.sent).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a short password with 400", func() {
			w := post("/auth/register", RegisterDTO{Name: "Ana", Email: "ana@example.com", Password: "short"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should reject a duplicate email with 409", func() {
			register("ana@example.com", true)
			w := register("ana@example.com", true)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
		})
	})

	ginkgo.Describe("login and session", func() {
		ginkgo.BeforeEach(func() {
			register("ana@example.com", true)
		})

		ginkgo.It("should set a session cookie on valid credentials", func() {
			w := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(sessionCookie(w)).ToNot(gomega.BeNil())
		})

		ginkgo.It("should return 401 on a wrong password", func() {
			w := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "wrong-password"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should return the same 401 for an unknown email as for a wrong password", func() {
			w := post("/auth/login", LoginDTO{Email: "ghost@example.com", Password: "long-enough-pw"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(sessionCookie(w)).To(gomega.BeNil())
		})

		ginkgo.It("should report the current user through the session cookie", func() {
			login := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})
			cookie := sessionCookie(login)
			gomega.Expect(cookie).ToNot(gomega.BeNil())

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var me SessionUserDTO
			gomega.Expect(json.NewDecoder(w.Body).Decode(&me)).To(gomega.Succeed())
			gomega.Expect(me.LoggedIn).To(gomega.BeTrue())
			gomega.Expect(me.User.Email).To(gomega.Equal("ana@example.com"))
		})

		ginkgo.It("should report anonymous without a cookie", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var me SessionUserDTO
			gomega.Expect(json.NewDecoder(w.Body).Decode(&me)).To(gomega.Succeed())
			gomega.Expect(me.LoggedIn).To(gomega.BeFalse())
			gomega.Expect(me.User).To(gomega.BeNil())
		})

		ginkgo.It("should end the session on logout", func() {
			login := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})
			cookie := sessionCookie(login)

			w := post("/auth/logout", struct{}{}, cookie)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.AddCookie(cookie)
			after := httptest.NewRecorder()
			router.ServeHTTP(after, req)

			var me SessionUserDTO
			gomega.Expect(json.NewDecoder(after.Body).Decode(&me)).To(gomega.Succeed())
			gomega.Expect(me.LoggedIn).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("verification over HTTP", func() {
		ginkgo.It("should verify the account with the delivered token and allow login", func() {
			register("ana@example.com", false)
			gomega.Expect(notifier.sent).To(gomega.HaveLen(1))
			delivered := notifier.sent[0]

			blocked := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})
			gomega.Expect(blocked.Code).To(gomega.Equal(http.StatusForbidden))

			w := post("/auth/verify", VerifyAccountDTO{Token: delivered.token, UserID: delivered.userID})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			login := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})
			gomega.Expect(login.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should reject an unknown verification token with 404", func() {
			register("ana@example.com", false)

			w := post("/auth/verify", VerifyAccountDTO{Token: "bogus", UserID: notifier.sent[0].userID})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("password reset over HTTP", func() {
		ginkgo.It("should reset the password with the delivered token", func() {
			register("ana@example.com", true)

			w := post("/auth/password/forgot", EmailDTO{Email: "ana@example.com"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusAccepted))
			gomega.Expect(notifier.sent).To(gomega.HaveLen(1))
			delivered := notifier.sent[0]
			gomega.Expect(delivered.kind).To(gomega.Equal(NotifyReset))

			w = post("/auth/password/reset", ResetPasswordDTO{
				Token: delivered.token, UserID: delivered.userID, NewPassword: "brand-new-password",
			})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			old := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "long-enough-pw"})
			gomega.Expect(old.Code).To(gomega.Equal(http.StatusUnauthorized))

			login := post("/auth/login", LoginDTO{Email: "ana@example.com", Password: "brand-new-password"})
			gomega.Expect(login.Code).To(gomega.Equal(http.StatusOK))
		})
	})
})
