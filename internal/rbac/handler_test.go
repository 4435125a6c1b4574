package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/user-management/pkg/logger"
)

var _ = ginkgo.Describe("RBAC Handler", func() {
	var (
		handler     *Handler
		mockRepo    *mockRBACRepository
		router      *chi.Mux
		defaultRole *Role
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRBACRepository()
		defaultRole = mockRepo.addRole("User")
		service := NewService(mockRepo, passthroughTransactor{}, logger.LoggerWrapper(), defaultRole.ID)
		handler = NewHandler(logger.LoggerWrapper(), service)

		router = chi.NewRouter()
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles", handler.ListRoles)
		router.Put("/roles/{id}", handler.EditRole)
		router.Delete("/roles/{id}", handler.DeleteRole)
		router.Get("/roles/{id}/permissions", handler.RolePermissions)
		router.Post("/roles/{id}/permissions/{permissionID}", handler.AttachPermission)
		router.Post("/users/{id}/roles", handler.AssignRoles)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader *bytes.Buffer
		if body != nil {
			raw, err := json.Marshal(body)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reader = bytes.NewBuffer(raw)
		} else {
			reader = bytes.NewBuffer(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	ginkgo.Describe("role endpoints", func() {
		ginkgo.It("should create a role", func() {
			w := do(http.MethodPost, "/roles", RoleDTO{Name: "Editor"})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated))

			var created Role
			gomega.Expect(json.NewDecoder(w.Body).Decode(&created)).To(gomega.Succeed())
			gomega.Expect(created.Name).To(gomega.Equal("Editor"))
			gomega.Expect(created.ID).ToNot(gomega.BeZero())
		})

		ginkgo.It("should reject a duplicate role name with 409", func() {
			w := do(http.MethodPost, "/roles", RoleDTO{Name: "User"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
		})

		ginkgo.It("should reject a blank role name with 400", func() {
			w := do(http.MethodPost, "/roles", RoleDTO{Name: "   "})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should list roles", func() {
			mockRepo.addRole("Editor")

			w := do(http.MethodGet, "/roles", nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			var roles []Role
			gomega.Expect(json.NewDecoder(w.Body).Decode(&roles)).To(gomega.Succeed())
			gomega.Expect(roles).To(gomega.HaveLen(2))
		})

		ginkgo.It("should rename a role", func() {
			editor := mockRepo.addRole("Editor")

			w := do(http.MethodPut, fmt.Sprintf("/roles/%d", editor.ID), RoleDTO{Name: "Reviewer"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			var updated Role
			gomega.Expect(json.NewDecoder(w.Body).Decode(&updated)).To(gomega.Succeed())
			gomega.Expect(updated.Name).To(gomega.Equal("Reviewer"))
		})

		ginkgo.It("should return 404 when editing an unknown role", func() {
			w := do(http.MethodPut, "/roles/9999", RoleDTO{Name: "Reviewer"})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})

		ginkgo.It("should delete a role", func() {
			editor := mockRepo.addRole("Editor")

			w := do(http.MethodDelete, fmt.Sprintf("/roles/%d", editor.ID), nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("should refuse to delete the default role", func() {
			w := do(http.MethodDelete, fmt.Sprintf("/roles/%d", defaultRole.ID), nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should reject a non-numeric role id", func() {
			w := do(http.MethodDelete, "/roles/abc", nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("permission edges", func() {
		ginkgo.It("should attach a permission to a role and list it", func() {
			editor := mockRepo.addRole("Editor")
			perm := mockRepo.addPermission("manage_articles")

			w := do(http.MethodPost, fmt.Sprintf("/roles/%d/permissions/%d", editor.ID, perm.ID), nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))

			w = do(http.MethodGet, fmt.Sprintf("/roles/%d/permissions", editor.ID), nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			var permissions []Permission
			gomega.Expect(json.NewDecoder(w.Body).Decode(&permissions)).To(gomega.Succeed())
			gomega.Expect(permissions).To(gomega.HaveLen(1))
			gomega.Expect(permissions[0].Name).To(gomega.Equal("manage_articles"))
		})

		ginkgo.It("should return 409 when the permission is already attached", func() {
			editor := mockRepo.addRole("Editor")
			perm := mockRepo.addPermission("manage_articles")
			gomega.Expect(mockRepo.AttachPermission(context.Background(), editor.ID, perm.ID)).To(gomega.Succeed())

			w := do(http.MethodPost, fmt.Sprintf("/roles/%d/permissions/%d", editor.ID, perm.ID), nil)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
		})
	})

	ginkgo.Describe("user role assignment", func() {
		ginkgo.It("should assign roles and report the change", func() {
			mockRepo.addUser(42)
			editor := mockRepo.addRole("Editor")

			w := do(http.MethodPost, "/users/42/roles", RoleSelectionDTO{RoleIDs: []int64{editor.ID}})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

			var result AssignmentResultDTO
			gomega.Expect(json.NewDecoder(w.Body).Decode(&result)).To(gomega.Succeed())
			gomega.Expect(result.Changed).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an empty selection with 400", func() {
			mockRepo.addUser(42)

			w := do(http.MethodPost, "/users/42/roles", RoleSelectionDTO{})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should return 404 for an unknown user", func() {
			editor := mockRepo.addRole("Editor")

			w := do(http.MethodPost, "/users/9999/roles", RoleSelectionDTO{RoleIDs: []int64{editor.ID}})
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})
})
