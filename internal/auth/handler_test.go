package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/it-helpdesk/internal"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler  *Handler
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		tokenGen = NewJWTTokenGenerator(testSecret, time.Hour)
		service := NewService(newMockUserRepository(), tokenGen, &mockPublisher{}, bcrypt.MinCost, testLogger())
		handler = &Handler{BaseHandler: transport.NewBaseHandler(testLogger()), Service: service}
	})

	post := func(fn http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		w := httptest.NewRecorder()
		fn(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw)))
		return w
	}

	ginkgo.Describe("Register", func() {
		ginkgo.It("should answer 201 without any password field", func() {
			w := post(handler.Register, RegisterDTO{
				Name: "Carla", Username: "carla", Email: "carla@example.com", Department: "Sales", Password: "secret1",
			})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated))
			var body map[string]interface{}
			gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
			gomega.Expect(body).To(gomega.HaveKeyWithValue("role", "USER"))
			for key := range body {
				gomega.Expect(key).NotTo(gomega.ContainSubstring("assword"))
			}
		})

		ginkgo.It("should answer 409 when the email is already registered", func() {
			w := post(handler.Register, RegisterDTO{
				Name: "Ana", Username: "ana2", Email: "user@example.com", Department: "Sales", Password: "secret1",
			})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(`"code":"USERNAME_OR_EMAIL_TAKEN"`))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should answer 401 for a wrong password", func() {
			w := post(handler.Login, LoginDTO{Email: "user@example.com", Password: "nope"})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should answer 200 with user and token", func() {
			w := post(handler.Login, LoginDTO{Email: "user@example.com", Password: "correct_password"})

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var resp LoginResponse
			gomega.Expect(json.NewDecoder(w.Body).Decode(&resp)).To(gomega.Succeed())
			gomega.Expect(resp.User.Email).To(gomega.Equal("user@example.com"))
			gomega.Expect(resp.Token).NotTo(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			protected http.Handler
			seen      *internal.User
		)

		ginkgo.BeforeEach(func() {
			seen = nil
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = internal.UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		serve := func(authorization string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			return w
		}

		ginkgo.It("should attach the identity for a valid bearer token", func() {
			token, err := tokenGen.GenerateAccessToken("u-2", coreUser.RoleIT)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			w := serve("Bearer " + token)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).To(gomega.Equal(&internal.User{ID: "u-2", Role: coreUser.RoleIT}))
		})

		ginkgo.It("should answer 401 without a token", func() {
			w := serve("")

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("MISSING_TOKEN"))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should answer 401 for a malformed header or token", func() {
			gomega.Expect(serve("Token abc").Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(serve("Bearer abc").Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should answer 401 TOKEN_EXPIRED for an expired token", func() {
			expired := NewJWTTokenGenerator(testSecret, time.Hour)
			expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
			token, err := expired.GenerateAccessToken("u-1", coreUser.RoleUser)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			w := serve("Bearer " + token)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("TOKEN_EXPIRED"))
		})
	})
})
