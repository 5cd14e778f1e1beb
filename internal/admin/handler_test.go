package admin_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/metrics"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/store/memory"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Admin Handler", func() {
	var (
		router   *chi.Mux
		sessions *session.Manager
		m        *metrics.Manager
	)

	post := func(path string, body interface{}, token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	loginAs := func(dto admin.LoginDTO) admin.LoginResponse {
		w := post("/auth/login", dto, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp admin.LoginResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	BeforeEach(func() {
		logger := testLogger()
		service := admin.NewService(memory.NewStore(), events.NewEventBus(logger), logger, admin.Options{
			BCryptCost:        bcrypt.MinCost,
			AllowDemoFallback: true,
		})
		sessions = session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, logger)
		m = metrics.NewTestManager()
		base := transport.NewBaseHandler(logger)
		h := admin.NewHandler(base, service, sessions, m)

		router = chi.NewRouter()
		router.Post("/auth/register", h.Register)
		router.Post("/auth/login", h.Login)
		router.Post("/auth/logout", h.Logout)
		router.With(sessions.RequireSession(base)).Get("/admin/me", h.Me)
	})

	It("registers without echoing the password", func() {
		w := post("/auth/register", validRegistration(), "")
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))
		Expect(w.Body.String()).To(ContainSubstring("roads_officer"))
	})

	It("answers 409 for a taken username", func() {
		Expect(post("/auth/register", validRegistration(), "").Code).To(Equal(http.StatusCreated))
		w := post("/auth/register", validRegistration(), "")
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("USERNAME_TAKEN"))
	})

	It("logs in, reads the session and logs out", func() {
		Expect(post("/auth/register", validRegistration(), "").Code).To(Equal(http.StatusCreated))
		resp := loginAs(admin.LoginDTO{Username: "roads_officer", Password: "secret1", Department: "Roads"})
		Expect(resp.Token).NotTo(BeEmpty())
		Expect(resp.Session.ActiveDepartment).To(Equal("Roads"))

		req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("roads@gov.in"))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))

		Expect(post("/auth/logout", struct{}{}, resp.Token).Code).To(Equal(http.StatusNoContent))
		Expect(sessions.Count()).To(BeZero())

		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 401 for bad credentials and counts the attempt", func() {
		w := post("/auth/login", admin.LoginDTO{Username: "ghost", Password: "secret1", Department: "Roads"}, "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(testutil.ToFloat64(m.CounterLogins.WithLabelValues("rejected"))).To(Equal(1.0))
	})

	It("answers 400 when the department is missing", func() {
		w := post("/auth/login", admin.LoginDTO{Username: "admin", Password: "admin123"}, "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("accepts the demo fallback for any department", func() {
		resp := loginAs(admin.LoginDTO{Username: "admin", Password: "admin123", Department: "Water"})
		Expect(resp.Session.Email).To(Equal("admin@water.gov"))
		Expect(testutil.ToFloat64(m.CounterLogins.WithLabelValues("ok"))).To(Equal(1.0))
	})

	It("refuses logout without a token", func() {
		Expect(post("/auth/logout", struct{}{}, "").Code).To(Equal(http.StatusUnauthorized))
	})
})
