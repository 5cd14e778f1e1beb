package rest_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/grievance-portal/api"
	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/export"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/metrics"
	"github.com/frahmantamala/grievance-portal/internal/report"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/store/memory"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/frahmantamala/grievance-portal/internal/transport/rest"
	"github.com/frahmantamala/grievance-portal/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		mem    *memory.Store
	)

	do := func(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func() string {
		w := do(http.MethodPost, "/api/v1/auth/login", admin.LoginDTO{
			Username:   admin.DefaultUsername,
			Password:   admin.DefaultPassword,
			Department: admin.DefaultDepartment,
		}, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp admin.LoginResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp.Token
	}

	BeforeEach(func() {
		lg := logger.Discard()
		mem = memory.NewStore()
		bus := events.NewEventBus(lg)
		m := metrics.NewTestManager()
		sessions := session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, lg)
		base := transport.NewBaseHandler(lg)

		grievances := grievance.NewService(mem, bus, m, lg)
		admins := admin.NewService(mem, bus, lg, admin.Options{BCryptCost: bcrypt.MinCost})

		cfg := &internal.Config{
			Server: internal.ServerConfig{AllowedOrigins: "*"},
			Store:  internal.StoreConfig{Backend: internal.StoreBackendLocal},
			Observability: internal.ObservabilityConfig{
				Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
			},
		}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Dependencies{
			Config:           cfg,
			Logger:           lg,
			Store:            mem,
			Sessions:         sessions,
			Metrics:          m,
			OpenAPI:          api.Document(),
			AdminHandler:     admin.NewHandler(base, admins, sessions, m),
			GrievanceHandler: grievance.NewHandler(base, grievances),
			ReportHandler:    report.NewHandler(base, report.NewEngine(grievances, lg)),
			ExportHandler:    export.NewHandler(base, export.NewService(grievances, export.CSVModeRFC4180, lg)),
		})
	})

	It("answers ping and health", func() {
		Expect(do(http.MethodGet, "/api/v1/ping", nil, "").Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/api/v1/health", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp rest.HealthResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveKey("store"))
		Expect(resp.Components["store"].Details).To(HaveKeyWithValue("backend", "local"))
	})

	It("reports an unhealthy store", func() {
		mem.FailWith = errors.New("disk gone")
		w := do(http.MethodGet, "/api/v1/health", nil, "")
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).To(ContainSubstring("disk gone"))
	})

	It("serves the OpenAPI document and metrics", func() {
		w := do(http.MethodGet, "/openapi.yml", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(HavePrefix("openapi: 3.0.3"))

		do(http.MethodGet, "/api/v1/ping", nil, "")
		w = do(http.MethodGet, "/metrics", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("grievance_portal_test_server_request"))
	})

	It("keeps admin routes behind a session", func() {
		Expect(do(http.MethodGet, "/api/v1/admin/me", nil, "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/admin/report", nil, "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("runs the citizen and admin flow end to end", func() {
		w := do(http.MethodPost, "/api/v1/grievances", grievance.SubmitDTO{
			Title:           "Pothole on Main St",
			Description:     "Deep pothole near the bus stop",
			Location:        "Main St",
			Authority:       "Roads",
			ReporterName:    "Asha Rao",
			ReporterContact: "9876543210",
		}, "")
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created grievance.SubmitResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &created)).To(Succeed())
		id := created.Grievance.ID

		path := "/api/v1/grievances/" + jsonInt(id)
		Expect(do(http.MethodPost, path+"/upvote", nil, "").Code).To(Equal(http.StatusOK))

		token := login()
		Expect(do(http.MethodGet, "/api/v1/admin/me", nil, token).Code).To(Equal(http.StatusOK))

		adminPath := "/api/v1/admin/grievances/" + jsonInt(id)
		w = do(http.MethodPatch, adminPath+"/status", grievance.StatusUpdateDTO{Status: string(grievance.StatusResolved)}, token)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/api/v1/admin/report", nil, token)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"resolved":1`))

		w = do(http.MethodGet, "/api/v1/admin/export?format=csv", nil, token)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Disposition")).To(HavePrefix(`attachment; filename="grievance_report_`))
		Expect(strings.Split(w.Body.String(), "\n")).To(HaveLen(2))

		Expect(do(http.MethodPost, "/api/v1/auth/logout", nil, token).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/api/v1/admin/me", nil, token).Code).To(Equal(http.StatusUnauthorized))
	})
})

func jsonInt(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
