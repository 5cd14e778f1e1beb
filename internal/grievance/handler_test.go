package grievance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/store/memory"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Grievance Handler", func() {
	var (
		service  *grievance.Service
		sessions *session.Manager
		router   *chi.Mux
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

	login := func(department string) string {
		_, token, err := sessions.Create("tester", department, "tester@gov.in")
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	submit := func(authority string) *grievance.Grievance {
		dto := pothole()
		dto.Authority = authority
		g, _, err := service.Submit(context.Background(), dto)
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	BeforeEach(func() {
		logger := testLogger()
		service = grievance.NewService(memory.NewStore(), events.NewEventBus(logger), nil, logger)
		sessions = session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, logger)
		base := transport.NewBaseHandler(logger)
		handler := grievance.NewHandler(base, service)

		router = chi.NewRouter()
		router.Post("/grievances", handler.Submit)
		router.Get("/grievances", handler.List)
		router.Get("/stats", handler.Stats)
		router.Post("/grievances/{id}/upvote", handler.Upvote)
		router.Group(func(r chi.Router) {
			r.Use(sessions.RequireSession(base))
			r.Get("/admin/grievances", handler.AdminList)
			r.Patch("/admin/grievances/{id}/status", handler.UpdateStatus)
			r.Post("/admin/grievances/{id}/notes", handler.AppendNote)
			r.Post("/admin/grievances/clear", handler.ClearAll)
		})
	})

	It("accepts a valid submission", func() {
		w := do(http.MethodPost, "/grievances", pothole(), "")
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp grievance.SubmitResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Grievance.Status).To(Equal(grievance.StatusPending))
	})

	It("returns validation details for a bad submission", func() {
		dto := pothole()
		dto.ReporterContact = "123"
		w := do(http.MethodPost, "/grievances", dto, "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("reporterContact"))
	})

	It("rejects a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/grievances", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists with filters from the query string", func() {
		submit("Roads")
		submit("Water")

		w := do(http.MethodGet, "/grievances?authority=Water&status=all", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp grievance.GrievancesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Count).To(Equal(1))
		Expect(resp.Grievances[0].Authority).To(Equal("Water"))
	})

	It("upvotes and answers 404 for unknown ids", func() {
		g := submit("Roads")

		w := do(http.MethodPost, fmt.Sprintf("/grievances/%d/upvote", g.ID), nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPost, "/grievances/1/upvote", nil, "")
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = do(http.MethodPost, "/grievances/abc/upvote", nil, "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("reports stats", func() {
		submit("Roads")
		w := do(http.MethodGet, "/stats", nil, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"total":1,"pending":1,"inProgress":0,"resolved":0}`))
	})

	Describe("admin routes", func() {
		It("require a session", func() {
			w := do(http.MethodGet, "/admin/grievances", nil, "")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("scope the dashboard to the admin's department", func() {
			submit("Roads")
			submit("Water")

			w := do(http.MethodGet, "/admin/grievances?authority=Roads", nil, login("Water"))
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp grievance.GrievancesResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Count).To(Equal(1))
			Expect(resp.Grievances[0].Authority).To(Equal("Water"))
		})

		It("show every department to All admins", func() {
			submit("Roads")
			submit("Water")

			w := do(http.MethodGet, "/admin/grievances", nil, login("All"))
			var resp grievance.GrievancesResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Count).To(Equal(2))
		})

		It("update the status inside the department", func() {
			g := submit("Roads")
			w := do(http.MethodPatch, fmt.Sprintf("/admin/grievances/%d/status", g.ID),
				grievance.StatusUpdateDTO{Status: "In Progress"}, login("Roads"))
			Expect(w.Code).To(Equal(http.StatusOK))

			var updated grievance.Grievance
			Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
			Expect(updated.Status).To(Equal(grievance.StatusInProgress))
		})

		It("refuse changes to another department's grievance", func() {
			g := submit("Roads")
			w := do(http.MethodPatch, fmt.Sprintf("/admin/grievances/%d/status", g.ID),
				grievance.StatusUpdateDTO{Status: "Resolved"}, login("Water"))
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("reject invalid statuses", func() {
			g := submit("Roads")
			w := do(http.MethodPatch, fmt.Sprintf("/admin/grievances/%d/status", g.ID),
				grievance.StatusUpdateDTO{Status: "Done"}, login("Roads"))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("INVALID_STATUS"))
		})

		It("append notes", func() {
			g := submit("Roads")
			w := do(http.MethodPost, fmt.Sprintf("/admin/grievances/%d/notes", g.ID),
				grievance.NoteDTO{Note: "inspected"}, login("All"))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("inspected"))
		})

		It("answer 404 for a missing grievance", func() {
			w := do(http.MethodPost, "/admin/grievances/99/notes", grievance.NoteDTO{Note: "x"}, login("All"))
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("clear only with two confirmations", func() {
			submit("Roads")
			token := login("All")

			w := do(http.MethodPost, "/admin/grievances/clear", map[string]bool{"confirm": true}, token)
			Expect(w.Code).To(Equal(http.StatusBadRequest))

			w = do(http.MethodPost, "/admin/grievances/clear", map[string]bool{"confirm": true, "confirmAgain": true}, token)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"removed":1}`))
		})

		It("refuse to clear for a department admin", func() {
			submit("Water")

			w := do(http.MethodPost, "/admin/grievances/clear",
				grievance.ClearConfirmation{First: true, Second: true}, login("Roads"))
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(ContainSubstring("DEPARTMENT_SCOPE"))

			all, err := service.List(context.Background(), grievance.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})
	})
})
