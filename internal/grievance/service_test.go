package grievance_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/store/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGrievance(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Grievance Suite")
}

type countingMetrics struct {
	mu  sync.Mutex
	ops map[string]int
}

func (m *countingMetrics) IncGrievanceMutation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
}

func (m *countingMetrics) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops[op]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func pothole() grievance.SubmitDTO {
	return grievance.SubmitDTO{
		Title:           "Pothole",
		Authority:       "Roads",
		ReporterContact: "9876543210",
	}
}

var _ = Describe("Grievance Service", func() {
	var (
		backend *memory.Store
		bus     *events.EventBus
		metrics *countingMetrics
		service *grievance.Service
		ctx     context.Context
		now     time.Time
	)

	BeforeEach(func() {
		backend = memory.NewStore()
		bus = events.NewEventBus(testLogger())
		metrics = &countingMetrics{ops: map[string]int{}}
		now = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
		service = grievance.NewService(backend, bus, metrics, testLogger()).
			WithClock(func() time.Time { return now })
		ctx = context.Background()
	})

	Describe("Submit", func() {
		It("creates a pending grievance with no votes", func() {
			g, key, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())
			Expect(key).NotTo(BeEmpty())
			Expect(g.Status).To(Equal(grievance.StatusPending))
			Expect(g.Votes).To(BeZero())
			Expect(g.Notes).To(BeEmpty())
			Expect(g.Notes).NotTo(BeNil())
			Expect(g.DateReported).To(Equal("2024-05-17"))
			Expect(g.ID).To(Equal(now.UnixMilli()))
			Expect(metrics.count(grievance.OpSubmit)).To(Equal(1))
		})

		It("accepts a submission without a photo and keeps a data uri photo", func() {
			g, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Photo).To(BeEmpty())

			withPhoto := pothole()
			withPhoto.Photo = "data:image/png;base64,iVBORw0KGgo="
			g, _, err = service.Submit(ctx, withPhoto)
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Photo).To(Equal(withPhoto.Photo))
		})

		It("gives unique ids to submissions in the same millisecond", func() {
			seen := map[int64]bool{}
			for i := 0; i < 5; i++ {
				g, _, err := service.Submit(ctx, pothole())
				Expect(err).NotTo(HaveOccurred())
				Expect(seen).NotTo(HaveKey(g.ID))
				seen[g.ID] = true
			}
		})

		It("stays ahead of ids already in the store", func() {
			g1, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())

			restarted := grievance.NewService(backend, bus, metrics, testLogger()).
				WithClock(func() time.Time { return now })
			g2, _, err := restarted.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())
			Expect(g2.ID).To(BeNumerically(">", g1.ID))
		})

		DescribeTable("rejects invalid input",
			func(mutate func(*grievance.SubmitDTO), field string) {
				dto := pothole()
				mutate(&dto)
				_, _, err := service.Submit(ctx, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				details := appErr.Details.(internal.ValidationErrors)
				Expect(details.Errors[0].Field).To(Equal(field))
			},
			Entry("missing title", func(d *grievance.SubmitDTO) { d.Title = "" }, "title"),
			Entry("missing authority", func(d *grievance.SubmitDTO) { d.Authority = " " }, "authority"),
			Entry("short contact", func(d *grievance.SubmitDTO) { d.ReporterContact = "12345" }, "reporterContact"),
			Entry("name with digits", func(d *grievance.SubmitDTO) { d.ReporterName = "Agent 47" }, "reporterName"),
			Entry("photo not a data uri", func(d *grievance.SubmitDTO) { d.Photo = "http://x/y.png" }, "photo"),
		)

		It("does not store rejected submissions", func() {
			dto := pothole()
			dto.ReporterContact = ""
			_, _, err := service.Submit(ctx, dto)
			Expect(err).To(HaveOccurred())

			all, err := service.List(ctx, grievance.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})

		It("propagates store failures", func() {
			backend.FailWith = errors.New("offline")
			_, _, err := service.Submit(ctx, pothole())
			Expect(internal.IsType(err, internal.ErrorTypeStore)).To(BeTrue())
		})
	})

	Describe("the pothole scenario", func() {
		It("submits, upvotes twice and resolves", func() {
			g, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())

			listed, err := service.List(ctx, grievance.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].Status).To(Equal(grievance.StatusPending))
			Expect(listed[0].Votes).To(BeZero())

			_, err = service.Upvote(ctx, g.ID)
			Expect(err).NotTo(HaveOccurred())
			upvoted, err := service.Upvote(ctx, g.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(upvoted.Votes).To(Equal(2))

			_, err = service.UpdateStatus(ctx, g.ID, "Resolved")
			Expect(err).NotTo(HaveOccurred())

			resolved, err := service.List(ctx, grievance.Filter{Status: "Resolved"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(HaveLen(1))
			Expect(resolved[0].ID).To(Equal(g.ID))
			Expect(resolved[0].Votes).To(Equal(2))
		})
	})

	Describe("List", func() {
		var ids []int64

		BeforeEach(func() {
			ids = nil
			for _, authority := range []string{"Roads", "Water", "Roads", "Electricity"} {
				dto := pothole()
				dto.Authority = authority
				g, _, err := service.Submit(ctx, dto)
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, g.ID)
			}
			_, err := service.UpdateStatus(ctx, ids[2], "Resolved")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateStatus(ctx, ids[1], "In Progress")
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps insertion order", func() {
			all, err := service.List(ctx, grievance.Filter{Status: "all", Authority: "all"})
			Expect(err).NotTo(HaveOccurred())
			got := make([]int64, 0, len(all))
			for _, g := range all {
				got = append(got, g.ID)
			}
			Expect(got).To(Equal(ids))
		})

		It("filters by authority", func() {
			roads, err := service.List(ctx, grievance.Filter{Authority: "Roads"})
			Expect(err).NotTo(HaveOccurred())
			Expect(roads).To(HaveLen(2))
		})

		It("filters by status and authority together", func() {
			res, err := service.List(ctx, grievance.Filter{Status: "Resolved", Authority: "Roads"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(HaveLen(1))
			Expect(res[0].ID).To(Equal(ids[2]))
		})

		It("matches case-sensitively", func() {
			res, err := service.List(ctx, grievance.Filter{Authority: "roads"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(BeEmpty())
		})

		It("counts by status", func() {
			stats, err := service.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(grievance.Stats{Total: 4, Pending: 2, InProgress: 1, Resolved: 1}))
		})
	})

	Describe("unknown ids", func() {
		It("ignores upvotes", func() {
			g, err := service.Upvote(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(BeNil())
			Expect(metrics.count(grievance.OpUpvote)).To(BeZero())
		})

		It("ignores status changes", func() {
			g, err := service.UpdateStatus(ctx, 42, "Resolved")
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(BeNil())
		})

		It("ignores notes", func() {
			g, err := service.AppendNote(ctx, 42, "checked")
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(BeNil())
		})
	})

	Describe("UpdateStatus", func() {
		It("rejects unknown statuses", func() {
			g, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, g.ID, "Closed")
			Expect(err).To(MatchError(internal.ErrInvalidStatus))
		})

		It("publishes a status change event", func() {
			g, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())

			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeGrievanceStatusChanged, func(_ context.Context, e events.Event) error {
				received <- e
				return nil
			})

			_, err = service.UpdateStatus(ctx, g.ID, "In Progress")
			Expect(err).NotTo(HaveOccurred())

			var e events.Event
			Eventually(received).Should(Receive(&e))
			changed := e.(*events.GrievanceStatusChangedEvent)
			Expect(changed.From).To(Equal("Pending"))
			Expect(changed.To).To(Equal("In Progress"))
		})
	})

	Describe("AppendNote", func() {
		It("appends notes in order", func() {
			g, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AppendNote(ctx, g.ID, "crew assigned")
			Expect(err).NotTo(HaveOccurred())
			updated, err := service.AppendNote(ctx, g.ID, "  patched  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Notes).To(Equal([]string{"crew assigned", "patched"}))
		})

		It("rejects empty notes", func() {
			_, err := service.AppendNote(ctx, 1, "   ")
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("ClearAll", func() {
		BeforeEach(func() {
			_, _, err := service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())
			_, _, err = service.Submit(ctx, pothole())
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("needs both confirmations",
			func(confirm grievance.ClearConfirmation) {
				_, err := service.ClearAll(ctx, confirm)
				Expect(err).To(MatchError(internal.ErrClearNotConfirmed))

				all, err := service.List(ctx, grievance.Filter{})
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(HaveLen(2))
			},
			Entry("neither", grievance.ClearConfirmation{}),
			Entry("first only", grievance.ClearConfirmation{First: true}),
			Entry("second only", grievance.ClearConfirmation{Second: true}),
		)

		It("removes everything when confirmed twice", func() {
			removed, err := service.ClearAll(ctx, grievance.ClearConfirmation{First: true, Second: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(2))

			all, err := service.List(ctx, grievance.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
			Expect(metrics.count(grievance.OpClear)).To(Equal(1))
		})
	})
})

var _ = Describe("IDGenerator", func() {
	It("is strictly increasing under a frozen clock", func() {
		frozen := time.UnixMilli(1_700_000_000_000)
		gen := grievance.NewIDGenerator(func() time.Time { return frozen })
		Expect(gen.Next()).To(Equal(int64(1_700_000_000_000)))
		Expect(gen.Next()).To(Equal(int64(1_700_000_000_001)))
	})

	It("is safe for concurrent use", func() {
		gen := grievance.NewIDGenerator(nil)
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[int64]bool{}
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := gen.Next()
				mu.Lock()
				ids[id] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		Expect(ids).To(HaveLen(50))
	})
})
