package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/frahmantamala/grievance-portal/internal/store/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

type deadlineRecorder struct {
	*memory.Store
	sawDeadline bool
}

func (d *deadlineRecorder) Read(ctx context.Context, collection string) ([]json.RawMessage, error) {
	_, d.sawDeadline = ctx.Deadline()
	return d.Store.Read(ctx, collection)
}

type watchingAdapter struct {
	*memory.Store
}

func (watchingAdapter) Watch(context.Context, func(store.Change)) error { return nil }

type sample struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var _ = Describe("Timed", func() {
	It("runs each operation under a deadline", func() {
		recorder := &deadlineRecorder{Store: memory.NewStore()}
		timed := store.WithOpTimeout(recorder, time.Second)

		_, err := timed.Read(context.Background(), store.CollectionGrievances)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.sawDeadline).To(BeTrue())
	})

	It("finds a watcher behind the wrapper", func() {
		timed := store.WithOpTimeout(watchingAdapter{Store: memory.NewStore()}, time.Second)
		_, ok := store.WatcherOf(timed)
		Expect(ok).To(BeTrue())
	})

	It("reports no watcher for plain backends", func() {
		_, ok := store.WatcherOf(store.WithOpTimeout(memory.NewStore(), 0))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("codec helpers", func() {
	It("round-trips typed values", func() {
		raw, err := store.EncodeAll([]sample{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}})
		Expect(err).NotTo(HaveOccurred())

		decoded, err := store.DecodeAll[sample](raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal([]sample{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))
	})

	It("names the broken record", func() {
		_, err := store.DecodeAll[sample]([]json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`nope`)})
		Expect(err).To(MatchError(ContainSubstring("decode record 1")))
	})
})

var _ = Describe("error wrapping", func() {
	It("classifies failures as store errors", func() {
		s := memory.NewStore()
		s.FailWith = errors.New("disk full")

		_, err := s.Append(context.Background(), store.CollectionAdmins, json.RawMessage(`{}`))
		Expect(internal.IsType(err, internal.ErrorTypeStore)).To(BeTrue())
		Expect(errors.Unwrap(err)).To(MatchError("disk full"))
	})
})
