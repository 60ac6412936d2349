// Package storetest provides a behavioral test suite that every
// persistence.Store implementation must pass.
package storetest

import (
	"context"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/persistence"
	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
)

// Out is a container for values that are provided by the store-specific
// "before" function to the test-suite.
type Out struct {
	// Store is the store to be tested.
	Store persistence.Store

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration
}

// DefaultTestTimeout is the default test timeout.
const DefaultTestTimeout = 3 * time.Second

// Declare declares generic behavioral tests for a specific store
// implementation.
func Declare(
	before func(context.Context) Out,
	after func(),
) {
	var (
		ctx    context.Context
		cancel func()
		out    Out

		entry persistence.Entry
	)

	ginkgo.BeforeEach(func() {
		setupCtx, cancelSetup := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSetup()

		out = before(setupCtx)

		if out.TestTimeout <= 0 {
			out.TestTimeout = DefaultTestTimeout
		}

		ctx, cancel = context.WithTimeout(context.Background(), out.TestTimeout)

		entry = persistence.Entry{
			JourneyName: "<journey>",
			Key:         "%3Cjourney%3E?id=7&uniqueKey=%3Ctoken%3E",
			StateType:   "<state-type>",
			State: marshalkit.Packet{
				MediaType: "application/json; type=%3Cstate-type%3E",
				Data:      []byte(`{"answer":42}`),
			},
			Properties: map[string]string{
				"<prop-key>": "<prop-value>",
			},
		}
	})

	ginkgo.AfterEach(func() {
		if after != nil {
			after()
		}

		if cancel != nil {
			cancel()
			cancel = nil
		}
	})

	ginkgo.Describe("func CreateInstance()", func() {
		ginkgo.It("persists an entry that can be loaded again", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			e, ok, err := out.Store.LoadInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(e).To(gomega.Equal(entry))
		})

		ginkgo.It("returns an AlreadyExistsError if the key is already in use", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).To(gomega.Equal(
				persistence.AlreadyExistsError{Key: entry.Key},
			))
		})

		ginkgo.It("does not conflate entries with different keys", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			other := entry
			other.Key = "%3Cjourney%3E?id=8"
			other.Properties = map[string]string{}

			err = out.Store.CreateInstance(ctx, other)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			e, ok, err := out.Store.LoadInstance(ctx, other.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(e).To(gomega.Equal(other))
		})
	})

	ginkgo.Describe("func LoadInstance()", func() {
		ginkgo.It("returns false if no entry exists", func() {
			_, ok, err := out.Store.LoadInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("func SaveState()", func() {
		ginkgo.It("replaces the state payload without touching anything else", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			state := marshalkit.Packet{
				MediaType: entry.State.MediaType,
				Data:      []byte(`{"answer":43}`),
			}

			err = out.Store.SaveState(ctx, entry.Key, state)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			expect := entry
			expect.State = state

			e, ok, err := out.Store.LoadInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(e).To(gomega.Equal(expect))
		})

		ginkgo.It("returns a NotFoundError if no entry exists", func() {
			err := out.Store.SaveState(ctx, entry.Key, entry.State)
			gomega.Expect(err).To(gomega.Equal(
				persistence.NotFoundError{Key: entry.Key},
			))
		})
	})

	ginkgo.Describe("func CompleteInstance()", func() {
		ginkgo.It("marks the entry as completed", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Store.CompleteInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			e, ok, err := out.Store.LoadInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(e.Completed).To(gomega.BeTrue())
		})

		ginkgo.It("returns a NotFoundError if no entry exists", func() {
			err := out.Store.CompleteInstance(ctx, entry.Key)
			gomega.Expect(err).To(gomega.Equal(
				persistence.NotFoundError{Key: entry.Key},
			))
		})
	})

	ginkgo.Describe("func DeleteInstance()", func() {
		ginkgo.It("removes the entry", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Store.DeleteInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			_, ok, err := out.Store.LoadInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("allows the key to be reused", func() {
			err := out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Store.DeleteInstance(ctx, entry.Key)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Store.CreateInstance(ctx, entry)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		})

		ginkgo.It("returns a NotFoundError if no entry exists", func() {
			err := out.Store.DeleteInstance(ctx, entry.Key)
			gomega.Expect(err).To(gomega.Equal(
				persistence.NotFoundError{Key: entry.Key},
			))
		})
	})
}
