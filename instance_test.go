package formflow_test

import (
	"context"
	"errors"
	"reflect"
	"time"

	. "github.com/gunndabad/formflow-sub000"
	"github.com/gunndabad/formflow-sub000/persistence/memorypersistence"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Instance", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		store  *countingStore
		prov   *Provider
		rctx   *RequestContext
		inst   *Instance
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		store = &countingStore{
			Next: &memorypersistence.Store{},
		}

		m, err := NewMarshaler(
			reflect.TypeOf(wizardState{}),
			reflect.TypeOf(surveyState{}),
		)
		Expect(err).ShouldNot(HaveOccurred())

		prov = New(store, m)

		err = prov.Register(Descriptor{
			Name:          "wiz",
			StateType:     reflect.TypeOf(wizardState{}),
			DependentKeys: []string{"id"},
		})
		Expect(err).ShouldNot(HaveOccurred())

		data := NewRequestData()
		data.Add("id", "7")

		rctx = &RequestContext{
			JourneyName: "wiz",
			Data:        data,
		}

		inst, err = prov.CreateInstance(
			ctx,
			rctx,
			wizardState{Answer: 1},
			map[string]string{"origin": "test"},
		)
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func UpdateState()", func() {
		It("persists the new state", func() {
			err := inst.UpdateState(ctx, wizardState{Answer: 2})
			Expect(err).ShouldNot(HaveOccurred())

			Expect(inst.State()).To(Equal(wizardState{Answer: 2}))

			// A fresh request must observe the persisted payload.
			other := &RequestContext{
				JourneyName: "wiz",
				Data:        rctx.Data,
			}

			resolved, ok, err := prov.TryResolveExistingInstance(ctx, other)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(resolved.State()).To(Equal(wizardState{Answer: 2}))
		})

		It("rejects a state payload of the wrong type", func() {
			err := inst.UpdateState(ctx, surveyState{Question: "?"})
			Expect(err).To(Equal(
				IncompatibleStateTypeError{
					Requested: "formflow_test.surveyState",
					Declared:  "formflow_test.wizardState",
				},
			))
		})

		It("leaves the in-memory state untouched if the store fails", func() {
			store.FailNext = errors.New("<store failure>")

			err := inst.UpdateState(ctx, wizardState{Answer: 2})
			Expect(err).To(MatchError("<store failure>"))

			Expect(inst.State()).To(Equal(wizardState{Answer: 1}))
		})
	})

	Describe("func Complete()", func() {
		It("marks the instance as completed", func() {
			err := inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(inst.Completed()).To(BeTrue())
		})

		It("is idempotent; the store is invoked only once", func() {
			err := inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			// A failure on the next store mutation would surface if Complete()
			// hit the store again.
			store.FailNext = errors.New("<store failure>")

			err = inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			store.FailNext = nil
		})

		It("prevents further state updates", func() {
			err := inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			err = inst.UpdateState(ctx, wizardState{Answer: 2})
			Expect(err).To(Equal(
				InvalidStateError{
					Key: inst.InstanceID().String(),
				},
			))
		})

		It("leaves the state readable", func() {
			err := inst.UpdateState(ctx, wizardState{Answer: 2})
			Expect(err).ShouldNot(HaveOccurred())

			err = inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(inst.State()).To(Equal(wizardState{Answer: 2}))
		})

		It("leaves the completed flag unset if the store fails", func() {
			store.FailNext = errors.New("<store failure>")

			err := inst.Complete(ctx)
			Expect(err).To(MatchError("<store failure>"))

			Expect(inst.Completed()).To(BeFalse())
		})
	})

	Describe("func Delete()", func() {
		It("removes the persisted entry", func() {
			err := inst.Delete(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(inst.Deleted()).To(BeTrue())

			other := &RequestContext{
				JourneyName: "wiz",
				Data:        rctx.Data,
			}

			_, ok, err := prov.TryResolveExistingInstance(ctx, other)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("is idempotent", func() {
			err := inst.Delete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			err = inst.Delete(ctx)
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("is allowed after completion", func() {
			err := inst.Complete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			err = inst.Delete(ctx)
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("prevents all further mutation, including completion", func() {
			err := inst.Delete(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			err = inst.UpdateState(ctx, wizardState{Answer: 2})
			Expect(err).To(Equal(
				InvalidStateError{
					Key:     inst.InstanceID().String(),
					Deleted: true,
				},
			))

			err = inst.Complete(ctx)
			Expect(err).To(Equal(
				InvalidStateError{
					Key:     inst.InstanceID().String(),
					Deleted: true,
				},
			))
		})
	})

	Describe("func Properties()", func() {
		It("returns the properties established at creation", func() {
			Expect(inst.Properties()).To(Equal(
				map[string]string{"origin": "test"},
			))
		})

		It("returns a copy", func() {
			p := inst.Properties()
			p["origin"] = "mutated"

			Expect(inst.Properties()).To(Equal(
				map[string]string{"origin": "test"},
			))
		})
	})

	Describe("func State()", func() {
		It("returns the typed state payload", func() {
			s, err := State[wizardState](inst)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(s).To(Equal(wizardState{Answer: 1}))
		})

		It("rejects a request for the wrong type", func() {
			_, err := State[surveyState](inst)
			Expect(err).To(Equal(
				IncompatibleStateTypeError{
					Requested: "formflow_test.surveyState",
					Declared:  "formflow_test.wizardState",
				},
			))
		})
	})
})
