package formflow_test

import (
	"reflect"

	. "github.com/gunndabad/formflow-sub000"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Descriptor", func() {
	var desc Descriptor

	BeforeEach(func() {
		desc = Descriptor{
			Name:          "myjourney",
			StateType:     reflect.TypeOf(wizardState{}),
			DependentKeys: []string{"id", "subid"},
		}
	})

	Describe("func Validate()", func() {
		It("accepts a valid descriptor", func() {
			Expect(desc.Validate()).ShouldNot(HaveOccurred())
		})

		It("accepts a descriptor with no dependent keys", func() {
			desc.DependentKeys = nil
			Expect(desc.Validate()).ShouldNot(HaveOccurred())
		})

		It("rejects an empty name", func() {
			desc.Name = ""
			Expect(desc.Validate()).Should(HaveOccurred())
		})

		It("rejects a nil state type", func() {
			desc.StateType = nil
			Expect(desc.Validate()).Should(HaveOccurred())
		})

		It("rejects duplicate dependent keys", func() {
			desc.DependentKeys = []string{"id", "id"}
			err := desc.Validate()
			Expect(err).To(MatchError(ContainSubstring("duplicate dependent key 'id'")))
		})

		It("rejects a dependent key that collides with the unique token key", func() {
			desc.DependentKeys = []string{"id", UniqueKeyName}
			err := desc.Validate()
			Expect(err).To(MatchError(ContainSubstring("reserved")))
		})

		It("reports every problem at once", func() {
			desc.Name = ""
			desc.StateType = nil
			desc.DependentKeys = []string{"id", "id"}

			err := desc.Validate()
			Expect(err).To(MatchError(ContainSubstring("name")))
			Expect(err).To(MatchError(ContainSubstring("state type")))
			Expect(err).To(MatchError(ContainSubstring("duplicate")))
		})
	})
})

var _ = Describe("type Registry", func() {
	var (
		reg  *Registry
		desc Descriptor
	)

	BeforeEach(func() {
		reg = &Registry{}
		desc = Descriptor{
			Name:          "myjourney",
			StateType:     reflect.TypeOf(wizardState{}),
			DependentKeys: []string{"id"},
		}
	})

	Describe("func Register()", func() {
		It("indexes the descriptor by name", func() {
			Expect(reg.Register(desc)).ShouldNot(HaveOccurred())

			d, ok := reg.Get("myjourney")
			Expect(ok).To(BeTrue())
			Expect(d.Name).To(Equal("myjourney"))
		})

		It("rejects an invalid descriptor", func() {
			desc.Name = ""
			Expect(reg.Register(desc)).Should(HaveOccurred())
		})

		It("rejects a duplicate name", func() {
			Expect(reg.Register(desc)).ShouldNot(HaveOccurred())

			err := reg.Register(desc)
			Expect(err).To(MatchError(ContainSubstring("already registered")))
		})

		It("is not affected by later mutation of the caller's key slice", func() {
			keys := []string{"id"}
			desc.DependentKeys = keys
			Expect(reg.Register(desc)).ShouldNot(HaveOccurred())

			keys[0] = "mutated"

			d, _ := reg.Get("myjourney")
			Expect(d.DependentKeys).To(Equal([]string{"id"}))
		})
	})

	Describe("func Get()", func() {
		It("returns false for an unregistered name", func() {
			_, ok := reg.Get("unknown")
			Expect(ok).To(BeFalse())
		})
	})
})
