package formflow_test

import (
	"reflect"

	. "github.com/gunndabad/formflow-sub000"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type InstanceID", func() {
	var (
		desc Descriptor
		data *RequestData
	)

	BeforeEach(func() {
		desc = Descriptor{
			Name:          "myjourney",
			StateType:     reflect.TypeOf(wizardState{}),
			DependentKeys: []string{"id", "subid"},
		}

		data = NewRequestData()
		data.Add("id", "42")
		data.Add("subid", "69")
	})

	Describe("func NewInstanceID()", func() {
		It("produces the same identifier for the same inputs", func() {
			a, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			b, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(a.Equal(b)).To(BeTrue())
			Expect(a.String()).To(Equal(b.String()))
		})

		It("serializes keys in descriptor order", func() {
			id, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(id.String()).To(Equal("myjourney?id=42&subid=69"))
		})

		It("produces a different identifier when the key order differs", func() {
			a, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			desc.DependentKeys = []string{"subid", "id"}

			b, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(b.String()).To(Equal("myjourney?subid=69&id=42"))
			Expect(a.Equal(b)).To(BeFalse())
		})

		It("preserves the order of multi-valued keys", func() {
			data.Add("subid", "70")

			id, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(id.String()).To(Equal("myjourney?id=42&subid=69&subid=70"))
		})

		It("URL-encodes the journey name and values", func() {
			desc.Name = "my journey"
			data.Set("subid", "a&b=c")

			id, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(id.String()).To(Equal("my+journey?id=42&subid=a%26b%3Dc"))
		})

		It("returns a MissingDependentKeyError if a dependent key is absent", func() {
			desc.DependentKeys = []string{"id", "missing"}

			_, err := NewInstanceID(desc, data)
			Expect(err).To(Equal(
				MissingDependentKeyError{
					JourneyName: "myjourney",
					Key:         "missing",
				},
			))
		})

		When("the journey requires a unique token", func() {
			BeforeEach(func() {
				desc.RequiresUniqueToken = true
			})

			It("appends a fresh token after the dependent keys", func() {
				id, err := NewInstanceID(desc, data)
				Expect(err).ShouldNot(HaveOccurred())

				tok, ok := id.UniqueToken()
				Expect(ok).To(BeTrue())
				Expect(tok).NotTo(BeEmpty())

				Expect(id.String()).To(HavePrefix("myjourney?id=42&subid=69&uniqueKey="))
			})

			It("mints distinct tokens on each invocation", func() {
				a, err := NewInstanceID(desc, data)
				Expect(err).ShouldNot(HaveOccurred())

				b, err := NewInstanceID(desc, data)
				Expect(err).ShouldNot(HaveOccurred())

				Expect(a.Equal(b)).To(BeFalse())
				Expect(a.String()).NotTo(Equal(b.String()))
			})

			It("overrides any token already present in the request data", func() {
				data.Add(UniqueKeyName, "inbound-token")

				id, err := NewInstanceID(desc, data)
				Expect(err).ShouldNot(HaveOccurred())

				tok, ok := id.UniqueToken()
				Expect(ok).To(BeTrue())
				Expect(tok).NotTo(Equal("inbound-token"))
			})
		})
	})

	Describe("func ResolveInstanceID()", func() {
		It("recovers the identifier from complete request data", func() {
			id, ok := ResolveInstanceID(desc, data)
			Expect(ok).To(BeTrue())
			Expect(id.String()).To(Equal("myjourney?id=42&subid=69"))
		})

		It("returns false if a dependent key is absent", func() {
			desc.DependentKeys = []string{"id", "missing"}

			_, ok := ResolveInstanceID(desc, data)
			Expect(ok).To(BeFalse())
		})

		When("the journey requires a unique token", func() {
			BeforeEach(func() {
				desc.RequiresUniqueToken = true
			})

			It("reads the token from the request data", func() {
				data.Add(UniqueKeyName, "inbound-token")

				id, ok := ResolveInstanceID(desc, data)
				Expect(ok).To(BeTrue())

				tok, ok := id.UniqueToken()
				Expect(ok).To(BeTrue())
				Expect(tok).To(Equal("inbound-token"))
			})

			It("returns false if the token is absent", func() {
				_, ok := ResolveInstanceID(desc, data)
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("func ParseInstanceID()", func() {
		It("round-trips the canonical form", func() {
			desc.RequiresUniqueToken = true

			id, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			parsed, err := ParseInstanceID(id.String())
			Expect(err).ShouldNot(HaveOccurred())

			Expect(parsed.Equal(id)).To(BeTrue())
			Expect(parsed.String()).To(Equal(id.String()))
		})

		It("parses an identifier with no key/value pairs", func() {
			id, err := ParseInstanceID("myjourney")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(id.JourneyName()).To(Equal("myjourney"))
		})

		It("rejects malformed identifiers", func() {
			_, err := ParseInstanceID("my%zzjourney?id=1")
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("func Equal()", func() {
		It("treats identifiers for different journeys as unequal", func() {
			a, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			desc.Name = "otherjourney"
			b, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(a.Equal(b)).To(BeFalse())
		})

		It("treats identifiers with different values as unequal", func() {
			a, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			data.Set("subid", "70")
			b, err := NewInstanceID(desc, data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(a.Equal(b)).To(BeFalse())
		})
	})
})
