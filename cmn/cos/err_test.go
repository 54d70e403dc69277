package cos_test

import (
	"errors"

	"github.com/rwthflow/flow/cmn/cos"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errs", func() {
	It("dedupes identical error messages", func() {
		e := &cos.Errs{}
		e.Add(errors.New("boom"))
		e.Add(errors.New("boom"))
		e.Add(errors.New("bang"))
		Expect(e.Cnt()).To(Equal(2))
	})

	It("reports zero count as no error", func() {
		e := &cos.Errs{}
		cnt, err := e.JoinErr()
		Expect(cnt).To(Equal(0))
		Expect(err).To(BeNil())
	})
})

var _ = Describe("ContentHash", func() {
	It("is deterministic", func() {
		h1 := cos.ContentHash([]byte("the quick brown fox"))
		h2 := cos.ContentHash([]byte("the quick brown fox"))
		Expect(h1).To(Equal(h2))
	})

	It("differs for different content", func() {
		h1 := cos.ContentHash([]byte("a"))
		h2 := cos.ContentHash([]byte("b"))
		Expect(h1).NotTo(Equal(h2))
	})
})
