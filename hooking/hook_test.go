package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type posOnlyHook struct {
	positions []*HookPos
	calls     []*HookPos
}

func (h *posOnlyHook) Func(ctx HookCtx) {
	h.calls = append(h.calls, ctx.Pos)
}

func (h *posOnlyHook) Positions() []*HookPos {
	return h.positions
}

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
		posA     *HookPos
		posB     *HookPos
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = &HookableBase{}
		posA = &HookPos{Name: "A"}
		posB = &HookPos{Name: "B"}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		ctx := HookCtx{Pos: posA, Item: 42}

		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		base.AcceptHook(first)
		base.AcceptHook(second)
		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(HaveLen(2))
	})

	It("should panic when the same hook is registered twice", func() {
		hook := NewMockHook(mockCtrl)
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("should only invoke filtered hooks at their positions", func() {
		hook := &posOnlyHook{positions: []*HookPos{posB}}
		base.AcceptHook(hook)

		base.InvokeHook(HookCtx{Pos: posA})
		base.InvokeHook(HookCtx{Pos: posB})
		base.InvokeHook(HookCtx{Pos: posA})

		Expect(hook.calls).To(Equal([]*HookPos{posB}))
	})

	It("should wrap functions as distinct hooks", func() {
		count := 0
		f := func(HookCtx) { count++ }

		base.AcceptHook(NewFuncHook(f))
		base.AcceptHook(NewFuncHook(f))
		base.InvokeHook(HookCtx{Pos: posA})

		Expect(count).To(Equal(2))
	})
})
