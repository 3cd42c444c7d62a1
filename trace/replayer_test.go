package trace

import (
	"bytes"
	"math/rand"
	"slices"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Replayer", func() {
	var (
		mockCtrl *gomock.Controller
		accessor *MockAccessor
		replayer *Replayer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		accessor = NewMockAccessor(mockCtrl)
		replayer = NewReplayer(accessor)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should access once for a load", func() {
		accessor.EXPECT().Access(uint64(0x10)).Return(cache.Miss)

		results := replayer.ReplayEvent(Event{KindLoad, 0x10, 1})

		Expect(results).To(Equal([]cache.AccessResult{cache.Miss}))
		Expect(replayer.Summary()).To(Equal(Summary{Loads: 1, Accesses: 1}))
	})

	It("should access once for a store", func() {
		accessor.EXPECT().Access(uint64(0x10)).Return(cache.Hit)

		results := replayer.ReplayEvent(Event{KindStore, 0x10, 1})

		Expect(results).To(Equal([]cache.AccessResult{cache.Hit}))
		Expect(replayer.Summary()).To(Equal(Summary{Stores: 1, Accesses: 1}))
	})

	It("should access the same address twice for a modify", func() {
		gomock.InOrder(
			accessor.EXPECT().Access(uint64(0x20)).Return(cache.MissWithEviction),
			accessor.EXPECT().Access(uint64(0x20)).Return(cache.Hit),
		)

		results := replayer.ReplayEvent(Event{KindModify, 0x20, 4})

		Expect(results).To(Equal(
			[]cache.AccessResult{cache.MissWithEviction, cache.Hit}))
		Expect(replayer.Summary()).To(Equal(Summary{Modifies: 1, Accesses: 2}))
	})

	It("should ignore instructions and unknown kinds", func() {
		Expect(replayer.ReplayEvent(Event{KindInstruction, 0x400, 8})).To(BeNil())
		Expect(replayer.ReplayEvent(Event{Kind('X'), 0x400, 8})).To(BeNil())

		Expect(replayer.Summary()).To(Equal(Summary{Instructions: 1, Others: 1}))
		Expect(replayer.Summary().Events()).To(Equal(uint64(2)))
	})

	It("should invoke hooks for data references only", func() {
		var items []Replayed
		replayer.AcceptHook(hooking.NewFuncHook(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosEventReplayed))
			Expect(ctx.Domain).To(BeIdenticalTo(replayer))
			items = append(items, ctx.Item.(Replayed))
		}))
		accessor.EXPECT().Access(gomock.Any()).Return(cache.Miss).Times(3)

		replayer.Replay(slices.Values([]Event{
			{KindInstruction, 0x400, 8},
			{KindLoad, 0x10, 1},
			{KindModify, 0x20, 1},
		}))

		Expect(items).To(HaveLen(2))
		Expect(items[0].Event.Kind).To(Equal(KindLoad))
		Expect(items[1].Results).To(HaveLen(2))
	})

	Context("with a real cache", func() {
		var engine *cache.Engine

		BeforeEach(func() {
			engine = cache.MakeBuilder().
				WithSetBits(1).
				WithWayAssociativity(1).
				WithBlockBits(1).
				Build("Cache")
			replayer = NewReplayer(engine)
		})

		It("should turn a modify of a new block into a miss and a hit", func() {
			results := replayer.ReplayEvent(Event{KindModify, 0x40, 4})

			Expect(results).To(Equal([]cache.AccessResult{cache.Miss, cache.Hit}))
			Expect(engine.Stats()).To(Equal(cache.Statistics{Hits: 1, Misses: 1}))
		})

		It("should count an eviction by a modify once", func() {
			replayer.ReplayEvent(Event{KindLoad, 0x0, 1})

			// 0x4 maps to set 0 with another tag.
			results := replayer.ReplayEvent(Event{KindModify, 0x4, 1})

			Expect(results).To(Equal(
				[]cache.AccessResult{cache.MissWithEviction, cache.Hit}))
			Expect(engine.Stats()).To(Equal(
				cache.Statistics{Hits: 1, Misses: 2, Evictions: 1}))
		})

		It("should replay the two-set example", func() {
			r := NewReader("t", strings.NewReader(" L 0,1\n L 2,1\n L 0,1\n"))

			replayer.Replay(r.Events())

			Expect(engine.Stats()).To(Equal(cache.Statistics{Hits: 1, Misses: 2}))
		})

		It("should replay the single-line example", func() {
			engine = cache.MakeBuilder().
				WithSetBits(0).
				WithWayAssociativity(1).
				WithBlockBits(0).
				Build("Cache")
			replayer = NewReplayer(engine)
			r := NewReader("t", strings.NewReader(" L 0,1\n L 1,1\n L 2,1\n"))

			replayer.Replay(r.Events())

			Expect(engine.Stats()).To(Equal(
				cache.Statistics{Hits: 0, Misses: 3, Evictions: 2}))
		})

		It("should issue one access per load or store and two per modify", func() {
			engine = cache.MakeBuilder().
				WithSetBits(2).
				WithWayAssociativity(2).
				WithBlockBits(3).
				Build("Cache")
			replayer = NewReplayer(engine)

			rnd := rand.New(rand.NewSource(7))
			kinds := []Kind{KindLoad, KindStore, KindModify, KindInstruction}
			events := make([]Event, 0, 5000)
			for i := 0; i < 5000; i++ {
				events = append(events, Event{
					Kind:    kinds[rnd.Intn(len(kinds))],
					Address: uint64(rnd.Intn(512)),
					Size:    1,
				})
			}

			summary := replayer.Replay(slices.Values(events))
			stats := engine.Stats()

			Expect(summary.Accesses).To(Equal(
				summary.Loads + summary.Stores + 2*summary.Modifies))
			Expect(stats.Hits + stats.Misses).To(Equal(summary.Accesses))
			Expect(summary.Events()).To(Equal(uint64(5000)))
		})
	})
})

var _ = Describe("VerbosePrinter", func() {
	It("should print each reference with its outcomes", func() {
		buf := &bytes.Buffer{}
		engine := cache.MakeBuilder().
			WithSetBits(0).
			WithWayAssociativity(1).
			WithBlockBits(4).
			Build("Cache")
		replayer := NewReplayer(engine)
		replayer.AcceptHook(NewVerbosePrinter(buf))

		r := NewReader("t", strings.NewReader(
			"I  0400d7d4,8\n L 10,1\n M 20,1\n S 18,1\n"))
		replayer.Replay(r.Events())

		Expect(buf.String()).To(Equal(
			"L 10,1 miss\n" +
				"M 20,1 miss eviction hit\n" +
				"S 18,1 miss eviction\n"))
	})
})
