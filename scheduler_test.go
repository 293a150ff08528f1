package epicycle_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/backend"
)

const trailLabel = "epicycle trail"

var twoArms = epicycle.Chain{
	{Radius: 1.0, Velocity: 0.1},
	{Radius: 0.5, Velocity: -0.05},
}

func tickRange(s *epicycle.Scheduler, from, to uint64) {
	GinkgoHelper()
	for f := from; f < to; f++ {
		Expect(s.Tick(f)).To(Succeed())
	}
}

func bufferMatchesMirror(sw *backend.Software, s *epicycle.Scheduler) {
	GinkgoHelper()
	got, err := sw.Contents(s.Vertices())
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(s.Trail().Mirror()))
}

var _ = Describe("Scheduler", func() {
	var (
		ctx  context.Context
		sw   *backend.Software
		host *epicycle.HeadlessHost
	)

	BeforeEach(func() {
		ctx = context.Background()
		sw = backend.NewSoftware(backend.Config{})
		host = epicycle.NewHeadlessHost(640, 480, 0)
	})

	start := func(opts ...epicycle.Option) *epicycle.Scheduler {
		GinkgoHelper()
		s, err := epicycle.NewScheduler(sw, twoArms, opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Start(ctx, host)).To(Succeed())
		return s
	}

	Describe("construction", func() {
		It("rejects a nil backend", func() {
			_, err := epicycle.NewScheduler(nil, twoArms)
			Expect(err).To(MatchError(epicycle.ErrNilBackend))
		})

		It("rejects an empty chain", func() {
			_, err := epicycle.NewScheduler(sw, nil)
			Expect(err).To(MatchError(epicycle.ErrEmptyChain))
		})

		It("rejects a non-positive capacity", func() {
			_, err := epicycle.NewScheduler(sw, twoArms, epicycle.WithCapacity(0))
			Expect(errors.Is(err, epicycle.ErrInvalidCapacity)).To(BeTrue())
		})
	})

	Describe("lifecycle", func() {
		It("walks Uninitialized, Ready and ClosingDown", func() {
			s, err := epicycle.NewScheduler(sw, twoArms)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(epicycle.StateUninitialized))
			Expect(s.Tick(0)).To(MatchError(epicycle.ErrNotStarted))

			Expect(s.Start(ctx, host)).To(Succeed())
			Expect(s.State()).To(Equal(epicycle.StateReady))
			Expect(s.Vertices()).NotTo(BeNil())
			Expect(s.Vertices().Size()).To(Equal(s.Trail().BufferSize()))
			Expect(errors.Is(s.Start(ctx, host), epicycle.ErrInvalidState)).To(BeTrue())

			Expect(s.Close()).To(Succeed())
			Expect(s.State()).To(Equal(epicycle.StateClosingDown))
			Expect(sw.Closed()).To(BeTrue())
			Expect(s.Close()).To(Succeed())
			Expect(s.Tick(1)).To(MatchError(epicycle.ErrClosed))
		})

		It("fails Start when the device cannot be acquired", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			s, err := epicycle.NewScheduler(sw, twoArms)
			Expect(err).NotTo(HaveOccurred())

			err = s.Start(canceled, host)
			Expect(err).To(MatchError(epicycle.ErrFailed))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(s.State()).To(Equal(epicycle.StateFailed))
			Expect(s.Err()).To(Equal(err))
		})

		DescribeTable("state names",
			func(st epicycle.State, want string) {
				Expect(st.String()).To(Equal(want))
			},
			Entry(nil, epicycle.StateUninitialized, "Uninitialized"),
			Entry(nil, epicycle.StateReady, "Ready"),
			Entry(nil, epicycle.StateRendering, "Rendering"),
			Entry(nil, epicycle.StateClosingDown, "ClosingDown"),
			Entry(nil, epicycle.StateFailed, "Failed"),
			Entry(nil, epicycle.State(42), "State(42)"),
		)
	})

	Describe("sampling", func() {
		DescribeTable("appends one record every K frames up to the capacity",
			func(last uint64, k, capacity int) {
				s := start(
					epicycle.WithInterval(k),
					epicycle.WithCapacity(capacity),
					epicycle.WithPolicy(epicycle.PolicyFreeze),
				)
				tickRange(s, 0, last+1)

				want := min(int(last)/k+1, capacity)
				Expect(s.Trail().Cursor()).To(Equal(want))
				Expect(s.Samples()).To(Equal(last/uint64(k) + 1))
				Expect(s.Frames()).To(Equal(last + 1))
			},
			Entry("first frame samples", uint64(0), 8, 100),
			Entry("no sample before K", uint64(7), 8, 100),
			Entry("second sample at K", uint64(8), 8, 100),
			Entry("default interval", uint64(799), 8, 10000),
			Entry("every frame", uint64(49), 1, 100),
			Entry("bounded by capacity", uint64(200), 4, 10),
		)

		It("reproduces the two-arm chain at t = 0..3", func() {
			s := start(
				epicycle.WithInterval(1),
				epicycle.WithCapacity(4),
				epicycle.WithPolicy(epicycle.PolicyFreeze),
			)
			tickRange(s, 0, 4)

			Expect(s.Trail().Cursor()).To(Equal(4))
			for tick := range 4 {
				ft := float64(tick)
				x := 1.0*math.Sin(0.1*ft) + 0.5*math.Sin(-0.05*ft)
				y := 1.0*math.Cos(0.1*ft) + 0.5*math.Cos(-0.05*ft)
				pos := s.Trail().At(tick).Position
				Expect(float64(pos[0])).To(BeNumerically("~", x, 1e-6))
				Expect(float64(pos[1])).To(BeNumerically("~", y, 1e-6))
				Expect(pos[2]).To(BeZero())
			}
			bufferMatchesMirror(sw, s)
		})

		It("is deterministic across schedulers", func() {
			a := start(epicycle.WithInterval(2), epicycle.WithCapacity(50))
			tickRange(a, 0, 120)

			other := backend.NewSoftware(backend.Config{})
			b, err := epicycle.NewScheduler(other, twoArms, epicycle.WithInterval(2), epicycle.WithCapacity(50))
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Start(ctx, host)).To(Succeed())
			tickRange(b, 0, 120)

			Expect(b.Trail().Mirror()).To(Equal(a.Trail().Mirror()))
			Expect(b.Trail().Cursor()).To(Equal(a.Trail().Cursor()))
		})

		It("keeps the cursor in range when frozen", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(3), epicycle.WithPolicy(epicycle.PolicyFreeze))
			for f := range uint64(20) {
				Expect(s.Tick(f)).To(Succeed())
				Expect(s.Trail().Cursor()).To(BeNumerically("<=", 3))
			}
			Expect(s.Trail().Cursor()).To(Equal(3))
		})
	})

	Describe("uploads", func() {
		It("uploads only the record written this frame", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(16), epicycle.WithPolicy(epicycle.PolicyFreeze))
			for f := range uint64(5) {
				before := len(sw.Uploads())
				Expect(s.Tick(f)).To(Succeed())

				ups := sw.Uploads()[before:]
				Expect(ups).To(HaveLen(1))
				Expect(ups[0].Offset).To(Equal(f * epicycle.RecordSize))
				Expect(ups[0].Size).To(BeEquivalentTo(epicycle.RecordSize))
			}
			bufferMatchesMirror(sw, s)
		})

		It("uploads nothing on frames that do not sample", func() {
			s := start(epicycle.WithInterval(8))
			Expect(s.Tick(0)).To(Succeed())
			n := len(sw.Uploads())
			tickRange(s, 1, 8)
			Expect(sw.Uploads()).To(HaveLen(n))
		})

		It("refreshes the seam slot whenever slot 0 is written", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(2))
			Expect(s.Tick(0)).To(Succeed())

			ups := sw.Uploads()
			Expect(ups).To(HaveLen(2))
			Expect(ups[0].Offset).To(BeEquivalentTo(0))
			Expect(ups[1].Offset).To(BeEquivalentTo(2 * epicycle.RecordSize))
		})

		It("leaves the rest of the buffer untouched", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(8), epicycle.WithBaseColor(epicycle.RGB(1, 1, 1)))
			pristine, err := sw.Contents(s.Vertices())
			Expect(err).NotTo(HaveOccurred())

			tickRange(s, 0, 3)
			got, err := sw.Contents(s.Vertices())
			Expect(err).NotTo(HaveOccurred())
			Expect(got[3*epicycle.RecordSize : 8*epicycle.RecordSize]).To(Equal(pristine[3*epicycle.RecordSize : 8*epicycle.RecordSize]))
		})
	})

	Describe("drawing", func() {
		It("draws the live records as one strip", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(10), epicycle.WithPolicy(epicycle.PolicyFreeze))
			tickRange(s, 0, 6)
			Expect(sw.LastDraws()).To(Equal([]backend.Draw{{Label: trailLabel, First: 0, Count: 6}}))
		})

		It("draws a sample taken on a skipped frame on the next one", func() {
			s := start(epicycle.WithInterval(4))
			sw.FailAcquire(backend.ErrTimeout)
			Expect(s.Tick(0)).To(Succeed())
			Expect(sw.Frames()).To(BeZero())
			Expect(s.Tick(1)).To(Succeed())
			Expect(sw.LastDraws()).To(HaveLen(1))
		})

		It("draws a wrapped ring oldest first through the seam", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(2))
			tickRange(s, 0, 3)

			Expect(s.Trail().Cursor()).To(Equal(1))
			Expect(s.Trail().Wrapped()).To(BeTrue())
			Expect(sw.LastDraws()).To(Equal([]backend.Draw{
				{Label: trailLabel, First: 1, Count: 2},
				{Label: trailLabel, First: 0, Count: 1},
			}))
			bufferMatchesMirror(sw, s)
		})
	})

	Describe("resize", func() {
		It("configures the surface from the host on Start", func() {
			start()
			Expect(sw.Configures()).To(Equal([][2]int{{640, 480}}))
		})

		It("ignores zero-area sizes", func() {
			s := start()
			Expect(s.Resize(0, 0)).To(Succeed())
			Expect(s.Resize(0, 300)).To(Succeed())
			Expect(s.Resize(300, 0)).To(Succeed())

			w, h := s.SurfaceSize()
			Expect([]int{w, h}).To(Equal([]int{640, 480}))
			Expect(sw.Configures()).To(HaveLen(1))
		})

		It("reconfigures to a non-zero size", func() {
			s := start()
			Expect(s.Resize(800, 600)).To(Succeed())

			w, h := s.SurfaceSize()
			Expect([]int{w, h}).To(Equal([]int{800, 600}))
			bw, bh := sw.Size()
			Expect([]int{bw, bh}).To(Equal([]int{800, 600}))
		})

		It("uses a size set before Start", func() {
			s, err := epicycle.NewScheduler(sw, twoArms)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Resize(1024, 768)).To(Succeed())
			Expect(s.Start(ctx, host)).To(Succeed())
			Expect(sw.Configures()).To(Equal([][2]int{{1024, 768}}))
		})

		It("defers configuration for a zero-area host", func() {
			host = epicycle.NewHeadlessHost(0, 0, 0)
			s := start()
			Expect(sw.Configures()).To(BeEmpty())

			Expect(s.Resize(320, 200)).To(Succeed())
			Expect(sw.Configures()).To(Equal([][2]int{{320, 200}}))
		})
	})

	Describe("frame errors", func() {
		DescribeTable("reconfigure on a lost or outdated surface",
			func(failAcquire bool, cause error) {
				s := start(epicycle.WithInterval(1), epicycle.WithCapacity(8))
				Expect(s.Resize(800, 600)).To(Succeed())
				if failAcquire {
					sw.FailAcquire(cause)
				} else {
					sw.FailPresent(cause)
				}

				Expect(s.Tick(0)).To(Succeed())
				Expect(s.State()).To(Equal(epicycle.StateReady))
				Expect(s.Reconfigures()).To(BeEquivalentTo(1))
				Expect(sw.Configures()).To(Equal([][2]int{{640, 480}, {800, 600}, {800, 600}}))

				Expect(s.Tick(1)).To(Succeed())
				Expect(s.Pending()).To(BeZero())
				bufferMatchesMirror(sw, s)
			},
			Entry("lost on acquire", true, backend.ErrSurfaceLost),
			Entry("outdated on acquire", true, backend.ErrSurfaceOutdated),
			Entry("lost on present", false, backend.ErrSurfaceLost),
			Entry("outdated on present", false, backend.ErrSurfaceOutdated),
		)

		It("keeps samples pending across a lost frame", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(8), epicycle.WithPolicy(epicycle.PolicyFreeze))
			sw.FailAcquire(backend.ErrSurfaceLost, backend.ErrSurfaceLost)

			Expect(s.Tick(0)).To(Succeed())
			Expect(s.Tick(1)).To(Succeed())
			Expect(s.Pending()).To(Equal(2))
			Expect(sw.Uploads()).To(BeEmpty())

			Expect(s.Tick(2)).To(Succeed())
			Expect(s.Pending()).To(BeZero())
			Expect(sw.Uploads()).To(HaveLen(3))
			bufferMatchesMirror(sw, s)
		})

		It("re-uploads samples after a failed present", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(8), epicycle.WithPolicy(epicycle.PolicyFreeze))
			sw.FailPresent(backend.ErrSurfaceOutdated)

			Expect(s.Tick(0)).To(Succeed())
			Expect(s.Reconfigures()).To(BeEquivalentTo(1))
			Expect(s.Pending()).To(Equal(1))

			Expect(s.Tick(1)).To(Succeed())
			Expect(s.Pending()).To(BeZero())
			Expect(sw.Uploads()).To(HaveLen(3))
			Expect(sw.Uploads()[1].Offset).To(BeZero())
			Expect(sw.Uploads()[2].Offset).To(BeEquivalentTo(epicycle.RecordSize))
			bufferMatchesMirror(sw, s)
		})

		It("skips the frame on timeout", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithCapacity(8))
			sw.FailAcquire(backend.ErrTimeout)

			Expect(s.Tick(0)).To(Succeed())
			Expect(s.State()).To(Equal(epicycle.StateReady))
			Expect(s.Skipped()).To(BeEquivalentTo(1))
			Expect(s.Frames()).To(BeZero())
			Expect(s.Reconfigures()).To(BeZero())

			Expect(s.Tick(1)).To(Succeed())
			Expect(s.Frames()).To(BeEquivalentTo(1))
		})

		DescribeTable("fail and release on anything else",
			func(cause error) {
				s := start()
				sw.FailAcquire(cause)

				err := s.Tick(0)
				Expect(err).To(MatchError(epicycle.ErrFailed))
				Expect(errors.Is(err, cause)).To(BeTrue())
				Expect(s.State()).To(Equal(epicycle.StateFailed))
				Expect(s.Err()).To(MatchError(cause))
				Expect(s.Vertices()).To(BeNil())
				Expect(sw.Closed()).To(BeTrue())

				Expect(s.Tick(1)).To(MatchError(epicycle.ErrFailed))
				Expect(s.Close()).To(Succeed())
				Expect(s.State()).To(Equal(epicycle.StateFailed))
				Expect(s.Resize(10, 10)).To(Succeed())
			},
			Entry("out of memory", backend.ErrOutOfMemory),
			Entry("unclassified", errors.New("device exploded")),
		)
	})

	Describe("joint overlay", func() {
		const jointLabel = "epicycle joints"

		jointDraws := func() []backend.Draw {
			GinkgoHelper()
			var draws []backend.Draw
			for _, d := range sw.LastDraws() {
				if d.Label == jointLabel {
					draws = append(draws, d)
				}
			}
			return draws
		}

		jointUploads := func() int {
			n := 0
			for _, u := range sw.Uploads() {
				if u.Label == jointLabel {
					n++
				}
			}
			return n
		}

		It("is off by default", func() {
			s := start(epicycle.WithInterval(1))
			Expect(s.JointVertices()).To(BeNil())
			tickRange(s, 0, 3)
			Expect(jointDraws()).To(BeEmpty())
		})

		It("draws the hub and a closed circle around each joint after the trail", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithJoints(0.3, 0.2), epicycle.WithHub(1.5, epicycle.RGB(0, 0, 1)))
			tickRange(s, 0, 3)

			draws := sw.LastDraws()
			Expect(draws[0].Label).To(Equal(trailLabel))
			Expect(jointDraws()).To(Equal([]backend.Draw{
				{Label: jointLabel, First: 0, Count: 49},
				{Label: jointLabel, First: 49, Count: 49},
				{Label: jointLabel, First: 98, Count: 49},
			}))
		})

		It("centers the circles on the arm ends of the newest sample", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithJoints(0.3, 0.2), epicycle.WithHub(1.5, epicycle.RGB(0, 0, 1)))
			tickRange(s, 0, 5)

			joints := s.Joints()
			Expect(joints).To(HaveLen(2))
			newest := s.Trail().At(s.Trail().Cursor() - 1)
			Expect(float64(newest.Position[0])).To(BeNumerically("~", joints[1].X, 1e-6))
			Expect(float64(newest.Position[1])).To(BeNumerically("~", joints[1].Y, 1e-6))

			contents, err := sw.Contents(s.JointVertices())
			Expect(err).NotTo(HaveOccurred())
			circle := func(c int) (first, last epicycle.Record) {
				base := c * 49 * epicycle.RecordSize
				return epicycle.DecodeRecord(contents[base:]), epicycle.DecodeRecord(contents[base+48*epicycle.RecordSize:])
			}

			hub, _ := circle(0)
			Expect(hub.Position[0]).To(BeNumerically("~", 0, 1e-6))
			Expect(hub.Position[1]).To(BeNumerically("~", 1.5, 1e-6))
			Expect(hub.Color).To(Equal([3]float32{0, 0, 1}))

			for c, r := range []float64{0.3, 0.2} {
				first, last := circle(c + 1)
				Expect(float64(first.Position[0])).To(BeNumerically("~", joints[c].X, 1e-5))
				Expect(float64(first.Position[1])).To(BeNumerically("~", joints[c].Y+r, 1e-5))
				Expect(first.Color).To(Equal([3]float32{1, 0, 0}))
				Expect(last.Position[0]).To(BeNumerically("~", first.Position[0], 1e-5))
				Expect(last.Position[1]).To(BeNumerically("~", first.Position[1], 1e-5))
			}
		})

		It("uploads the overlay only when a sample moves the joints", func() {
			s := start(epicycle.WithInterval(4), epicycle.WithJoints(0.3))
			tickRange(s, 0, 4)
			Expect(jointUploads()).To(Equal(1))
			Expect(jointDraws()).To(HaveLen(1))

			tickRange(s, 4, 5)
			Expect(jointUploads()).To(Equal(2))
		})

		It("re-uploads the overlay after a lost frame", func() {
			s := start(epicycle.WithInterval(4), epicycle.WithJoints(0.3))
			sw.FailAcquire(backend.ErrSurfaceLost)

			Expect(s.Tick(0)).To(Succeed())
			Expect(jointUploads()).To(BeZero())
			Expect(s.Tick(1)).To(Succeed())
			Expect(jointUploads()).To(Equal(1))
		})

		It("ignores radii past the last arm and non-positive radii", func() {
			s := start(epicycle.WithInterval(1), epicycle.WithJoints(0, 0.2, 0.9))
			tickRange(s, 0, 1)
			Expect(jointDraws()).To(Equal([]backend.Draw{{Label: jointLabel, First: 0, Count: 49}}))
			Expect(s.JointVertices().Size()).To(BeEquivalentTo(49 * epicycle.RecordSize))
		})

		It("releases the overlay on Close", func() {
			s := start(epicycle.WithJoints(0.3))
			Expect(s.JointVertices()).NotTo(BeNil())
			Expect(s.Close()).To(Succeed())
			Expect(s.JointVertices()).To(BeNil())
		})
	})
})
