package ledger_test

import (
	"context"
	"testing"

	"github.com/mweemba/staffkpi/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty ledger", t, func() {
		l := ledger.New()

		Convey("Then no pair is assigned", func() {
			So(l.Assigned(ctx, "kpi-1", "lct-1"), ShouldBeFalse)
			So(l.Count(ctx), ShouldEqual, 0)
		})

		Convey("When toggling a pair on", func() {
			assigned := l.Toggle(ctx, "kpi-1", "lct-1")

			Convey("Then the pair is assigned and visible from both sides", func() {
				So(assigned, ShouldBeTrue)
				So(l.Assigned(ctx, "kpi-1", "lct-1"), ShouldBeTrue)
				So(l.ForLecturer(ctx, "lct-1"), ShouldResemble, []string{"kpi-1"})
				So(l.ForKPI(ctx, "kpi-1"), ShouldResemble, []string{"lct-1"})
				So(l.Count(ctx), ShouldEqual, 1)
			})

			Convey("And toggling the same pair again removes it", func() {
				assigned = l.Toggle(ctx, "kpi-1", "lct-1")

				So(assigned, ShouldBeFalse)
				So(l.Assigned(ctx, "kpi-1", "lct-1"), ShouldBeFalse)
				So(l.ForLecturer(ctx, "lct-1"), ShouldBeNil)
				So(l.ForKPI(ctx, "kpi-1"), ShouldBeNil)
				So(l.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When assigning several pairs", func() {
			l.Toggle(ctx, "kpi-1", "lct-1")
			l.Toggle(ctx, "kpi-1", "lct-2")
			l.Toggle(ctx, "kpi-2", "lct-1")

			Convey("Then projections keep insertion order", func() {
				So(l.ForKPI(ctx, "kpi-1"), ShouldResemble, []string{"lct-1", "lct-2"})
				So(l.ForLecturer(ctx, "lct-1"), ShouldResemble, []string{"kpi-1", "kpi-2"})
				So(l.Count(ctx), ShouldEqual, 3)
			})

			Convey("Then returned slices are copies", func() {
				got := l.ForKPI(ctx, "kpi-1")
				got[0] = "mutated"
				So(l.ForKPI(ctx, "kpi-1"), ShouldResemble, []string{"lct-1", "lct-2"})
			})

			Convey("And removing a KPI drops every pair referencing it", func() {
				affected := l.RemoveKPI(ctx, "kpi-1")

				So(affected, ShouldResemble, []string{"lct-1", "lct-2"})
				So(l.Assigned(ctx, "kpi-1", "lct-1"), ShouldBeFalse)
				So(l.Assigned(ctx, "kpi-1", "lct-2"), ShouldBeFalse)
				So(l.ForLecturer(ctx, "lct-1"), ShouldResemble, []string{"kpi-2"})
				So(l.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When removing a KPI nobody holds", func() {
			affected := l.RemoveKPI(ctx, "kpi-ghost")

			Convey("Then nothing changes", func() {
				So(affected, ShouldBeNil)
				So(l.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}
