package scoring_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mweemba/staffkpi/internal/directory"
	"github.com/mweemba/staffkpi/internal/domain/catalog"
	"github.com/mweemba/staffkpi/internal/domain/dedupe"
	"github.com/mweemba/staffkpi/internal/domain/ledger"
	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/scoring"
	"github.com/mweemba/staffkpi/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

type fixture struct {
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	tracker *tracker.Tracker
	scoring *scoring.Engine
}

func newFixture(lecturers []model.Lecturer, opts ...scoring.Option) *fixture {
	n := 0
	f := &fixture{
		catalog: catalog.New(catalog.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("kpi-%03d", n)
		})),
		ledger:  ledger.New(),
		tracker: tracker.New(),
	}
	dir, err := directory.New(lecturers...)
	So(err, ShouldBeNil)
	f.scoring = scoring.New(f.catalog, f.ledger, f.tracker, dir, opts...)
	return f
}

// addKPI creates a KPI, assigns it to the lecturer and records the value.
func (f *fixture) addKPI(ctx context.Context, lecturerID string, weight int, target, value float64) model.KPI {
	k, err := f.catalog.Create(ctx, catalog.Definition{
		Title:       fmt.Sprintf("KPI weight %d", weight),
		Weight:      weight,
		Category:    model.CategoryTeaching,
		TargetValue: target,
		Unit:        model.UnitPercentage,
	})
	So(err, ShouldBeNil)
	f.ledger.Toggle(ctx, k.ID, lecturerID)
	f.tracker.Ensure(ctx, k.ID, lecturerID)
	So(f.tracker.Record(ctx, k.ID, lecturerID, value), ShouldBeNil)
	return k
}

func activeLecturer(id, dept string) model.Lecturer {
	return model.Lecturer{ID: id, Name: "Lecturer " + id, Department: dept, Status: model.LecturerActive}
}

func TestOverall(t *testing.T) {
	ctx := context.Background()

	Convey("Given a lecturer with two weighted KPIs", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		f.addKPI(ctx, "lct-001", 40, 100, 80) // 80% progress
		f.addKPI(ctx, "lct-001", 10, 2, 1)    // 50% progress

		Convey("When computing the overall score", func() {
			got, err := f.scoring.Overall(ctx, "lct-001")

			Convey("Then it is the weight-normalized rounded mean", func() {
				// (80*40 + 50*10) / 50 = 74
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 74)
			})
		})
	})

	Convey("Given a KPI at double its target", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		f.addKPI(ctx, "lct-001", 30, 10, 20)

		Convey("When computing the overall score", func() {
			got, err := f.scoring.Overall(ctx, "lct-001")

			Convey("Then the contribution is capped at 100%", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 100)
			})
		})

		Convey("When computing the category breakdown", func() {
			got, err := f.scoring.Breakdown(ctx, "lct-001")

			Convey("Then over-achievement stays visible", func() {
				So(err, ShouldBeNil)
				So(got[model.CategoryTeaching], ShouldEqual, 200)
			})
		})
	})

	Convey("Given a lecturer with no assignments", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})

		Convey("When computing the overall score", func() {
			_, err := f.scoring.Overall(ctx, "lct-001")

			Convey("Then it is insufficient data, not zero", func() {
				So(err, ShouldWrap, model.ErrInsufficientData)
			})
		})

		Convey("When computing the breakdown", func() {
			_, err := f.scoring.Breakdown(ctx, "lct-001")

			Convey("Then it is insufficient data as well", func() {
				So(err, ShouldWrap, model.ErrInsufficientData)
			})
		})
	})

	Convey("Given untouched assignments", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		f.addKPI(ctx, "lct-001", 40, 100, 0)

		Convey("When computing the overall score", func() {
			got, err := f.scoring.Overall(ctx, "lct-001")

			Convey("Then zero progress scores zero, which is still a score", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 0)
			})
		})
	})
}

func TestBreakdown(t *testing.T) {
	ctx := context.Background()

	Convey("Given KPIs in two categories", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		teaching, err := f.catalog.Create(ctx, catalog.Definition{
			Title: "Course Delivery", Weight: 40, Category: model.CategoryTeaching, TargetValue: 100, Unit: model.UnitPercentage,
		})
		So(err, ShouldBeNil)
		research, err := f.catalog.Create(ctx, catalog.Definition{
			Title: "Publications", Weight: 20, Category: model.CategoryResearch, TargetValue: 2, Unit: model.UnitPapers,
		})
		So(err, ShouldBeNil)
		for _, k := range []model.KPI{teaching, research} {
			f.ledger.Toggle(ctx, k.ID, "lct-001")
			f.tracker.Ensure(ctx, k.ID, "lct-001")
		}
		So(f.tracker.Record(ctx, teaching.ID, "lct-001", 80), ShouldBeNil)
		So(f.tracker.Record(ctx, research.ID, "lct-001", 1), ShouldBeNil)

		Convey("When computing the breakdown", func() {
			got, err := f.scoring.Breakdown(ctx, "lct-001")

			Convey("Then each category is normalized by its own weight sum", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[model.CategoryTeaching], ShouldEqual, 80)
				So(got[model.CategoryResearch], ShouldEqual, 50)
			})
		})
	})
}

func TestDepartmentAverage(t *testing.T) {
	ctx := context.Background()

	Convey("Given a department with mixed lecturers", t, func() {
		onLeave := model.Lecturer{ID: "lct-003", Name: "Lecturer lct-003", Department: "Computer Science", Status: model.LecturerOnLeave}
		f := newFixture([]model.Lecturer{
			activeLecturer("lct-001", "Computer Science"),
			activeLecturer("lct-002", "Computer Science"),
			onLeave,
			activeLecturer("lct-004", "Computer Science"), // no assignments
		})
		f.addKPI(ctx, "lct-001", 40, 100, 80) // 80
		f.addKPI(ctx, "lct-002", 40, 100, 60) // 60
		f.addKPI(ctx, "lct-003", 40, 100, 10) // excluded, on leave

		Convey("When computing the department average", func() {
			got, err := f.scoring.DepartmentAverage(ctx, "Computer Science")

			Convey("Then only active scoreable lecturers count", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 70)
			})
		})

		Convey("When the department has no scoreable lecturers", func() {
			_, err := f.scoring.DepartmentAverage(ctx, "Philosophy")

			Convey("Then it is insufficient data", func() {
				So(err, ShouldWrap, model.ErrInsufficientData)
			})
		})
	})
}

func TestCommitSnapshot(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	Convey("Given a scoreable lecturer", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		kpi := f.addKPI(ctx, "lct-001", 40, 100, 80)

		Convey("When committing a snapshot", func() {
			snap, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts)

			Convey("Then it is appended to the history", func() {
				So(err, ShouldBeNil)
				So(snap.Overall, ShouldEqual, 80)
				So(snap.Timestamp, ShouldEqual, ts)
				So(f.scoring.History(ctx, "lct-001"), ShouldHaveLength, 1)
			})

			Convey("And a later progress change does not rewrite it", func() {
				So(f.tracker.Record(ctx, kpi.ID, "lct-001", 20), ShouldBeNil)

				history := f.scoring.History(ctx, "lct-001")
				So(history[0].Overall, ShouldEqual, 80)
			})

			Convey("And re-committing the same instant appends nothing", func() {
				again, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts)

				So(err, ShouldBeNil)
				So(again.Overall, ShouldEqual, 80)
				So(f.scoring.History(ctx, "lct-001"), ShouldHaveLength, 1)
			})

			Convey("And a commit at a new instant appends a second entry", func() {
				_, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts.Add(time.Hour))

				So(err, ShouldBeNil)
				So(f.scoring.History(ctx, "lct-001"), ShouldHaveLength, 2)
			})
		})

		Convey("When commits arrive out of timestamp order", func() {
			_, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts.Add(2*time.Hour))
			So(err, ShouldBeNil)
			_, err = f.scoring.CommitSnapshot(ctx, "lct-001", ts)
			So(err, ShouldBeNil)

			Convey("Then the history stays ascending", func() {
				history := f.scoring.History(ctx, "lct-001")
				So(history, ShouldHaveLength, 2)
				So(history[0].Timestamp, ShouldEqual, ts)
				So(history[1].Timestamp, ShouldEqual, ts.Add(2*time.Hour))
			})
		})

		Convey("When the history limit is reached", func() {
			limited := newFixture(
				[]model.Lecturer{activeLecturer("lct-001", "Computer Science")},
				scoring.WithHistoryLimit(2),
			)
			limited.addKPI(ctx, "lct-001", 40, 100, 80)
			for i := 0; i < 3; i++ {
				_, err := limited.scoring.CommitSnapshot(ctx, "lct-001", ts.Add(time.Duration(i)*time.Hour))
				So(err, ShouldBeNil)
			}

			Convey("Then only the most recent snapshots are kept", func() {
				history := limited.scoring.History(ctx, "lct-001")
				So(history, ShouldHaveLength, 2)
				So(history[0].Timestamp, ShouldEqual, ts.Add(time.Hour))
				So(history[1].Timestamp, ShouldEqual, ts.Add(2*time.Hour))
			})
		})

		Convey("When using a custom commit cache", func() {
			cached := newFixture(
				[]model.Lecturer{activeLecturer("lct-001", "Computer Science")},
				scoring.WithCommitCache(dedupe.New(dedupe.WithMaxSize(100))),
			)
			cached.addKPI(ctx, "lct-001", 40, 100, 80)
			_, err := cached.scoring.CommitSnapshot(ctx, "lct-001", ts)
			So(err, ShouldBeNil)
			_, err = cached.scoring.CommitSnapshot(ctx, "lct-001", ts)
			So(err, ShouldBeNil)

			Convey("Then deduplication still holds", func() {
				So(cached.scoring.History(ctx, "lct-001"), ShouldHaveLength, 1)
			})
		})

		Convey("When reading the latest snapshot", func() {
			_, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts)
			So(err, ShouldBeNil)
			_, err = f.scoring.CommitSnapshot(ctx, "lct-001", ts.Add(time.Hour))
			So(err, ShouldBeNil)

			Convey("Then it is the newest by timestamp", func() {
				latest, ok := f.scoring.Latest(ctx, "lct-001")
				So(ok, ShouldBeTrue)
				So(latest.Timestamp, ShouldEqual, ts.Add(time.Hour))
			})
		})
	})

	Convey("Given an unscoreable lecturer", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})

		Convey("When committing a snapshot", func() {
			_, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts)

			Convey("Then no snapshot is created", func() {
				So(err, ShouldWrap, model.ErrInsufficientData)
				So(f.scoring.History(ctx, "lct-001"), ShouldBeNil)
				_, ok := f.scoring.Latest(ctx, "lct-001")
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a committed history", t, func() {
		f := newFixture([]model.Lecturer{activeLecturer("lct-001", "Computer Science")})
		f.addKPI(ctx, "lct-001", 40, 100, 80)
		_, err := f.scoring.CommitSnapshot(ctx, "lct-001", ts)
		So(err, ShouldBeNil)

		Convey("When mutating a returned snapshot's breakdown", func() {
			history := f.scoring.History(ctx, "lct-001")
			history[0].Breakdown[model.CategoryTeaching] = 0

			Convey("Then the stored history is unaffected", func() {
				So(f.scoring.History(ctx, "lct-001")[0].Breakdown[model.CategoryTeaching], ShouldEqual, 80)
			})
		})
	})
}
