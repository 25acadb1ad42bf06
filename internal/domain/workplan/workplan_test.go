package workplan_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/workplan"
	. "github.com/smartystreets/goconvey/convey"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("wp-%03d", n)
	}
}

func validSubmission() workplan.Submission {
	return workplan.Submission{
		LecturerID:         "lct-001",
		AcademicYear:       "2025/2026",
		Semester:           workplan.SemesterFirst,
		TeachingActivities: "Deliver CS-360 and CS-415",
		ResearchActivities: "Submit two conference papers",
		Objectives:         "Raise CS-360 pass rate above 80%",
		ExpectedOutcomes:   "Two publications",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given an empty registry", t, func() {
		r := workplan.NewRegistry(workplan.WithIDGenerator(sequentialIDs()))

		Convey("When submitting a valid workplan", func() {
			w, err := r.Submit(ctx, validSubmission(), ts)

			Convey("Then it is stored pending with a fresh id", func() {
				So(err, ShouldBeNil)
				So(w.ID, ShouldEqual, "wp-001")
				So(w.Status, ShouldEqual, workplan.StatusPending)
				So(w.SubmittedAt, ShouldEqual, ts)

				got, err := r.Get(ctx, w.ID)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, w)
			})
		})

		Convey("When submitting invalid workplans", func() {
			cases := map[string]func(*workplan.Submission){
				"empty lecturer id":  func(s *workplan.Submission) { s.LecturerID = "" },
				"bad academic year":  func(s *workplan.Submission) { s.AcademicYear = "2025" },
				"unknown semester":   func(s *workplan.Submission) { s.Semester = "summer" },
				"missing objectives": func(s *workplan.Submission) { s.Objectives = "  " },
			}
			for name, mutate := range cases {
				sub := validSubmission()
				mutate(&sub)
				_, err := r.Submit(ctx, sub, ts)

				Convey("Then "+name+" is rejected", func() {
					So(err, ShouldWrap, model.ErrValidation)
				})
			}
		})
	})
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given a pending workplan", t, func() {
		r := workplan.NewRegistry(workplan.WithIDGenerator(sequentialIDs()))
		w, err := r.Submit(ctx, validSubmission(), ts)
		So(err, ShouldBeNil)

		Convey("When approving it", func() {
			got, err := r.Review(ctx, w.ID, true, "")

			Convey("Then it becomes approved", func() {
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, workplan.StatusApproved)
			})

			Convey("And a second review is rejected", func() {
				_, err := r.Review(ctx, w.ID, false, "changed my mind")
				So(err, ShouldWrap, model.ErrValidation)
			})
		})

		Convey("When returning it with feedback", func() {
			got, err := r.Review(ctx, w.ID, false, "add service activities")

			Convey("Then the feedback is stored", func() {
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, workplan.StatusReturned)
				So(got.Feedback, ShouldEqual, "add service activities")
			})
		})

		Convey("When returning it without feedback", func() {
			_, err := r.Review(ctx, w.ID, false, "  ")

			Convey("Then the review is rejected and the plan stays pending", func() {
				So(err, ShouldWrap, model.ErrValidation)
				got, getErr := r.Get(ctx, w.ID)
				So(getErr, ShouldBeNil)
				So(got.Status, ShouldEqual, workplan.StatusPending)
			})
		})

		Convey("When reviewing an unknown id", func() {
			_, err := r.Review(ctx, "wp-ghost", true, "")
			So(err, ShouldWrap, model.ErrNotFound)
		})
	})
}

func TestForLecturer(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given several submissions from one lecturer", t, func() {
		r := workplan.NewRegistry(workplan.WithIDGenerator(sequentialIDs()))
		first := validSubmission()
		second := validSubmission()
		second.Semester = workplan.SemesterSecond
		_, err := r.Submit(ctx, first, ts)
		So(err, ShouldBeNil)
		newer, err := r.Submit(ctx, second, ts.AddDate(0, 5, 0))
		So(err, ShouldBeNil)

		Convey("When listing the lecturer's workplans", func() {
			got := r.ForLecturer(ctx, "lct-001")

			Convey("Then the newest comes first", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, newer.ID)
				So(got[1].Semester, ShouldEqual, workplan.SemesterFirst)
			})
		})

		Convey("When listing an unknown lecturer", func() {
			So(r.ForLecturer(ctx, "lct-999"), ShouldHaveLength, 0)
		})
	})
}
