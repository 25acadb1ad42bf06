// Command staffkpi runs the KPI engine end to end on a seeded staff roster:
// it loads configuration, builds the engine, seeds the demo catalog and
// progress data, commits an evaluation run and logs the report views.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mweemba/staffkpi/internal/app"
	"github.com/mweemba/staffkpi/internal/config"
	"github.com/mweemba/staffkpi/internal/directory"
	"github.com/mweemba/staffkpi/internal/domain/catalog"
	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/workplan"
	"github.com/mweemba/staffkpi/internal/evaluation"
	"github.com/mweemba/staffkpi/pkg/logger"
)

const hoursPerDay = 24

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	dir, err := directory.New(seedLecturers()...)
	if err != nil {
		log.Error(ctx, "failed to build lecturer directory", logger.Error(err))
		return
	}

	engine := app.New(dir,
		app.WithLogger(log.Named("engine")),
		app.WithCommitCacheSize(cfg.CommitCacheSize),
		app.WithHistoryLimit(cfg.HistoryLimit),
	)

	// The engine enforces no authorization; the host gates admin operations
	// on the session role before calling in.
	session := directory.StaticSession{User: directory.User{ID: "admin-1", Role: directory.RoleAdmin, Name: "HOD Admin"}}
	if u := session.CurrentUser(ctx); u.Role != directory.RoleAdmin && u.Role != directory.RoleSupervisor {
		log.Error(ctx, "seeding requires an admin or supervisor session", logger.String("role", string(u.Role)))
		return
	}

	if err := seed(ctx, engine); err != nil {
		log.Error(ctx, "failed to seed engine", logger.Error(err))
		return
	}

	runner := evaluation.NewRunner(engine,
		evaluation.WithWorkerCount(cfg.EvalWorkerCount),
		evaluation.WithQueueCapacity(cfg.EvalQueueCapacity),
		evaluation.WithLogger(log.Named("evaluation")),
	)
	now := time.Now()
	summary := runner.Run(ctx, dir.All(ctx), now)
	log.Info(ctx, "evaluation run",
		logger.Int("committed", summary.Committed),
		logger.Int("skipped", summary.Skipped),
		logger.Int("failed", summary.Failed),
	)

	report(ctx, engine, cfg, now)
}

// seedLecturers returns the demo staff roster.
func seedLecturers() []model.Lecturer {
	join := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []model.Lecturer{
		{ID: "lct-001", Name: "Mr. Raymose Banda", Department: "Computer Science", Position: "Lecturer", Status: model.LecturerActive, JoinDate: join("2020-03-15")},
		{ID: "lct-002", Name: "Ms. Comfort Chiwele", Department: "Computer Science", Position: "Senior Lecturer", Status: model.LecturerActive, JoinDate: join("2018-08-20")},
		{ID: "lct-003", Name: "Mr. Ruel Mumba", Department: "Information Systems", Position: "Lecturer", Status: model.LecturerActive, JoinDate: join("2019-01-10")},
		{ID: "lct-004", Name: "Ms. Kalenga Soneka", Department: "Information Technology", Position: "Assistant Lecturer", Status: model.LecturerActive, JoinDate: join("2021-09-05")},
		{ID: "lct-005", Name: "Dr. John Smith", Department: "Computer Science", Position: "Associate Professor", Status: model.LecturerActive, JoinDate: join("2015-02-12")},
		{ID: "lct-006", Name: "Ms. Sarah Johnson", Department: "Information Systems", Position: "Lecturer", Status: model.LecturerOnLeave, JoinDate: join("2020-11-18")},
	}
}

// seed creates the demo KPIs, assignments, progress values and one workplan
// review cycle.
func seed(ctx context.Context, engine *app.Engine) error {
	defs := []catalog.Definition{
		{Title: "Publish Research Papers", Description: "Publish at least 2 peer-reviewed papers per year", Weight: 20, Category: model.CategoryResearch, TargetValue: 2, Unit: model.UnitPapers},
		{Title: "Course Delivery", Description: "Deliver assigned courses effectively", Weight: 40, Category: model.CategoryTeaching, TargetValue: 85, Unit: model.UnitPercentage},
		{Title: "Student Supervision", Description: "Supervise postgraduate students", Weight: 15, Category: model.CategoryService, TargetValue: 3, Unit: model.UnitStudents},
		{Title: "Departmental Meetings", Description: "Participate in departmental meetings", Weight: 10, Category: model.CategoryService, TargetValue: 80, Unit: model.UnitPercentage},
	}

	assignees := [][]string{
		{"lct-001", "lct-002"},
		{"lct-001", "lct-003", "lct-004"},
		{"lct-002", "lct-003"},
		{"lct-001", "lct-002", "lct-003", "lct-004"},
	}
	progress := []map[string]float64{
		{"lct-001": 1, "lct-002": 2},
		{"lct-001": 72, "lct-003": 64, "lct-004": 81},
		{"lct-002": 3, "lct-003": 2},
		{"lct-001": 75, "lct-002": 90, "lct-003": 60, "lct-004": 85},
	}

	for i, def := range defs {
		k, err := engine.CreateKPI(ctx, def)
		if err != nil {
			return err
		}
		for _, lecturerID := range assignees[i] {
			if _, err := engine.ToggleAssignment(ctx, k.ID, lecturerID); err != nil {
				return err
			}
			if value, ok := progress[i][lecturerID]; ok {
				if err := engine.RecordProgress(ctx, k.ID, lecturerID, value); err != nil {
					return err
				}
			}
		}
	}

	w, err := engine.SubmitWorkplan(ctx, workplan.Submission{
		LecturerID:         "lct-001",
		AcademicYear:       "2025/2026",
		Semester:           workplan.SemesterFirst,
		TeachingActivities: "Deliver CS-360 and CS-415, revise CS-360 labs",
		ResearchActivities: "Submit two papers to regional conferences",
		ServiceActivities:  "Coordinate the departmental open day",
		Objectives:         "Raise CS-360 pass rate above 80%",
		ExpectedOutcomes:   "Two publications, improved course feedback",
	}, time.Now())
	if err != nil {
		return err
	}
	if _, err := engine.ReviewWorkplan(ctx, w.ID, true, ""); err != nil {
		return err
	}
	return nil
}

// report logs the dashboard views computed from the seeded state.
func report(ctx context.Context, engine *app.Engine, cfg *config.Config, now time.Time) {
	log := logger.Named("report")

	summary, err := engine.DashboardSummary(ctx)
	if err != nil {
		log.Error(ctx, "dashboard summary failed", logger.Error(err))
		return
	}
	log.Info(ctx, "dashboard summary",
		logger.Int("lecturers", summary.TotalLecturers),
		logger.Int("kpis", summary.TotalKPIs),
		logger.Float64("averageScore", summary.AverageScore),
		logger.Int("completedEvaluations", summary.CompletedEvaluations),
		logger.Int("pendingEvaluations", summary.PendingEvaluations),
	)

	performers, err := engine.TopPerformers(ctx, cfg.TopPerformersLimit, "")
	if err != nil {
		log.Error(ctx, "top performers failed", logger.Error(err))
		return
	}
	for _, p := range performers {
		log.Info(ctx, "top performer",
			logger.Int("rank", p.Rank),
			logger.String("lecturerID", p.LecturerID),
			logger.String("name", p.Name),
			logger.String("department", p.Department),
			logger.Float64("score", p.Score),
		)
	}

	for _, dept := range engine.Directory().Departments(ctx) {
		avg, err := engine.DepartmentAverage(ctx, dept)
		if err != nil {
			log.Warn(ctx, "department average unavailable", logger.String("department", dept), logger.Error(err))
			continue
		}
		log.Info(ctx, "department average", logger.String("department", dept), logger.Float64("average", avg))
	}

	compliance, err := engine.ComplianceByDepartment(ctx)
	if err != nil {
		log.Error(ctx, "compliance report failed", logger.Error(err))
		return
	}
	for dept, pct := range compliance {
		log.Info(ctx, "department compliance", logger.String("department", dept), logger.Float64("percent", pct))
	}

	from := now.Add(-time.Duration(cfg.TrendWindowDays) * hoursPerDay * time.Hour)
	trend, err := engine.Trend(ctx, "lct-001", from, now)
	if err != nil {
		log.Error(ctx, "trend report failed", logger.Error(err))
		return
	}
	for snap := range trend {
		log.Info(ctx, "trend point",
			logger.String("lecturerID", snap.LecturerID),
			logger.Int("overall", snap.Overall),
			logger.Time("timestamp", snap.Timestamp),
		)
	}
}
