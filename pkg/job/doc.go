// Package job schedules periodic work on River, a PostgreSQL-backed queue.
//
// Tasks are plain types with Name() and Handle(ctx, payload). WithTask
// registers one and WithSchedule attaches a cron expression and a fixed
// payload to a registered task, so a single report task can run daily,
// weekly and monthly with a different frequency in each payload:
//
//	m, err := job.NewManager(pool,
//		job.WithLogger(log),
//		job.WithTask[reports.SendPayload](reports.NewSendTask(sender)),
//		job.WithSchedule("usage_reports.send", "0 7 * * *", reports.SendPayload{Frequency: "Daily"}),
//		job.WithSchedule("usage_reports.send", "0 7 * * 1", reports.SendPayload{Frequency: "Weekly"}),
//	)
//
// River inserts one job per tick; when several replicas run, River's leader
// election keeps a single inserter. Migrate creates River's tables.
//
// Scheduled jobs run once by default (WithMaxAttempts) because a failed report
// run may already have delivered some batches.
package job
