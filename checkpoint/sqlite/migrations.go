package sqlite

// migrations holds the schema statements applied by Migrate, in order.
// Statements are idempotent so Migrate can run at every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS plancraft_threads (
		id              TEXT PRIMARY KEY,
		status          TEXT NOT NULL DEFAULT 'RUNNING',
		error           TEXT NOT NULL DEFAULT '',
		error_category  TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plancraft_threads_status
		ON plancraft_threads (status)`,

	`CREATE TABLE IF NOT EXISTS plancraft_checkpoints (
		id          TEXT PRIMARY KEY,
		thread_id   TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		next_node   TEXT NOT NULL,
		state       BLOB NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE (thread_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plancraft_checkpoints_thread
		ON plancraft_checkpoints (thread_id, seq DESC)`,

	`CREATE TABLE IF NOT EXISTS plancraft_interrupts (
		thread_id   TEXT PRIMARY KEY,
		id          TEXT NOT NULL,
		envelope    BLOB NOT NULL,
		created_at  TEXT NOT NULL
	)`,
}
