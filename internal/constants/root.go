package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "mydiary"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/mydiary/mydiary.db"
	DefaultConfigFile  = "~/.config/mydiary/config.toml"
	Version            = "v0.3.0"

	// ConnectionEnvVar holds a PostgreSQL connection string (with credentials)
	ConnectionEnvVar = "MYDIARY_DB_CONNECTION"

	// DiskvPrefix selects the directory-backed store, e.g. "diskv:~/notes"
	DiskvPrefix = "diskv:"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "mydiary-"
	BackupFileSuffix = ".db"

	// LockfileName marks the running interactive instance
	LockfileName = "mydiary.lock"

	// Autosave waits this long after the last edit before writing the diary
	AutosaveDelay = time.Second
)

// TUI session states
const (
	StateTodos SessionState = iota
	StateDiary
	StateAddTodo
	StateEditTodo
	StateConfirmDelete
	StateCalendar
	StateWriting
)
