package config

const (
	defaultTargetDir     = "~/downloads"
	defaultStateDir      = "~/.local/share/unpakr"
	defaultLogDir        = "~/.local/share/unpakr/logs"
	defaultSyncBinary    = "rsync"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultNtfyTimeout   = 10
	defaultWatchInterval = 300
	defaultWatchSettle   = 30
	defaultRetentionRuns = 200

	// DefaultLockFileName marks a target directory as owned by a running
	// instance. Reserved: must never collide with archive content.
	DefaultLockFileName = ".unpakr-locked"
	// DefaultMarkerSuffix terminates per-archive completion marker names.
	DefaultMarkerSuffix = ".unpakr-unpacked"
)

func defaultUnpackCommands() map[string]string {
	return map[string]string{
		".rar": "unrar x -o+ -y {archive} {dest}",
		".r01": "unrar x -o+ -y {archive} {dest}",
		".zip": "unzip -o {archive} -d {dest}",
	}
}

// defaultExcludePatterns matches multi-volume continuation files that must
// never be extracted on their own: the extractor consumes them when it
// processes the primary volume.
func defaultExcludePatterns() []string {
	return []string{
		"*.r[0-9][0-9]",
		"*.part[2-9].rar",
		"*.part0[2-9].rar",
		"*.part[1-9][0-9].rar",
	}
}

// defaultSyncExcludePatterns keeps archives, continuation volumes, sidecar
// checksum/recovery files, and unpakr's own control files off the remote.
func defaultSyncExcludePatterns() []string {
	return []string{
		"*.rar",
		"*.r[0-9][0-9]",
		"*.zip",
		"*.sfv",
		"*.par2",
		"*.md5",
		DefaultLockFileName,
		"*" + DefaultMarkerSuffix,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TargetDir: defaultTargetDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Unpack: Unpack{
			Enabled:         true,
			Commands:        defaultUnpackCommands(),
			ExcludePatterns: defaultExcludePatterns(),
		},
		Sync: Sync{
			Binary:          defaultSyncBinary,
			ExcludePatterns: defaultSyncExcludePatterns(),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			RunCompleted:   true,
			Errors:         true,
		},
		History: History{
			Enabled:       true,
			RetentionRuns: defaultRetentionRuns,
		},
		Watch: Watch{
			Interval:      defaultWatchInterval,
			SettleSeconds: defaultWatchSettle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},

		LockFileName: DefaultLockFileName,
		MarkerSuffix: DefaultMarkerSuffix,
	}
}
