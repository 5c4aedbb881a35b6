package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// EngineChanged is set when any engine tunable changed. The evaluator
	// can be rebuilt in place.
	EngineChanged bool

	// ClassifierChanged is set when the classifier section changed. The
	// backend chain can be rebuilt in place.
	ClassifierChanged bool

	// RestartRequired lists changed sections that only take effect on
	// restart.
	RestartRequired []string
}

// Reloadable reports whether d carries any change that can be applied
// without a restart.
func (d ConfigDiff) Reloadable() bool {
	return d.LogLevelChanged || d.EngineChanged || d.ClassifierChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oe, ne := old.Engine, new.Engine
	if oe.ConfidenceThreshold != ne.ConfidenceThreshold ||
		oe.BoostTarget != ne.BoostTarget ||
		oe.Window() != ne.Window() {
		d.EngineChanged = true
	}

	if !reflect.DeepEqual(old.Classifier, new.Classifier) {
		d.ClassifierChanged = true
	}

	os, ns := old.Server, new.Server
	if os.ListenAddr != ns.ListenAddr || !reflect.DeepEqual(os.TLS, ns.TLS) ||
		os.MaxBodyBytes != ns.MaxBodyBytes || os.ReloadInterval != ns.ReloadInterval {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if old.Dictionary != new.Dictionary {
		d.RestartRequired = append(d.RestartRequired, "dictionary")
	}
	if old.Library != new.Library {
		d.RestartRequired = append(d.RestartRequired, "library")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}
