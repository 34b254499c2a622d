package ir

const (
	// IRVersion is the ruleset schema version.
	IRVersion = "1"

	// EngineVersion is the condevent engine version recorded with dispatches.
	EngineVersion = "0.1.0"
)
