package app

// Mode selects which of the two CLI commands a Request runs.
type Mode string

const (
	ModeAnalyse Mode = "analyse"
	ModeGraph   Mode = "graph"
)

// Request is the fully parsed command line.
type Request struct {
	Mode             Mode
	ConfigPath       string
	DeadlockDetector bool
	GraphFilter      string
}

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "./unused-finder.json"

// DefaultRequest returns the zero-flags default: run the analysis and
// print the report.
func DefaultRequest() Request {
	return Request{Mode: ModeAnalyse, ConfigPath: DefaultConfigPath}
}
