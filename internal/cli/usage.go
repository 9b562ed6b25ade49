package cli

const usage = `Usage:
  unusedfinder [--config PATH] [--deadlock-detector]
  unusedfinder graph [--filter TEXT] [--config PATH] [--deadlock-detector]

Options:
  --config PATH          Config file path (default: ./unused-finder.json)
  --deadlock-detector    Set the deadlockDetector config option (no analysis step reads it)
  --filter TEXT          graph only: only include files whose path contains TEXT
  -h, --help             Show this help text
`

func Usage() string {
	return usage
}
