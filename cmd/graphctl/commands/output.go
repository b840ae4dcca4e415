package commands

// Output format constants for the -o/--output persistent flag,
// grounded on cmd/wave/commands/output.go's same constant set.
const (
	OutputFormatAuto  = "auto"
	OutputFormatJSON  = "json"
	OutputFormatText  = "text"
	OutputFormatQuiet = "quiet"
)
