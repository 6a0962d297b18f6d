package output

// VerbosityLevel controls output detail.
type VerbosityLevel int

const (
	// VerbosityDefault shows clean results only (no progress, no statistics).
	VerbosityDefault VerbosityLevel = iota
	// VerbosityVerbose adds statistics and summary info.
	VerbosityVerbose
	// VerbosityDebug adds timestamps and diagnostic messages.
	VerbosityDebug
)

// Format specifies the result output format.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// Options configures output behavior.
type Options struct {
	Verbosity VerbosityLevel
	Format    Format
	// OutputFile receives results instead of stdout when set.
	OutputFile string
}

// NewDefaultOptions returns options with sensible defaults.
func NewDefaultOptions() *Options {
	return &Options{
		Verbosity: VerbosityDefault,
		Format:    FormatText,
	}
}

// ShouldShowStatistics returns true if statistics should be displayed.
func (o *Options) ShouldShowStatistics() bool {
	return o.Verbosity >= VerbosityVerbose
}

// ShouldShowDebug returns true if debug output should be displayed.
func (o *Options) ShouldShowDebug() bool {
	return o.Verbosity >= VerbosityDebug
}
