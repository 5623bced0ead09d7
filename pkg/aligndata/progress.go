package aligndata

// Build phases reported to a Progress.
const (
	PhaseExtract = "extract"
	PhaseEmbed   = "embed"
	PhaseWrite   = "write"
)

// Progress observes a build. Increment is called concurrently from
// extraction workers.
type Progress interface {
	Start(phase string, total int)
	Increment(phase string)
	Done(phase string)
}

type noProgress struct{}

func (noProgress) Start(string, int) {}
func (noProgress) Increment(string)  {}
func (noProgress) Done(string)       {}
