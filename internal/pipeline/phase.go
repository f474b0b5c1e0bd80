package pipeline

// Phase is the stage of the document state machine.
type Phase int

const (
	// PhaseScouting looks for the TOC trigger on the first pages.
	PhaseScouting Phase = iota
	// PhaseBuffering collects TOC pages until the anchor reappears.
	PhaseBuffering
	// PhaseScholar runs deep extraction from the anchor page onward.
	PhaseScholar
)

func (p Phase) String() string {
	switch p {
	case PhaseScouting:
		return "scouting"
	case PhaseBuffering:
		return "buffering"
	case PhaseScholar:
		return "scholar"
	default:
		return "unknown"
	}
}

// state is the per-phase data of the state machine. Exactly one
// implementation is live at a time.
type state interface {
	Phase() Phase
}

type scouting struct {
	// rejected counts trigger pages whose anchor could not be captured.
	rejected int
}

func (scouting) Phase() Phase { return PhaseScouting }

type buffering struct {
	anchor   string
	tocPages []int
}

func (buffering) Phase() Phase { return PhaseBuffering }

// buffered is the number of pages read after the trigger page.
func (b buffering) buffered() int { return len(b.tocPages) - 1 }

type scholar struct {
	anchor       string
	tocPages     []int
	contentStart int
}

func (scholar) Phase() Phase { return PhaseScholar }
