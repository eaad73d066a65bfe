package provisioning

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	RunID        string
	ArtifactsDir string
	Group        string

	// Image results (populated by the image phases)
	ConfigDir      string
	SSHDir         string
	PrivateKeyPath string
	PrivateKey     []byte
	ImagePath      string
	ImageID        string

	// Compute results (populated by the compute phases)
	Zones    []string
	Machines []Machine

	step int
}

// NewState creates an empty provisioning state for a run.
func NewState(runID, artifactsDir string) *State {
	return &State{
		RunID:        runID,
		ArtifactsDir: artifactsDir,
		step:         1,
	}
}

// nextStep returns the current step number and advances the counter.
func (s *State) nextStep() int {
	if s.step == 0 {
		s.step = 1
	}
	idx := s.step
	s.step++
	return idx
}
