package model

// Phase identifies a stage of the testing methodology. Phases run
// sequentially in the order given by Phases; tools within a phase may
// run concurrently.
type Phase string

// Testing phases in execution order.
const (
	// PhaseRecon covers discovery of the attack surface: ports,
	// services, subdomains.
	PhaseRecon Phase = "recon"

	// PhaseVulnAssessment covers scanning for known weaknesses.
	PhaseVulnAssessment Phase = "vuln-assessment"

	// PhaseExploitation covers active verification of suspected
	// weaknesses (SQL injection probes, credential testing).
	PhaseExploitation Phase = "exploitation"

	// PhasePostExploitation covers lateral-movement and privilege
	// tooling. Against a single web target these tools mostly verify
	// reachability.
	PhasePostExploitation Phase = "post-exploitation"
)

// Phases lists all phases in execution order.
//
// Design decision: The order is advisory rather than enforced by data
// dependencies. A failed phase never prevents later phases from running;
// each phase gets whatever value it can from the target directly.
var Phases = []Phase{
	PhaseRecon,
	PhaseVulnAssessment,
	PhaseExploitation,
	PhasePostExploitation,
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}
