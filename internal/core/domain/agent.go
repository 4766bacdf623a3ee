package domain

// AgentRole identifies one stage of the narrative pipeline.
type AgentRole string

// Agent roles in execution order.
const (
	RoleResearcher AgentRole = "researcher"
	RoleCritic     AgentRole = "critic"
	RoleReporter   AgentRole = "reporter"
)

// AllAgentRoles returns the roles in the order they run.
func AllAgentRoles() []AgentRole {
	return []AgentRole{RoleResearcher, RoleCritic, RoleReporter}
}

// String returns the string representation.
func (r AgentRole) String() string {
	return string(r)
}

// AgentMessage is one attempt to run one role against one provider.
type AgentMessage struct {
	Role     AgentRole `json:"role"`
	Input    string    `json:"input"`
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Output   string    `json:"output,omitempty"`
	Success  bool      `json:"success"`

	// Retry is the zero-based attempt number against this provider.
	Retry int    `json:"retry"`
	Error string `json:"error,omitempty"`
}

// AgentRun is the outcome of a full Researcher, Critic, Reporter sequence.
type AgentRun struct {
	Messages []AgentMessage       `json:"messages"`
	Outputs  map[AgentRole]string `json:"outputs,omitempty"`
	Degraded []AgentRole          `json:"degraded,omitempty"`
}

// Output returns the successful output for a role.
func (r AgentRun) Output(role AgentRole) (string, bool) {
	out, ok := r.Outputs[role]
	return out, ok
}

// IsDegraded returns true if the role fell back to a template.
func (r AgentRun) IsDegraded(role AgentRole) bool {
	for _, d := range r.Degraded {
		if d == role {
			return true
		}
	}
	return false
}
