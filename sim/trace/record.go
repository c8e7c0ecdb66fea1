// Package trace provides decision-trace recording for allocation policy analysis.
// It has no dependency on sim and stores pure data types.
package trace

// UserShare captures one user's part of an allocation decision.
type UserShare struct {
	UserID      int
	BandwidthHz float64
	Weight      float64 // policy weight; 0 for equal-share decisions
}

// AllocationRecord captures a single allocation policy decision.
type AllocationRecord struct {
	Step      int
	Policy    string
	Bootstrap bool        // proportional-fair weighted only users without a rate average
	Shares    []UserShare // in user order
}
