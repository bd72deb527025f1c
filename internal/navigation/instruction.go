package navigation

import "github.com/smartcity/navigation/internal/domain"

// InstructionResult is the outcome of one maneuver proximity check
type InstructionResult struct {
	StepIndex     int
	LastAnnounced int
	Announcement  string
	Announced     bool
}

// CheckInstruction announces steps[stepIndex] when fix is within radius of it and
// it has not been announced yet, then moves on to the following step. Steps are
// only passed by proximity, so announcements are strictly ordered and never skipped.
func CheckInstruction(fix domain.Fix, steps []domain.Step, stepIndex, lastAnnounced int, radiusMeters float64) InstructionResult {
	res := InstructionResult{StepIndex: stepIndex, LastAnnounced: lastAnnounced}
	if stepIndex < 0 || stepIndex >= len(steps) {
		return res
	}

	step := steps[stepIndex]
	if fix.Coordinate.DistanceTo(step.Location) < radiusMeters && stepIndex != lastAnnounced {
		res.Announcement = step.Instruction
		res.Announced = true
		res.LastAnnounced = stepIndex
		res.StepIndex = stepIndex + 1
	}
	return res
}
