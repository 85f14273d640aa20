package domain

import "time"

// RegistrationStepCount is the number of intake steps.
const RegistrationStepCount = 4

// RegistrationProgress tracks a multi-step membership application. The
// tracking number is the only key an applicant needs to resume; it is stored
// uppercase and looked up case-insensitively.
type RegistrationProgress struct {
	ID             string
	TrackingNumber string
	MemberID       string

	// Step 2: personal details.
	Gender      *string
	DateOfBirth *time.Time
	HomeAddress *string
	District    *string

	// Step 3: union placement.
	Region   *string
	VoteName *string

	// Step 4: employment details.
	Salary         *string
	ComputerNumber *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StepComplete reports whether the given step's fields are all populated.
// Step 1 is complete by construction: the record only exists once the
// identity and minimal profile were created.
func (p *RegistrationProgress) StepComplete(step int) bool {
	switch step {
	case 1:
		return true
	case 2:
		return strSet(p.Gender) && p.DateOfBirth != nil && strSet(p.HomeAddress) && strSet(p.District)
	case 3:
		return strSet(p.Region) && strSet(p.VoteName)
	case 4:
		return strSet(p.Salary) || strSet(p.ComputerNumber)
	default:
		return false
	}
}

// CompletedSteps lists every complete step in ascending order. Completion is
// derived from field presence, so out-of-order entry is tolerated.
func (p *RegistrationProgress) CompletedSteps() []int {
	steps := make([]int, 0, RegistrationStepCount)
	for step := 1; step <= RegistrationStepCount; step++ {
		if p.StepComplete(step) {
			steps = append(steps, step)
		}
	}
	return steps
}

// NextStep returns the lowest incomplete step, or RegistrationStepCount+1
// when the application is fully entered.
func (p *RegistrationProgress) NextStep() int {
	for step := 1; step <= RegistrationStepCount; step++ {
		if !p.StepComplete(step) {
			return step
		}
	}
	return RegistrationStepCount + 1
}

func strSet(s *string) bool {
	return s != nil && *s != ""
}
