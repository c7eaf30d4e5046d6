package grading

import "github.com/programme-lv/amqp-grader/internal/environment"

// Violation says what a broken response contract costs.
type Violation int

const (
	ZeroPart Violation = iota
	DeductHalf
)

type Policy struct {
	ContractViolation Violation
}

func PolicyFor(cfg environment.Config) Policy {
	if cfg.ContractViolation == environment.PolicyDeduct {
		return Policy{ContractViolation: DeductHalf}
	}
	return Policy{ContractViolation: ZeroPart}
}

// score accumulates deductions of one part run.
type score struct {
	part         PartGrader
	grade        float64
	explanations []string
}

func newScore(p PartGrader) *score {
	return &score{part: p, grade: p.MaxGrade(), explanations: []string{}}
}

// deduct removes fraction of the maximum grade.
func (s *score) deduct(fraction float64, explanation string) {
	s.grade -= s.part.MaxGrade() * fraction
	s.explanations = append(s.explanations, explanation)
}

func (s *score) zero(explanation string) {
	s.grade = 0
	s.explanations = append(s.explanations, explanation)
}

func (s *score) violation(policy Policy, explanation string) {
	if policy.ContractViolation == DeductHalf {
		s.deduct(0.5, explanation)
		return
	}
	s.zero(explanation)
}

func (s *score) result() PartResult {
	return Result(s.part, s.explanations, s.grade)
}
