package sct

import (
	"iter"
)

// Check inspects a State. It returns the State later checks of a chain should
// look at, or a *Failure when the submission does not pass.
//
// A nil State with a nil error means the check passed without producing a
// new State; chains keep using the State they already hold.
type Check func(rep *Reporter, s *State) (*State, error)

// Chain runs checks one after the other, each on the State the previous one returned
func Chain(checks ...Check) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		current := s
		for _, check := range checks {
			if check == nil {
				continue
			}
			next, err := check(rep, current)
			if err != nil {
				return nil, err
			}
			if next != nil {
				current = next
			}
		}
		return current, nil
	}
}

// Multi runs every check on the same State, in order, and stops at the first failure.
// On success it returns the State it was given, whatever the checks returned.
func Multi(checks ...Check) Check {
	return MultiSeq(func(yield func(Check) bool) {
		for _, check := range checks {
			if !yield(check) {
				return
			}
		}
	})
}

// MultiSeq is Multi over a lazily produced sequence of checks
func MultiSeq(checks iter.Seq[Check]) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		for check := range checks {
			if check == nil {
				continue
			}
			_, err := rep.DoTest(TestFunc(func() (*State, error) {
				return check(rep, s)
			}))
			if err != nil {
				return nil, err
			}
		}
		return s, nil
	}
}

// CheckNot expects every check to fail. The first one that passes fails
// CheckNot with msg and the remaining checks are not run.
func CheckNot(msg string, checks ...Check) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		for _, check := range checks {
			_, err := Multi(check)(rep, s)
			if _, failed := AsFailure(err); failed {
				continue
			}
			if err != nil {
				return nil, err
			}
			return rep.DoTest(MessageTest(msg))
		}
		return s, nil
	}
}

// CheckOr passes as soon as one of the checks passes; later checks are not run.
// When they all fail, the feedback of the first one is reported.
//
// On success CheckOr produces no State.
func CheckOr(checks ...Check) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		if len(checks) == 0 {
			return nil, Authoring(EmptyCheckOr, "`check_or()` needs at least one check")
		}
		var first *Feedback
		for _, check := range checks {
			_, err := Multi(check)(rep, s)
			if err == nil {
				return nil, nil
			}
			fb, failed := AsFailure(err)
			if !failed {
				return nil, err
			}
			if first == nil {
				first = fb
			}
		}
		return rep.DoTest(FeedbackTest{Feedback: first})
	}
}

// CheckCorrect runs check and then diagnose, and reports at most one feedback:
// the diagnose feedback when check failed (or the State forces diagnosis) and
// diagnose failed too, the check feedback when only check failed.
//
// On success CheckCorrect produces no State.
func CheckCorrect(check, diagnose Check) Check {
	return func(rep *Reporter, s *State) (*State, error) {
		var feedback *Feedback

		_, err := Multi(check)(rep, s)
		if fb, failed := AsFailure(err); failed {
			feedback = fb
		} else if err != nil {
			return nil, err
		}

		_, err = Multi(diagnose)(rep, s)
		if fb, failed := AsFailure(err); failed {
			if feedback != nil || s.ForceDiagnose() {
				feedback = fb
			}
		} else if err != nil {
			return nil, err
		}

		if feedback != nil {
			return rep.DoTest(FeedbackTest{Feedback: feedback})
		}
		return nil, nil
	}
}
