package types

import (
	"errors"
	"fmt"
)

// NextStep is a transition target: either a specific question of the same
// survey or the end-of-survey sink, never both.
type NextStep struct {
	QuestionID int64 `bson:"questionID,omitempty" json:"questionId,omitempty"`
	End        bool  `bson:"end,omitempty" json:"end,omitempty"`
}

func NextStepGoTo(questionID int64) (NextStep, error) {
	if questionID <= 0 {
		return NextStep{}, fmt.Errorf("next step target must be a positive question ID, got %d", questionID)
	}
	return NextStep{QuestionID: questionID}, nil
}

func NextStepEnd() NextStep {
	return NextStep{End: true}
}

// IsZero reports whether no transition is defined, in which case the
// sequential order fallback applies.
func (ns NextStep) IsZero() bool {
	return !ns.End && ns.QuestionID == 0
}

func (ns NextStep) IsEnd() bool {
	return ns.End
}

// CheckIntegrity guards values that arrived through decoding instead of the
// constructors.
func (ns NextStep) CheckIntegrity() error {
	if ns.End && ns.QuestionID != 0 {
		return errors.New("next step cannot have both a target question and the end marker")
	}
	if ns.QuestionID < 0 {
		return fmt.Errorf("next step target must be a positive question ID, got %d", ns.QuestionID)
	}
	return nil
}
