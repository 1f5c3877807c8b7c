package conversation

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// Lifecycle phases of one respondent session. "Awaiting answer for question
// X" is not a phase of its own; it is carried by CurrentQuestionID, so a
// failed validation never changes phase.
const (
	PHASE_IDLE             = "idle"
	PHASE_SELECTING_SURVEY = "selecting_survey"
	PHASE_IN_PROGRESS      = "in_progress"
	PHASE_COMPLETED        = "completed"
	PHASE_CANCELLED        = "cancelled"
	PHASE_EXPIRED          = "expired"
)

const (
	EVENT_SELECT_SURVEY = "select_survey"
	EVENT_BEGIN         = "begin"
	EVENT_COMPLETE      = "complete"
	EVENT_CANCEL        = "cancel"
	EVENT_EXPIRE        = "expire"
)

// State tracks one respondent's progress through one in-progress response.
// At most one State exists per respondent at a time.
type State struct {
	RespondentID      string
	SurveyKey         string
	ResponseID        string
	CurrentQuestionID int64
	Answered          map[int]bool // order positions with a stored answer
	Skipped           map[int]bool // order positions skipped
	// AnswerCache keeps the last validated answer per visited position so
	// "back" works without re-querying storage.
	AnswerCache  map[int]surveyTypes.AnswerValue
	Visited      []int // positions in visit order; the last one is current
	Phase        string
	CreatedAt    time.Time
	LastActivity time.Time
	Metadata     map[string]string

	machine *fsm.FSM
}

func NewState(respondentID string, now time.Time) *State {
	return &State{
		RespondentID: respondentID,
		Answered:     map[int]bool{},
		Skipped:      map[int]bool{},
		AnswerCache:  map[int]surveyTypes.AnswerValue{},
		Phase:        PHASE_IDLE,
		CreatedAt:    now,
		LastActivity: now,
		Metadata:     map[string]string{},
	}
}

// Clone returns a deep copy. Turn handling mutates the copy and only puts it
// back on success, so a failed turn leaves the stored state untouched.
func (s *State) Clone() *State {
	clone := *s
	clone.machine = nil
	clone.Answered = make(map[int]bool, len(s.Answered))
	for k, v := range s.Answered {
		clone.Answered[k] = v
	}
	clone.Skipped = make(map[int]bool, len(s.Skipped))
	for k, v := range s.Skipped {
		clone.Skipped[k] = v
	}
	clone.AnswerCache = make(map[int]surveyTypes.AnswerValue, len(s.AnswerCache))
	for k, v := range s.AnswerCache {
		clone.AnswerCache[k] = v
	}
	clone.Visited = append([]int{}, s.Visited...)
	clone.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}

func newPhaseMachine(current string) *fsm.FSM {
	return fsm.NewFSM(
		current,
		fsm.Events{
			{Name: EVENT_SELECT_SURVEY, Src: []string{PHASE_IDLE}, Dst: PHASE_SELECTING_SURVEY},
			{Name: EVENT_BEGIN, Src: []string{PHASE_SELECTING_SURVEY}, Dst: PHASE_IN_PROGRESS},
			{Name: EVENT_COMPLETE, Src: []string{PHASE_IN_PROGRESS}, Dst: PHASE_COMPLETED},
			{Name: EVENT_CANCEL, Src: []string{PHASE_SELECTING_SURVEY, PHASE_IN_PROGRESS}, Dst: PHASE_CANCELLED},
			{Name: EVENT_EXPIRE, Src: []string{PHASE_IDLE, PHASE_SELECTING_SURVEY, PHASE_IN_PROGRESS}, Dst: PHASE_EXPIRED},
		},
		fsm.Callbacks{},
	)
}

// AdvancePhase runs one lifecycle event; an illegal transition is returned as
// an error and leaves the phase unchanged.
func (s *State) AdvancePhase(ctx context.Context, event string) error {
	if s.machine == nil || s.machine.Current() != s.Phase {
		s.machine = newPhaseMachine(s.Phase)
	}
	if err := s.machine.Event(ctx, event); err != nil {
		return err
	}
	s.Phase = s.machine.Current()
	return nil
}

func (s *State) InProgress() bool {
	return s.Phase == PHASE_IN_PROGRESS
}

// CurrentPosition returns the order position the respondent is currently at.
func (s *State) CurrentPosition() (int, bool) {
	if len(s.Visited) == 0 {
		return 0, false
	}
	return s.Visited[len(s.Visited)-1], true
}

// MoveTo appends the position of the next question to the visit history.
func (s *State) MoveTo(questionID int64, position int) {
	s.CurrentQuestionID = questionID
	s.Visited = append(s.Visited, position)
}

// StepBack drops the current position from the visit history and returns the
// previous one. The caller must ensure there is somewhere to go back to.
func (s *State) StepBack() int {
	s.Visited = s.Visited[:len(s.Visited)-1]
	return s.Visited[len(s.Visited)-1]
}

// RecordAnswer stores a validated answer for the position, replacing an
// earlier one after back navigation.
func (s *State) RecordAnswer(position int, value surveyTypes.AnswerValue) {
	if value.Skipped {
		s.Skipped[position] = true
		delete(s.Answered, position)
	} else {
		s.Answered[position] = true
		delete(s.Skipped, position)
	}
	s.AnswerCache[position] = value
}

// VisitedAccountedFor reports whether every visited position is either
// answered or skipped; branching may leave whole subtrees unvisited, so the
// survey's total question count never enters this check.
func (s *State) VisitedAccountedFor() bool {
	for _, position := range s.Visited {
		if !s.Answered[position] && !s.Skipped[position] {
			return false
		}
	}
	return true
}
