package questions

import (
	"fmt"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// PositionInfo tells the renderer where the respondent is; with branching the
// total question count is unknown up front, so only the visited count is
// carried.
type PositionInfo struct {
	Visited  int  `json:"visited"`
	Required bool `json:"required"`
}

type PromptPayload struct {
	QuestionID int64          `json:"questionId"`
	Type       string         `json:"type"`
	Text       string         `json:"text"`
	Hint       string         `json:"hint,omitempty"`
	Options    []PromptOption `json:"options,omitempty"`
	Position   PositionInfo   `json:"position"`
	// Previous carries the answer given earlier at this position when the
	// question is re-presented after back navigation, so the transport can
	// show it without a storage round trip.
	Previous *surveyTypes.AnswerValue `json:"previous,omitempty"`
}

type PromptOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ValidationError marks respondent facing input problems; the conversation
// engine re-presents the question instead of treating them as faults.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Capability is the pluggable per question type contract: render a prompt and
// parse/validate one raw answer. The engine only dispatches through the
// registry, it never branches on the type tag itself.
type Capability struct {
	Render   func(q surveyTypes.Question, pos PositionInfo) PromptPayload
	Validate func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error)
}

type Registry map[string]Capability

func (r Registry) ForType(tag string) (Capability, error) {
	capability, ok := r[tag]
	if !ok {
		return Capability{}, fmt.Errorf("no capability registered for question type '%s'", tag)
	}
	return capability, nil
}

// DefaultRegistry returns the built in capability table.
func DefaultRegistry() Registry {
	return Registry{
		surveyTypes.QUESTION_TYPE_TEXT:          textCapability(),
		surveyTypes.QUESTION_TYPE_SINGLE_CHOICE: singleChoiceCapability(),
		surveyTypes.QUESTION_TYPE_MULTI_CHOICE:  multiChoiceCapability(),
		surveyTypes.QUESTION_TYPE_NUMBER:        numberCapability(),
		surveyTypes.QUESTION_TYPE_DATE:          dateCapability(),
		surveyTypes.QUESTION_TYPE_LOCATION:      locationCapability(),
	}
}

func basePrompt(q surveyTypes.Question, pos PositionInfo) PromptPayload {
	return PromptPayload{
		QuestionID: q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Position:   pos,
	}
}
