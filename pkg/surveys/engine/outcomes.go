package engine

import (
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/questions"
)

// Navigation commands a respondent can send instead of an answer.
const (
	COMMAND_START  = "start"
	COMMAND_BACK   = "back"
	COMMAND_SKIP   = "skip"
	COMMAND_CANCEL = "cancel"
)

// TurnInput is one inbound turn: either a navigation command or a raw answer
// for the current question. QuestionID optionally echoes the prompted
// question so re-delivered answers for an already advanced question can be
// rejected instead of re-applied.
type TurnInput struct {
	Command    string `json:"command,omitempty"`
	SurveyKey  string `json:"surveyKey,omitempty"` // with the start command
	QuestionID int64  `json:"questionId,omitempty"`
	RawInput   string `json:"input,omitempty"`
}

const (
	OUTCOME_PROMPTED            = "prompted"
	OUTCOME_VALIDATION_FAILED   = "validation_failed"
	OUTCOME_NAVIGATION_REJECTED = "navigation_rejected"
	OUTCOME_COMPLETED           = "completed"
	OUTCOME_CANCELLED           = "cancelled"
	OUTCOME_NO_ACTIVE_SESSION   = "no_active_session"
)

// TurnOutcome is the engine's answer to one turn. Every expected condition is
// reported through this type; only unexpected faults cross the engine
// boundary as errors.
type TurnOutcome struct {
	Kind       string                   `json:"kind"`
	Prompt     *questions.PromptPayload `json:"prompt,omitempty"`
	Diagnostic string                   `json:"diagnostic,omitempty"`
	ResponseID string                   `json:"responseId,omitempty"`
}

func prompted(prompt questions.PromptPayload) TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_PROMPTED, Prompt: &prompt}
}

func validationFailed(diagnostic string) TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_VALIDATION_FAILED, Diagnostic: diagnostic}
}

func navigationRejected(reason string) TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_NAVIGATION_REJECTED, Diagnostic: reason}
}

func completed(responseID string) TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_COMPLETED, ResponseID: responseID}
}

func cancelled() TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_CANCELLED}
}

func noActiveSession(diagnostic string) TurnOutcome {
	return TurnOutcome{Kind: OUTCOME_NO_ACTIVE_SESSION, Diagnostic: diagnostic}
}
