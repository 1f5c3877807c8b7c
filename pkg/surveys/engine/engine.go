package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/conversation"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/flow"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/questions"
	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// ErrSurveyNotFound is what the catalog reports when no active survey exists
// under the requested key.
var ErrSurveyNotFound = errors.New("active survey not found")

// SurveyCatalog provides survey definitions; only active surveys accept
// respondents.
type SurveyCatalog interface {
	GetActiveSurvey(surveyKey string) (*surveyTypes.Survey, error)
}

// AnswerStore records answers durably, outside this subsystem.
type AnswerStore interface {
	CreateResponse(surveyKey string, respondentID string) (responseID string, err error)
	SaveAnswer(responseID string, answer surveyTypes.Answer) error
	FinalizeResponse(responseID string) error
	DiscardResponse(responseID string) error
	HasCompletedResponse(surveyKey string, respondentID string) (bool, error)
}

const (
	reasonAlreadyInProgress  = "a survey is already in progress, finish or cancel it first"
	reasonSurveyNotAvailable = "survey is not available"
	reasonNoQuestions        = "survey has no questions"
	reasonAlreadyResponded   = "this survey accepts only one response per respondent"
	reasonAtFirstQuestion    = "already at the first question"
	reasonRequiredQuestion   = "this question is required and cannot be skipped"
	reasonStaleQuestion      = "no active question at that position"
	reasonUnknownCommand     = "unknown command"

	noticeExpired   = "the previous session expired due to inactivity, start the survey again to continue"
	noticeNoSession = "no survey in progress, start one first"
)

// Engine drives one respondent turn at a time: present the current question,
// validate the input, persist the answer and follow the branching graph to
// the next question or the end of the survey.
type Engine struct {
	sessions *conversation.Store
	catalog  SurveyCatalog
	answers  AnswerStore
	caps     questions.Registry
}

func New(sessions *conversation.Store, catalog SurveyCatalog, answers AnswerStore, caps questions.Registry) *Engine {
	return &Engine{
		sessions: sessions,
		catalog:  catalog,
		answers:  answers,
		caps:     caps,
	}
}

// HandleTurn processes one inbound turn for a respondent. Expected
// conditions are reported as typed outcomes; an error return means an
// internal fault, in which case the stored conversation state was not
// changed.
func (e *Engine) HandleTurn(ctx context.Context, respondentID string, input TurnInput) (TurnOutcome, error) {
	if respondentID == "" {
		return TurnOutcome{}, errors.New("respondent ID is required")
	}

	release := e.sessions.Acquire(respondentID)
	defer release()

	state, err := e.sessions.Get(respondentID)
	expired := errors.Is(err, conversation.ErrExpired)
	if err != nil && !expired && !errors.Is(err, conversation.ErrNotFound) {
		return TurnOutcome{}, err
	}

	switch input.Command {
	case COMMAND_START:
		return e.startSurvey(ctx, respondentID, input.SurveyKey, state)
	case COMMAND_CANCEL:
		return e.cancelSurvey(ctx, respondentID, state, expired)
	case COMMAND_BACK:
		return e.stepBack(respondentID, state, expired)
	case COMMAND_SKIP:
		return e.skipQuestion(ctx, respondentID, state, expired)
	case "":
		return e.applyAnswer(ctx, respondentID, state, expired, input)
	default:
		return navigationRejected(reasonUnknownCommand), nil
	}
}

func (e *Engine) startSurvey(ctx context.Context, respondentID string, surveyKey string, state *conversation.State) (TurnOutcome, error) {
	if state != nil && state.InProgress() {
		return navigationRejected(reasonAlreadyInProgress), nil
	}

	survey, err := e.catalog.GetActiveSurvey(surveyKey)
	if err != nil {
		if errors.Is(err, ErrSurveyNotFound) {
			return navigationRejected(reasonSurveyNotAvailable), nil
		}
		return TurnOutcome{}, err
	}

	first, ok := survey.FirstQuestion()
	if !ok {
		return navigationRejected(reasonNoQuestions), nil
	}

	if !survey.AllowMultipleResponses {
		done, err := e.answers.HasCompletedResponse(survey.SurveyKey, respondentID)
		if err != nil {
			return TurnOutcome{}, err
		}
		if done {
			return navigationRejected(reasonAlreadyResponded), nil
		}
	}

	responseID, err := e.answers.CreateResponse(survey.SurveyKey, respondentID)
	if err != nil {
		return TurnOutcome{}, err
	}

	fresh := conversation.NewState(respondentID, time.Now())
	fresh.SurveyKey = survey.SurveyKey
	fresh.ResponseID = responseID
	if err := fresh.AdvancePhase(ctx, conversation.EVENT_SELECT_SURVEY); err != nil {
		return TurnOutcome{}, err
	}
	if err := fresh.AdvancePhase(ctx, conversation.EVENT_BEGIN); err != nil {
		return TurnOutcome{}, err
	}
	fresh.MoveTo(first.ID, first.Position)

	prompt, err := e.renderPrompt(survey, first, fresh)
	if err != nil {
		return TurnOutcome{}, err
	}

	e.sessions.Put(respondentID, fresh)
	slog.Debug("survey started", slog.String("respondentID", respondentID), slog.String("surveyKey", survey.SurveyKey), slog.String("responseID", responseID))
	return prompted(prompt), nil
}

func (e *Engine) applyAnswer(ctx context.Context, respondentID string, state *conversation.State, expired bool, input TurnInput) (TurnOutcome, error) {
	if state == nil || !state.InProgress() {
		return noSessionOutcome(expired), nil
	}

	survey, question, err := e.currentQuestion(state)
	if err != nil {
		return TurnOutcome{}, err
	}

	// A re-delivered answer for a question the session already advanced past
	// is rejected, not re-applied.
	if input.QuestionID != 0 && input.QuestionID != question.ID {
		return navigationRejected(reasonStaleQuestion), nil
	}

	capability, err := e.caps.ForType(question.Type)
	if err != nil {
		return TurnOutcome{}, err
	}

	value, err := capability.Validate(question, input.RawInput)
	if err != nil {
		var vErr *questions.ValidationError
		if errors.As(err, &vErr) {
			// no navigation: the same question is re-presented and the
			// respondent may retry; activity is refreshed
			e.sessions.Put(respondentID, state)
			return validationFailed(vErr.Msg), nil
		}
		return TurnOutcome{}, err
	}

	return e.advance(ctx, respondentID, state, survey, question, value)
}

func (e *Engine) skipQuestion(ctx context.Context, respondentID string, state *conversation.State, expired bool) (TurnOutcome, error) {
	if state == nil || !state.InProgress() {
		return noSessionOutcome(expired), nil
	}

	survey, question, err := e.currentQuestion(state)
	if err != nil {
		return TurnOutcome{}, err
	}

	if question.Required {
		return navigationRejected(reasonRequiredQuestion), nil
	}

	// a skip advances exactly like an answer, via the question's default
	// transition since no option is selected
	return e.advance(ctx, respondentID, state, survey, question, surveyTypes.AnswerValue{Skipped: true})
}

// advance persists the answer, resolves the next step and either moves the
// session forward or finalizes the response.
func (e *Engine) advance(ctx context.Context, respondentID string, state *conversation.State, survey *surveyTypes.Survey, question surveyTypes.Question, value surveyTypes.AnswerValue) (TurnOutcome, error) {
	next := flow.Resolve(survey, question, value)

	answer := surveyTypes.Answer{
		ResponseID:   state.ResponseID,
		QuestionID:   question.ID,
		Position:     question.Position,
		Value:        value,
		ResolvedNext: next,
		UpdatedAt:    time.Now().Unix(),
	}
	if err := e.answers.SaveAnswer(state.ResponseID, answer); err != nil {
		return TurnOutcome{}, err
	}

	work := state.Clone()
	work.RecordAnswer(question.Position, value)

	if next.IsEnd() {
		if !work.VisitedAccountedFor() {
			return TurnOutcome{}, fmt.Errorf("conversation state inconsistent for respondent %s: visited positions without answers", respondentID)
		}
		if err := work.AdvancePhase(ctx, conversation.EVENT_COMPLETE); err != nil {
			return TurnOutcome{}, err
		}
		if err := e.answers.FinalizeResponse(work.ResponseID); err != nil {
			return TurnOutcome{}, err
		}
		e.sessions.Remove(respondentID)
		slog.Debug("survey completed", slog.String("respondentID", respondentID), slog.String("surveyKey", work.SurveyKey), slog.String("responseID", work.ResponseID))
		return completed(work.ResponseID), nil
	}

	target, ok := survey.QuestionByID(next.QuestionID)
	if !ok {
		// activation time validation makes this unreachable for certified
		// surveys
		return TurnOutcome{}, fmt.Errorf("resolved transition references unknown question %d in survey %s", next.QuestionID, survey.SurveyKey)
	}
	work.MoveTo(target.ID, target.Position)

	prompt, err := e.renderPrompt(survey, target, work)
	if err != nil {
		return TurnOutcome{}, err
	}

	e.sessions.Put(respondentID, work)
	return prompted(prompt), nil
}

func (e *Engine) stepBack(respondentID string, state *conversation.State, expired bool) (TurnOutcome, error) {
	if state == nil || !state.InProgress() {
		return noSessionOutcome(expired), nil
	}

	if len(state.Visited) <= 1 {
		return navigationRejected(reasonAtFirstQuestion), nil
	}

	survey, _, err := e.currentQuestion(state)
	if err != nil {
		return TurnOutcome{}, err
	}

	work := state.Clone()
	previousPosition := work.StepBack()
	previous, ok := survey.QuestionByPosition(previousPosition)
	if !ok {
		return TurnOutcome{}, fmt.Errorf("visited position %d not found in survey %s", previousPosition, survey.SurveyKey)
	}
	work.CurrentQuestionID = previous.ID

	prompt, err := e.renderPrompt(survey, previous, work)
	if err != nil {
		return TurnOutcome{}, err
	}

	e.sessions.Put(respondentID, work)
	return prompted(prompt), nil
}

func (e *Engine) cancelSurvey(ctx context.Context, respondentID string, state *conversation.State, expired bool) (TurnOutcome, error) {
	if state == nil {
		return noSessionOutcome(expired), nil
	}

	// the in-progress response is discarded, not archived
	if err := e.answers.DiscardResponse(state.ResponseID); err != nil {
		return TurnOutcome{}, err
	}

	work := state.Clone()
	if err := work.AdvancePhase(ctx, conversation.EVENT_CANCEL); err != nil {
		return TurnOutcome{}, err
	}
	e.sessions.Remove(respondentID)
	slog.Debug("survey cancelled", slog.String("respondentID", respondentID), slog.String("surveyKey", work.SurveyKey))
	return cancelled(), nil
}

func (e *Engine) currentQuestion(state *conversation.State) (*surveyTypes.Survey, surveyTypes.Question, error) {
	survey, err := e.catalog.GetActiveSurvey(state.SurveyKey)
	if err != nil {
		return nil, surveyTypes.Question{}, err
	}
	question, ok := survey.QuestionByID(state.CurrentQuestionID)
	if !ok {
		return nil, surveyTypes.Question{}, fmt.Errorf("current question %d not found in survey %s", state.CurrentQuestionID, state.SurveyKey)
	}
	return survey, question, nil
}

func (e *Engine) renderPrompt(survey *surveyTypes.Survey, question surveyTypes.Question, state *conversation.State) (questions.PromptPayload, error) {
	capability, err := e.caps.ForType(question.Type)
	if err != nil {
		return questions.PromptPayload{}, err
	}
	pos := questions.PositionInfo{
		Visited:  len(state.Visited),
		Required: question.Required,
	}
	prompt := capability.Render(question, pos)
	// a revisited position carries its cached answer so "back" does not need
	// a storage round trip
	if cached, ok := state.AnswerCache[question.Position]; ok {
		prompt.Previous = &cached
	}
	return prompt, nil
}

func noSessionOutcome(expired bool) TurnOutcome {
	if expired {
		return noActiveSession(noticeExpired)
	}
	return noActiveSession(noticeNoSession)
}
