package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/conversation"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/questions"
	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

type fakeCatalog struct {
	surveys map[string]*surveyTypes.Survey
}

func (c *fakeCatalog) GetActiveSurvey(surveyKey string) (*surveyTypes.Survey, error) {
	survey, ok := c.surveys[surveyKey]
	if !ok {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

type fakeAnswerStore struct {
	nextID    int
	answers   map[string]map[int64]surveyTypes.Answer
	finalized map[string]bool
	discarded map[string]bool
	completed map[string]bool

	failSaveAnswer error
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{
		answers:   map[string]map[int64]surveyTypes.Answer{},
		finalized: map[string]bool{},
		discarded: map[string]bool{},
		completed: map[string]bool{},
	}
}

func (s *fakeAnswerStore) CreateResponse(surveyKey string, respondentID string) (string, error) {
	s.nextID++
	responseID := "resp-" + strconv.Itoa(s.nextID)
	s.answers[responseID] = map[int64]surveyTypes.Answer{}
	return responseID, nil
}

func (s *fakeAnswerStore) SaveAnswer(responseID string, answer surveyTypes.Answer) error {
	if s.failSaveAnswer != nil {
		return s.failSaveAnswer
	}
	if _, ok := s.answers[responseID]; !ok {
		return fmt.Errorf("unknown response %s", responseID)
	}
	s.answers[responseID][answer.QuestionID] = answer
	return nil
}

func (s *fakeAnswerStore) FinalizeResponse(responseID string) error {
	s.finalized[responseID] = true
	return nil
}

func (s *fakeAnswerStore) DiscardResponse(responseID string) error {
	s.discarded[responseID] = true
	delete(s.answers, responseID)
	return nil
}

func (s *fakeAnswerStore) HasCompletedResponse(surveyKey string, respondentID string) (bool, error) {
	return s.completed[surveyKey+"|"+respondentID], nil
}

// Q1 text -> Q2 single choice {a -> Q4, b -> End, c -> default} -> Q3 rating
// (optional) -> Q4 text.
func branchingSurvey() *surveyTypes.Survey {
	a, _ := surveyTypes.NextStepGoTo(4)
	b := surveyTypes.NextStepEnd()
	return &surveyTypes.Survey{
		SurveyKey: "wellbeing",
		Status:    surveyTypes.SURVEY_STATUS_ACTIVE,
		Questions: []surveyTypes.Question{
			{ID: 1, Position: 1, Text: "How was your day?", Type: surveyTypes.QUESTION_TYPE_TEXT, Required: true},
			{ID: 2, Position: 2, Text: "Pick one", Type: surveyTypes.QUESTION_TYPE_SINGLE_CHOICE, Required: true, Options: []surveyTypes.Option{
				{ID: 21, Label: "A", Value: "a", Next: &a},
				{ID: 22, Label: "B", Value: "b", Next: &b},
				{ID: 23, Label: "C", Value: "c"},
			}},
			{ID: 3, Position: 3, Text: "Rate 1-5", Type: surveyTypes.QUESTION_TYPE_NUMBER},
			{ID: 4, Position: 4, Text: "Anything else?", Type: surveyTypes.QUESTION_TYPE_TEXT, Required: true},
		},
	}
}

func newTestEngine(t *testing.T, inactivityWindow time.Duration) (*Engine, *fakeAnswerStore, *conversation.Store) {
	t.Helper()
	store := conversation.NewStore(inactivityWindow, time.Hour)
	t.Cleanup(store.Stop)
	answers := newFakeAnswerStore()
	catalog := &fakeCatalog{surveys: map[string]*surveyTypes.Survey{"wellbeing": branchingSurvey()}}
	return New(store, catalog, answers, questions.DefaultRegistry()), answers, store
}

func mustOutcome(t *testing.T, outcome TurnOutcome, err error, kind string) TurnOutcome {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != kind {
		t.Fatalf("unexpected outcome: %+v, want kind %s", outcome, kind)
	}
	return outcome
}

func TestStartSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("start prompts the first question", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 1 {
			t.Errorf("unexpected prompt: %+v", out.Prompt)
		}
	})

	t.Run("start while in progress is refused", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})

	t.Run("unknown survey", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "nope"})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})

	t.Run("survey without questions", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		eng.catalog.(*fakeCatalog).surveys["empty"] = &surveyTypes.Survey{SurveyKey: "empty", Status: surveyTypes.SURVEY_STATUS_ACTIVE}
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "empty"})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})

	t.Run("duplicate response refused when not allowed", func(t *testing.T) {
		eng, answers, _ := newTestEngine(t, time.Minute)
		answers.completed["wellbeing|r1"] = true
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})
}

func TestBranchingTurns(t *testing.T) {
	ctx := context.Background()

	t.Run("option override jumps over Q3", func(t *testing.T) {
		eng, answers, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "it was fine"})

		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "a"})
		out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 4 {
			t.Errorf("expected jump to question 4, got %+v", out.Prompt)
		}

		saved := answers.answers["resp-1"][2]
		if saved.ResolvedNext.QuestionID != 4 {
			t.Errorf("answer should carry the resolved transition: %+v", saved.ResolvedNext)
		}
	})

	t.Run("option override to end completes the response", func(t *testing.T) {
		eng, answers, store := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"})

		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "b"})
		out := mustOutcome(t, outcome, err, OUTCOME_COMPLETED)
		if !answers.finalized[out.ResponseID] {
			t.Error("response should be finalized")
		}
		if _, err := store.Get("r1"); !errors.Is(err, conversation.ErrNotFound) {
			t.Errorf("session should be removed after completion, got: %v", err)
		}
	})

	t.Run("default transition keeps the sequential order", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"})

		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "c"})
		out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 3 {
			t.Errorf("expected question 3, got %+v", out.Prompt)
		}
	})
}

func TestValidationFailure(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, time.Minute)

	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})

	outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "   "})
	out := mustOutcome(t, outcome, err, OUTCOME_VALIDATION_FAILED)
	if out.Diagnostic == "" {
		t.Error("validation failure should carry a diagnostic")
	}

	// no navigation happened: a valid retry still answers question 1
	outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "better now"})
	out = mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
	if out.Prompt.QuestionID != 2 {
		t.Errorf("expected question 2 after retry, got %+v", out.Prompt)
	}
}

func TestBackNavigation(t *testing.T) {
	ctx := context.Background()

	t.Run("back from the first question is refused", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_BACK})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})

	t.Run("back re-presents the previous question and allows re-answering", func(t *testing.T) {
		eng, answers, _ := newTestEngine(t, time.Minute)
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.Previous != nil {
			t.Errorf("first visit should not carry an earlier answer: %+v", out.Prompt.Previous)
		}
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "first try"})

		outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_BACK})
		out = mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 1 {
			t.Errorf("expected question 1, got %+v", out.Prompt)
		}
		if out.Prompt.Previous == nil || out.Prompt.Previous.Text != "first try" {
			t.Errorf("re-presented question should carry the cached answer: %+v", out.Prompt.Previous)
		}

		outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "second try"})
		out = mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 2 {
			t.Errorf("expected question 2, got %+v", out.Prompt)
		}
		if answers.answers["resp-1"][1].Value.Text != "second try" {
			t.Errorf("re-answer should replace the stored answer: %+v", answers.answers["resp-1"][1])
		}
	})
}

func TestSkip(t *testing.T) {
	ctx := context.Background()

	t.Run("required question cannot be skipped", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_SKIP})
		mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
	})

	t.Run("optional question skips via the default transition", func(t *testing.T) {
		eng, answers, _ := newTestEngine(t, time.Minute)
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"})
		_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "c"}) // to Q3

		outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_SKIP})
		out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
		if out.Prompt.QuestionID != 4 {
			t.Errorf("expected question 4 after skip, got %+v", out.Prompt)
		}
		if !answers.answers["resp-1"][3].Value.Skipped {
			t.Errorf("skip should be recorded: %+v", answers.answers["resp-1"][3])
		}

		outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "that is all"})
		mustOutcome(t, outcome, err, OUTCOME_COMPLETED)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	eng, answers, _ := newTestEngine(t, time.Minute)

	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"})

	outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_CANCEL})
	mustOutcome(t, outcome, err, OUTCOME_CANCELLED)
	if !answers.discarded["resp-1"] {
		t.Error("in-progress response should be discarded")
	}

	outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "hello?"})
	mustOutcome(t, outcome, err, OUTCOME_NO_ACTIVE_SESSION)
}

func TestExpiredSession(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, 10*time.Millisecond)

	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
	time.Sleep(30 * time.Millisecond)

	outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "too late"})
	out := mustOutcome(t, outcome, err, OUTCOME_NO_ACTIVE_SESSION)
	if out.Diagnostic == "" {
		t.Error("expiry should be surfaced to the respondent")
	}

	// a new start is accepted afterwards
	outcome, err = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
	mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
}

func TestStaleAnswerRejected(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, time.Minute)

	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})
	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{QuestionID: 1, RawInput: "fine"})

	// transport re-delivers the answer for question 1 after the session moved on
	outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{QuestionID: 1, RawInput: "fine"})
	mustOutcome(t, outcome, err, OUTCOME_NAVIGATION_REJECTED)
}

func TestFaultLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	eng, answers, store := newTestEngine(t, time.Minute)

	_, _ = eng.HandleTurn(ctx, "r1", TurnInput{Command: COMMAND_START, SurveyKey: "wellbeing"})

	answers.failSaveAnswer = errors.New("storage unreachable")
	if _, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"}); err == nil {
		t.Fatal("should propagate the fault")
	}

	state, err := store.Get("r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.CurrentQuestionID != 1 {
		t.Errorf("state must not advance on fault: %+v", state)
	}

	answers.failSaveAnswer = nil
	outcome, err := eng.HandleTurn(ctx, "r1", TurnInput{RawInput: "fine"})
	out := mustOutcome(t, outcome, err, OUTCOME_PROMPTED)
	if out.Prompt.QuestionID != 2 {
		t.Errorf("expected question 2 after recovery, got %+v", out.Prompt)
	}
}
