package flow

import (
	"fmt"
	"strconv"
	"strings"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// CycleError reports a loop in the branching graph. Path holds the question
// IDs forming the loop, in traversal order, ending with the revisited node.
type CycleError struct {
	Path []int64
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "cycle detected in branching graph: " + strings.Join(parts, " -> ")
}

// Validate certifies a survey before it may accept respondents: question IDs
// and order positions are unique, every stored transition is well formed, and
// the branching graph is acyclic starting from the first question, following
// every default transition and every option override. Runtime traversal
// relies on this gate and performs no loop detection of its own.
func Validate(survey *surveyTypes.Survey) error {
	if err := checkQuestionSet(survey); err != nil {
		return err
	}

	first, ok := survey.FirstQuestion()
	if !ok {
		return nil
	}

	v := &validator{
		survey:   survey,
		onStack:  map[int64]bool{},
		done:     map[int64]bool{},
		maxDepth: len(survey.Questions),
	}
	return v.visit(first.ID, []int64{})
}

// checkQuestionSet rejects duplicate question IDs or order positions and
// transitions decoded into an illegal shape. Authored surveys arrive through
// JSON binding, not the NextStep constructors, so the constructor invariant
// is re-established here.
func checkQuestionSet(survey *surveyTypes.Survey) error {
	ids := map[int64]bool{}
	positions := map[int]bool{}
	for _, question := range survey.Questions {
		if ids[question.ID] {
			return fmt.Errorf("duplicate question ID %d", question.ID)
		}
		ids[question.ID] = true
		if positions[question.Position] {
			return fmt.Errorf("order position %d is used by more than one question", question.Position)
		}
		positions[question.Position] = true

		if question.Default != nil {
			if err := question.Default.CheckIntegrity(); err != nil {
				return fmt.Errorf("default transition of question %d: %w", question.ID, err)
			}
		}
		for _, opt := range question.Options {
			if opt.Next == nil {
				continue
			}
			if err := opt.Next.CheckIntegrity(); err != nil {
				return fmt.Errorf("transition of option %d on question %d: %w", opt.ID, question.ID, err)
			}
		}
	}
	return nil
}

type validator struct {
	survey   *surveyTypes.Survey
	onStack  map[int64]bool
	done     map[int64]bool
	maxDepth int
}

func (v *validator) visit(questionID int64, stack []int64) error {
	if v.onStack[questionID] {
		return &CycleError{Path: cyclePath(stack, questionID)}
	}
	if v.done[questionID] {
		return nil
	}
	// A well formed graph never nests deeper than the question count; going
	// past it means the traversal is looping.
	if len(stack) >= v.maxDepth {
		return &CycleError{Path: append(append([]int64{}, stack...), questionID)}
	}

	question, ok := v.survey.QuestionByID(questionID)
	if !ok {
		return fmt.Errorf("branching graph references unknown question %d", questionID)
	}

	v.onStack[questionID] = true
	stack = append(stack, questionID)

	for _, edge := range outgoingEdges(v.survey, question) {
		if edge.IsEnd() {
			continue
		}
		if err := v.visit(edge.QuestionID, stack); err != nil {
			return err
		}
	}

	v.onStack[questionID] = false
	v.done[questionID] = true
	return nil
}

// outgoingEdges enumerates the question's default transition and each option
// override, falling back to sequential order when no default is set.
func outgoingEdges(survey *surveyTypes.Survey, question surveyTypes.Question) []surveyTypes.NextStep {
	edges := []surveyTypes.NextStep{defaultEdge(survey, question)}
	if question.IsChoiceType() {
		for _, opt := range question.Options {
			if opt.Next != nil && !opt.Next.IsZero() {
				edges = append(edges, *opt.Next)
			}
		}
	}
	return edges
}

func defaultEdge(survey *surveyTypes.Survey, question surveyTypes.Question) surveyTypes.NextStep {
	if question.Default != nil && !question.Default.IsZero() {
		return *question.Default
	}
	next, ok := survey.NextByPosition(question.Position)
	if !ok {
		return surveyTypes.NextStepEnd()
	}
	step, err := surveyTypes.NextStepGoTo(next.ID)
	if err != nil {
		return surveyTypes.NextStepEnd()
	}
	return step
}

// cyclePath trims the recursion stack to the segment that forms the loop and
// closes it with the revisited question.
func cyclePath(stack []int64, revisited int64) []int64 {
	start := 0
	for i, id := range stack {
		if id == revisited {
			start = i
			break
		}
	}
	path := append([]int64{}, stack[start:]...)
	return append(path, revisited)
}
