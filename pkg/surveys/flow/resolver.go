package flow

import (
	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// Resolve computes the transition the engine takes after the given answer.
// Precedence, first match wins:
//  1. the selected option's override (choice questions, first selected
//     option only),
//  2. the question's default transition,
//  3. sequential order: the next higher position, or End if none exists.
//
// Resolve is a pure read over the survey definition and the single answer.
func Resolve(survey *surveyTypes.Survey, question surveyTypes.Question, value surveyTypes.AnswerValue) surveyTypes.NextStep {
	if question.IsChoiceType() {
		if optionID, ok := value.FirstSelectedOption(); ok {
			if opt, found := question.OptionByID(optionID); found {
				if opt.Next != nil && !opt.Next.IsZero() {
					return *opt.Next
				}
			}
		}
	}

	return defaultEdge(survey, question)
}
