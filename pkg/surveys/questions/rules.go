package questions

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

// applyValidationRule evaluates the question's optional validation rule with
// the parsed answer bound to "value". A failing rule is a respondent facing
// validation error; a rule that does not compile or does not return a boolean
// is an authoring fault.
func applyValidationRule(q surveyTypes.Question, value interface{}) error {
	if q.Config == nil || q.Config.ValidationRule == "" {
		return nil
	}

	ok, err := evaluateRule(q.Config.ValidationRule, map[string]interface{}{"value": value})
	if err != nil {
		return fmt.Errorf("validation rule of question %d: %w", q.ID, err)
	}
	if !ok {
		return invalidf("answer does not satisfy the validation rule")
	}
	return nil
}

func evaluateRule(rule string, input map[string]interface{}) (bool, error) {
	program, err := expr.Compile(rule, expr.Env(input))
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, input)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, errors.New("expression did not return a boolean")
	}
	return result, nil
}
