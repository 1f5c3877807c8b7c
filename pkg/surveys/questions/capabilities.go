package questions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

const dateInputLayout = "2006-01-02"

func textCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			return basePrompt(q, pos)
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			text := strings.TrimSpace(rawInput)
			if text == "" {
				return surveyTypes.AnswerValue{}, invalidf("answer cannot be empty")
			}
			value := surveyTypes.AnswerValue{Text: text}
			if err := applyValidationRule(q, text); err != nil {
				return surveyTypes.AnswerValue{}, err
			}
			return value, nil
		},
	}
}

func singleChoiceCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			prompt := basePrompt(q, pos)
			prompt.Hint = "select one option"
			prompt.Options = promptOptions(q)
			return prompt
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			selected, err := matchOptions(q, rawInput)
			if err != nil {
				return surveyTypes.AnswerValue{}, err
			}
			if len(selected) != 1 {
				return surveyTypes.AnswerValue{}, invalidf("select exactly one option")
			}
			return surveyTypes.AnswerValue{SelectedOptionIDs: selected}, nil
		},
	}
}

func multiChoiceCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			prompt := basePrompt(q, pos)
			prompt.Hint = "select one or more options, separated by commas"
			prompt.Options = promptOptions(q)
			return prompt
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			selected, err := matchOptions(q, rawInput)
			if err != nil {
				return surveyTypes.AnswerValue{}, err
			}
			if len(selected) == 0 {
				return surveyTypes.AnswerValue{}, invalidf("select at least one option")
			}
			if q.Config != nil && q.Config.MaxSelections > 0 && len(selected) > q.Config.MaxSelections {
				return surveyTypes.AnswerValue{}, invalidf("select at most %d options", q.Config.MaxSelections)
			}
			return surveyTypes.AnswerValue{SelectedOptionIDs: selected}, nil
		},
	}
}

func numberCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			prompt := basePrompt(q, pos)
			prompt.Hint = numberHint(q)
			return prompt
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			number, err := strconv.ParseFloat(strings.TrimSpace(rawInput), 64)
			if err != nil {
				return surveyTypes.AnswerValue{}, invalidf("'%s' is not a number", strings.TrimSpace(rawInput))
			}
			if q.Config != nil {
				if q.Config.Min != nil && number < *q.Config.Min {
					return surveyTypes.AnswerValue{}, invalidf("value must be at least %v", *q.Config.Min)
				}
				if q.Config.Max != nil && number > *q.Config.Max {
					return surveyTypes.AnswerValue{}, invalidf("value must be at most %v", *q.Config.Max)
				}
			}
			if err := applyValidationRule(q, number); err != nil {
				return surveyTypes.AnswerValue{}, err
			}
			return surveyTypes.AnswerValue{Number: &number}, nil
		},
	}
}

func dateCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			prompt := basePrompt(q, pos)
			prompt.Hint = "enter a date as YYYY-MM-DD"
			return prompt
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			parsed, err := time.Parse(dateInputLayout, strings.TrimSpace(rawInput))
			if err != nil {
				return surveyTypes.AnswerValue{}, invalidf("'%s' is not a date in YYYY-MM-DD format", strings.TrimSpace(rawInput))
			}
			ts := parsed.Unix()
			if q.Config != nil {
				if q.Config.MinDate > 0 && ts < q.Config.MinDate {
					return surveyTypes.AnswerValue{}, invalidf("date must not be before %s", time.Unix(q.Config.MinDate, 0).UTC().Format(dateInputLayout))
				}
				if q.Config.MaxDate > 0 && ts > q.Config.MaxDate {
					return surveyTypes.AnswerValue{}, invalidf("date must not be after %s", time.Unix(q.Config.MaxDate, 0).UTC().Format(dateInputLayout))
				}
			}
			return surveyTypes.AnswerValue{Date: ts}, nil
		},
	}
}

func locationCapability() Capability {
	return Capability{
		Render: func(q surveyTypes.Question, pos PositionInfo) PromptPayload {
			prompt := basePrompt(q, pos)
			prompt.Hint = "enter coordinates as latitude,longitude"
			return prompt
		},
		Validate: func(q surveyTypes.Question, rawInput string) (surveyTypes.AnswerValue, error) {
			parts := strings.Split(strings.TrimSpace(rawInput), ",")
			if len(parts) != 2 {
				return surveyTypes.AnswerValue{}, invalidf("coordinates must be given as latitude,longitude")
			}
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if latErr != nil || lonErr != nil {
				return surveyTypes.AnswerValue{}, invalidf("coordinates must be numeric")
			}
			if lat < -90 || lat > 90 {
				return surveyTypes.AnswerValue{}, invalidf("latitude must be between -90 and 90")
			}
			if lon < -180 || lon > 180 {
				return surveyTypes.AnswerValue{}, invalidf("longitude must be between -180 and 180")
			}
			return surveyTypes.AnswerValue{Location: &surveyTypes.GeoCoordinate{Latitude: lat, Longitude: lon}}, nil
		},
	}
}

func promptOptions(q surveyTypes.Question) []PromptOption {
	options := make([]PromptOption, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, PromptOption{ID: o.ID, Label: o.Label, Value: o.Value})
	}
	return options
}

// matchOptions maps raw comma separated option values to option IDs, ordered
// by the option order of the question (presentation order), not by input
// order.
func matchOptions(q surveyTypes.Question, rawInput string) ([]int64, error) {
	wanted := map[string]bool{}
	for _, part := range strings.Split(rawInput, ",") {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, ok := q.OptionByValue(value); !ok {
			return nil, invalidf("'%s' is not one of the offered options", value)
		}
		wanted[value] = true
	}

	selected := []int64{}
	for _, o := range q.Options {
		if wanted[o.Value] {
			selected = append(selected, o.ID)
		}
	}
	return selected, nil
}

func numberHint(q surveyTypes.Question) string {
	if q.Config == nil {
		return "enter a number"
	}
	switch {
	case q.Config.Min != nil && q.Config.Max != nil:
		return fmt.Sprintf("enter a number between %v and %v", *q.Config.Min, *q.Config.Max)
	case q.Config.Min != nil:
		return fmt.Sprintf("enter a number of at least %v", *q.Config.Min)
	case q.Config.Max != nil:
		return fmt.Sprintf("enter a number of at most %v", *q.Config.Max)
	default:
		return "enter a number"
	}
}
