package types

const (
	QUESTION_TYPE_TEXT          = "text"
	QUESTION_TYPE_SINGLE_CHOICE = "single_choice"
	QUESTION_TYPE_MULTI_CHOICE  = "multi_choice"
	QUESTION_TYPE_NUMBER        = "number"
	QUESTION_TYPE_DATE          = "date"
	QUESTION_TYPE_LOCATION      = "location"
)

// Question is one prompt within a survey. Immutable once the survey has
// responses.
type Question struct {
	ID       int64           `bson:"id" json:"id"`
	Position int             `bson:"position" json:"position"` // unique within the survey
	Text     string          `bson:"text" json:"text"`
	Type     string          `bson:"type" json:"type"`
	Required bool            `bson:"required,omitempty" json:"required,omitempty"`
	Config   *QuestionConfig `bson:"config,omitempty" json:"config,omitempty"`
	Default  *NextStep       `bson:"default,omitempty" json:"default,omitempty"`
	Options  []Option        `bson:"options,omitempty" json:"options,omitempty"`
}

// Option is a selectable value of a choice question. Its Next transition, if
// set, overrides the question's default when the option is selected.
type Option struct {
	ID    int64     `bson:"id" json:"id"`
	Label string    `bson:"label" json:"label"`
	Value string    `bson:"value" json:"value"`
	Next  *NextStep `bson:"next,omitempty" json:"next,omitempty"`
}

// QuestionConfig holds the optional type specific settings.
type QuestionConfig struct {
	Min           *float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max           *float64 `bson:"max,omitempty" json:"max,omitempty"`
	MinDate       int64    `bson:"minDate,omitempty" json:"minDate,omitempty"`
	MaxDate       int64    `bson:"maxDate,omitempty" json:"maxDate,omitempty"`
	MaxSelections int      `bson:"maxSelections,omitempty" json:"maxSelections,omitempty"`
	// ValidationRule is an optional boolean expression over "value",
	// evaluated after type specific parsing.
	ValidationRule string `bson:"validationRule,omitempty" json:"validationRule,omitempty"`
}

func (q Question) IsChoiceType() bool {
	return q.Type == QUESTION_TYPE_SINGLE_CHOICE || q.Type == QUESTION_TYPE_MULTI_CHOICE
}

func (q Question) OptionByID(optionID int64) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return Option{}, false
}

func (q Question) OptionByValue(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}
