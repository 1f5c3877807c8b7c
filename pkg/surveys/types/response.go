package types

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RESPONSE_STATUS_IN_PROGRESS = "in_progress"
	RESPONSE_STATUS_COMPLETED   = "completed"
)

// SurveyResponse is the durable record one respondent produces for one
// survey run.
type SurveyResponse struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SurveyKey    string             `bson:"surveyKey" json:"surveyKey"`
	RespondentID string             `bson:"respondentID" json:"respondentId"`
	Status       string             `bson:"status" json:"status"`
	StartedAt    int64              `bson:"startedAt" json:"startedAt"`
	SubmittedAt  int64              `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
}

// Answer is one validated answer of a response. ResolvedNext stores the
// transition the engine took after this answer, for audit and debugging.
type Answer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ResponseID   string             `bson:"responseID" json:"responseId"`
	QuestionID   int64              `bson:"questionID" json:"questionId"`
	Position     int                `bson:"position" json:"position"`
	Value        AnswerValue        `bson:"value" json:"value"`
	ResolvedNext NextStep           `bson:"resolvedNext" json:"resolvedNext"`
	UpdatedAt    int64              `bson:"updatedAt" json:"updatedAt"`
}

// AnswerValue is the parsed form of one raw answer. Only the fields matching
// the question type are set. SelectedOptionIDs keeps the presentation order
// of the selection.
type AnswerValue struct {
	Text              string         `bson:"text,omitempty" json:"text,omitempty"`
	Number            *float64       `bson:"number,omitempty" json:"number,omitempty"`
	Date              int64          `bson:"date,omitempty" json:"date,omitempty"`
	Location          *GeoCoordinate `bson:"location,omitempty" json:"location,omitempty"`
	SelectedOptionIDs []int64        `bson:"selectedOptionIDs,omitempty" json:"selectedOptionIds,omitempty"`
	Skipped           bool           `bson:"skipped,omitempty" json:"skipped,omitempty"`
}

type GeoCoordinate struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// FirstSelectedOption returns the first selected option by presentation
// order, the only one that participates in transition override lookup.
func (v AnswerValue) FirstSelectedOption() (int64, bool) {
	if len(v.SelectedOptionIDs) == 0 {
		return 0, false
	}
	return v.SelectedOptionIDs[0], true
}
