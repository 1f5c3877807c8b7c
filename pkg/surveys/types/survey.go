package types

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	SURVEY_STATUS_DRAFT  = "draft"
	SURVEY_STATUS_ACTIVE = "active"
	SURVEY_STATUS_CLOSED = "closed"
)

type Survey struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SurveyKey              string             `bson:"surveyKey" json:"surveyKey"`
	Name                   string             `bson:"name,omitempty" json:"name,omitempty"`
	Description            string             `bson:"description,omitempty" json:"description,omitempty"`
	Status                 string             `bson:"status" json:"status"`
	AllowMultipleResponses bool               `bson:"allowMultipleResponses,omitempty" json:"allowMultipleResponses,omitempty"`
	Questions              []Question         `bson:"questions" json:"questions"` // kept sorted by position
	Published              int64              `bson:"published,omitempty" json:"published,omitempty"`
	Metadata               map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// FirstQuestion returns the question with the lowest order position.
func (s Survey) FirstQuestion() (Question, bool) {
	if len(s.Questions) == 0 {
		return Question{}, false
	}
	first := s.Questions[0]
	for _, q := range s.Questions[1:] {
		if q.Position < first.Position {
			first = q
		}
	}
	return first, true
}

func (s Survey) QuestionByID(questionID int64) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}

func (s Survey) QuestionByPosition(position int) (Question, bool) {
	for _, q := range s.Questions {
		if q.Position == position {
			return q, true
		}
	}
	return Question{}, false
}

// NextByPosition returns the question with the smallest order position
// strictly greater than the given one.
func (s Survey) NextByPosition(position int) (Question, bool) {
	var next Question
	found := false
	for _, q := range s.Questions {
		if q.Position <= position {
			continue
		}
		if !found || q.Position < next.Position {
			next = q
			found = true
		}
	}
	return next, found
}
