package handler

import (
	"consentkit/internal/consent/models"
	dErrors "consentkit/pkg/domain-errors"
	s "consentkit/pkg/string"
	"consentkit/pkg/validation"
)

// TopicRequest names the topic a transition applies to.
type TopicRequest struct {
	Topic string `json:"topic" validate:"required,notblank,max=64,topic"`
}

// Sanitize trims surrounding whitespace.
func (r *TopicRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Topic)
}

// Validate checks that the request is well-formed.
func (r *TopicRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *TopicRequest) ToTopic() models.Topic {
	return models.Topic(r.Topic)
}

// topicParam validates a topic taken from the URL path.
func topicParam(raw string) (models.Topic, error) {
	req := TopicRequest{Topic: raw}
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	return req.ToTopic(), nil
}
