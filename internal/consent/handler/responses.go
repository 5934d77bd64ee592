package handler

import "consentkit/internal/consent/models"

// StatusResponse reports one topic's decision.
type StatusResponse struct {
	Topic  string `json:"topic"`
	Status string `json:"status"`
}

// StatusesResponse reports every stored decision.
type StatusesResponse struct {
	Statuses map[string]string `json:"statuses"`
}

// ResetAllResponse lists the topics that were cleared.
type ResetAllResponse struct {
	Reset []string `json:"reset"`
}

func toStatusResponse(topic models.Topic, status models.Status) *StatusResponse {
	return &StatusResponse{Topic: topic.String(), Status: status.String()}
}

func toStatusesResponse(record models.Record) *StatusesResponse {
	out := make(map[string]string, record.Len())
	for _, topic := range record.Topics() {
		out[topic.String()] = record.Get(topic).String()
	}
	return &StatusesResponse{Statuses: out}
}

func toResetAllResponse(topics []models.Topic) *ResetAllResponse {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.String())
	}
	return &ResetAllResponse{Reset: out}
}
