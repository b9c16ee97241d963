package server

import (
	"net/http"

	"github.com/koustreak/sqldesk/internal/assistant"
)

type aiRequest struct {
	Prompt        string `json:"prompt"`
	SchemaContext any    `json:"schemaContext"`
	Mode          string `json:"mode"`
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	ans, err := s.assistant.Ask(r.Context(), assistant.Request{
		Prompt:        req.Prompt,
		SchemaContext: req.SchemaContext,
		Mode:          assistant.ParseMode(req.Mode),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if ans.Mode.Explains() {
		ok(w, envelope{"explanation": ans.Explanation})
		return
	}

	resp := envelope{
		"sql":     ans.Suggestion.SQL,
		"message": ans.Suggestion.Message,
		"action":  ans.Suggestion.Action,
	}
	if ans.Suggestion.Visualization != nil {
		resp["visualization"] = ans.Suggestion.Visualization
	}
	ok(w, resp)
}
