package api

import (
	"net/http"

	"github.com/ayusman/airmouse/internal/gesture"
)

// RuleSource lists the active gesture table.
type RuleSource interface {
	Rules() []gesture.Rule
}

// RulesHandler serves GET /api/rules.
type RulesHandler struct {
	source RuleSource
}

// NewRulesHandler creates a RulesHandler.
func NewRulesHandler(source RuleSource) *RulesHandler {
	return &RulesHandler{source: source}
}

type ruleResponse struct {
	Priority int    `json:"priority"`
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Action   string `json:"action"`
	Class    string `json:"cooldown_class,omitempty"`
	Cooldown string `json:"cooldown,omitempty"`
	Terminal bool   `json:"terminal"`
}

type listRulesResponse struct {
	Rules []ruleResponse `json:"rules"`
}

// toRuleResponses flattens rules into their wire form in priority order.
func toRuleResponses(rules []gesture.Rule) []ruleResponse {
	out := make([]ruleResponse, 0, len(rules))
	for i, r := range rules {
		resp := ruleResponse{
			Priority: i + 1,
			Name:     r.Name,
			Pattern:  r.Pattern.String(),
			Action:   string(r.Kind),
			Class:    string(r.Class),
			Terminal: r.Terminal,
		}
		if r.Class != gesture.ClassNone {
			resp.Cooldown = r.Cooldown.String()
		}
		out = append(out, resp)
	}
	return out
}

func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, listRulesResponse{Rules: toRuleResponses(h.source.Rules())})
}
