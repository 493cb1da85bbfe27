package apiclient

import (
	"net/http"
	"strings"

	"car-rental-client/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

type errorBody struct {
	Detail jsoniter.RawMessage `json:"detail"`
}

// validationIssue is one entry of a 422 body: {"loc": [...], "msg": "..."}
type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// errorFromResponse maps a non-2xx response to AuthError or RemoteError
func errorFromResponse(status int, body []byte) error {
	detail := parseDetail(body)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &domain.AuthError{StatusCode: status, Detail: detail}
	}
	return &domain.RemoteError{StatusCode: status, Detail: detail}
}

// parseDetail reads "detail" as a string or as a list of validation issues.
// Anything else falls back to the status text chosen by the error type.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var issues []validationIssue
	if err := json.Unmarshal(eb.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			if field := lastLoc(is.Loc); field != "" {
				msgs = append(msgs, field+": "+is.Msg)
			} else {
				msgs = append(msgs, is.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
