package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or numeric string. Unparseable or
// null values leave it unset.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat{Value: n, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*f = flexFloat{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns the value as a pointer, or nil when unset.
func (f flexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// flexStrings unmarshals a string list that Gamma sends either as a JSON array
// or as a JSON-encoded string holding an array, e.g. "[\"Yes\",\"No\"]".
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		*f = stringify(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	*f = stringify(list)
	return nil
}

func stringify(list []any) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			out = append(out, "")
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Slug     string      `json:"slug"`
	Category string      `json:"category"`
	Active   flexBool    `json:"active"`
	Closed   bool        `json:"closed"`
	EndDate  string      `json:"endDate"`
	Markets  []APIMarket `json:"markets"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	ConditionID   string      `json:"conditionId"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	Active        flexBool    `json:"active"`
	Closed        bool        `json:"closed"`
	Outcomes      flexStrings `json:"outcomes"`
	OutcomePrices flexStrings `json:"outcomePrices"`
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`
	Volume        flexFloat   `json:"volume"`
	Volume24hr    flexFloat   `json:"volume24hr"`
	Liquidity     flexFloat   `json:"liquidity"`
	EndDate       string      `json:"endDate"`
	GameStartTime string      `json:"gameStartTime"`
}

// discoveryPrices returns the YES/NO prices embedded in the Gamma record.
// NO defaults to 1-YES when the second outcome is missing.
func (m *APIMarket) discoveryPrices() (yes, no float64, ok bool) {
	if len(m.OutcomePrices) == 0 {
		return 0, 0, false
	}
	yes, err := strconv.ParseFloat(m.OutcomePrices[0], 64)
	if err != nil {
		return 0, 0, false
	}
	no = 1 - yes
	if len(m.OutcomePrices) > 1 {
		if v, err := strconv.ParseFloat(m.OutcomePrices[1], 64); err == nil {
			no = v
		}
	}
	return yes, no, true
}

// tokens returns the YES and NO CLOB token ids, if both are present.
func (m *APIMarket) tokens() (yes, no string, ok bool) {
	if len(m.ClobTokenIDs) < 2 || m.ClobTokenIDs[0] == "" || m.ClobTokenIDs[1] == "" {
		return "", "", false
	}
	return m.ClobTokenIDs[0], m.ClobTokenIDs[1], true
}

// yesOutcome is the first outcome label when it names something other than
// "Yes", e.g. a team in "Jazz vs. Cavaliers".
func (m *APIMarket) yesOutcome() string {
	if len(m.Outcomes) == 0 || strings.EqualFold(m.Outcomes[0], "yes") {
		return ""
	}
	return m.Outcomes[0]
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05Z07", "2006-01-02 15:04:05-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// parseCLOBPrice reads one entry of the /prices response. The CLOB returns a
// bare number or string, {"price": "..."}, or a per-side object such as
// {"BUY": "...", "SELL": "..."}; BUY is preferred for the latter.
func parseCLOBPrice(raw json.RawMessage) (float64, bool) {
	var f flexFloat
	if err := f.UnmarshalJSON(raw); err == nil && f.Valid {
		return f.Value, true
	}
	var obj map[string]flexFloat
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, false
	}
	for _, k := range []string{"price", "BUY", "buy", "SELL", "sell"} {
		if v, ok := obj[k]; ok && v.Valid {
			return v.Value, true
		}
	}
	return 0, false
}
