package dto

import "strconv"

// Percent marshals with exactly two decimals.
type Percent float64

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(p), 'f', 2, 64), nil
}

// StateResponse is the body of /api/state.
type StateResponse struct {
	Infer       bool    `json:"infer"`
	Save        bool    `json:"save"`
	Bees        uint32  `json:"bees"`
	Mites       uint32  `json:"mites"`
	AvgWeighted Percent `json:"avg_weighted"`
}

// ErrorResponse is the JSON error body used by the listing endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
