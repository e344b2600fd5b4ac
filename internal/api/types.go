package api

import "github.com/samcharles93/lmexplorer/internal/inference"

// QueryRequest is the JSON body shared by every query endpoint. Fields an
// endpoint does not use are ignored.
type QueryRequest struct {
	Previous    *string  `json:"previous"`
	Next        *string  `json:"next,omitempty"`
	TopK        *int     `json:"topk,omitempty"`
	NumSteps    *int     `json:"numsteps,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

func (r QueryRequest) options() inference.RequestOptions {
	return inference.RequestOptions{
		Previous:    r.Previous,
		Next:        r.Next,
		TopK:        r.TopK,
		NumSteps:    r.NumSteps,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Seed:        r.Seed,
	}
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
