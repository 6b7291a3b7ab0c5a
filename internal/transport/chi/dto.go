package chi

import (
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	healthuc "github.com/kailas-cloud/reconciler/internal/usecase/health"
)

type resultResponse struct {
	Result []candidate.Envelope `json:"result"`
}

type typeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type typeDetailResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties []entity.Property `json:"properties"`
}

type manifestResponse struct {
	Versions        []string             `json:"versions"`
	Name            string               `json:"name"`
	IdentifierSpace string               `json:"identifierSpace"`
	SchemaSpace     string               `json:"schemaSpace"`
	DefaultTypes    []typeResponse       `json:"defaultTypes"`
	Types           []typeDetailResponse `json:"types"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

type usageResponse struct {
	Provider        string `json:"provider"`
	Period          string `json:"period"`
	PeriodStartMs   int64  `json:"period_start_ms"`
	PeriodEndMs     int64  `json:"period_end_ms"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
