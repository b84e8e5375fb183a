package requirements

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/llm"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Codes reported by the LLM extractor.
const (
	CodeLLMUnavailable   = "LLM_UNAVAILABLE"
	CodeLLMInvalidOutput = "LLM_INVALID_OUTPUT"
)

// minConfidence is the score below which LLM output stays unconfirmed.
const minConfidence = 0.6

// LLMExtractor delegates extraction to a chat model and normalises its output
// through the same operator vocabulary as the rules extractor.
type LLMExtractor struct {
	Client        llm.Client
	Model         string
	PromptVersion string
}

func (e LLMExtractor) Version() string {
	model := strings.TrimSpace(e.Model)
	if model == "" {
		model = "default"
	}
	return "llm:" + model
}

type llmPayload struct {
	Requirements []struct {
		Category       string          `json:"category"`
		ParameterName  string          `json:"parameterName"`
		RequiredValue  string          `json:"requiredValue"`
		ExtractedValue string          `json:"extractedValue"`
		Operator       string          `json:"operator"`
		Confidence     json.RawMessage `json:"confidence"`
		SourceText     string          `json:"sourceText"`
	} `json:"requirements"`
	ScoringItems []struct {
		Name       string  `json:"name"`
		Points     float64 `json:"points"`
		SourceText string  `json:"sourceText"`
	} `json:"scoringItems"`
}

func (e LLMExtractor) Extract(ctx context.Context, in Input) (Result, error) {
	if e.Client == nil {
		return Result{}, apperr.Extraction(CodeLLMUnavailable, "no language model configured", nil)
	}
	version := e.PromptVersion
	if version == "" {
		version = llm.DefaultPromptVersion
	}
	var promptHash string
	ctx = llm.WithPromptHashCapture(ctx, &promptHash)

	raw, err := e.Client.ExtractRequirements(ctx, llm.ExtractInput{
		DocumentText:  in.Text,
		ProjectName:   in.ProjectName,
		PromptVersion: version,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if errors.Is(err, llm.ErrNotImplemented) {
			return Result{}, apperr.Extraction(CodeLLMUnavailable, "no language model configured", err)
		}
		return Result{}, fmt.Errorf("llm extract: %w", err)
	}
	res, err := ParseLLMOutput(raw)
	if err != nil {
		return Result{}, err
	}
	telemetry.Info("requirements.llm_extracted", map[string]any{
		"model":          e.Model,
		"prompt_version": version,
		"prompt_hash":    promptHash,
		"requirements":   len(res.Requirements),
		"scoring_items":  len(res.ScoringItems),
	})
	return res, nil
}

// ParseLLMOutput validates model JSON and maps it onto requirements.
func ParseLLMOutput(raw []byte) (Result, error) {
	var payload llmPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&payload); err != nil {
		return Result{}, apperr.Extraction(CodeLLMInvalidOutput, "model returned invalid JSON", err)
	}

	res := Result{Requirements: []Requirement{}, ScoringItems: []ScoringItem{}}
	for _, item := range payload.Requirements {
		name := trimName(Normalize(item.ParameterName))
		if name == "" {
			continue
		}
		category := normalizeCategory(item.Category)
		if category == "" {
			continue
		}
		required := Normalize(item.RequiredValue)
		op, opOK := ParseOperator(item.Operator)
		extracted := Normalize(item.ExtractedValue)
		if !opOK || op == OpNone {
			// Fall back to the vocabulary when the model left the operator out.
			if parsed, value, found := ParseValue(required); found {
				op, opOK = parsed, true
				if extracted == "" {
					extracted = value
				}
			}
		}

		req := Requirement{
			Category:       category,
			ParameterName:  name,
			RequiredValue:  required,
			ExtractedValue: extracted,
			Operator:       op,
			Confidence:     parseConfidence(item.Confidence),
			SourceText:     strings.TrimSpace(item.SourceText),
		}
		switch {
		case !opOK || op == OpNone:
			req.Operator = OpNone
			req.Status = StatusUnconfirmed
		case extracted == "":
			req.Status = StatusError
		case req.Confidence < minConfidence:
			req.Status = StatusUnconfirmed
		default:
			req.Status = StatusConfirmed
		}
		req.Seq = len(res.Requirements) + 1
		res.Requirements = append(res.Requirements, req)
	}
	for _, item := range payload.ScoringItems {
		name := trimName(Normalize(item.Name))
		if name == "" {
			continue
		}
		res.ScoringItems = append(res.ScoringItems, ScoringItem{
			Seq:        len(res.ScoringItems) + 1,
			Name:       name,
			Points:     item.Points,
			SourceText: strings.TrimSpace(item.SourceText),
		})
	}
	return res, nil
}

func normalizeCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CategoryTechnical, "technical", "technical_parameter", "技术参数":
		return CategoryTechnical
	case CategoryQualification, "资格要求", "资质要求":
		return CategoryQualification
	case CategoryDisqualification, "disqualification", "disqualification_clause", "废标条款":
		return CategoryDisqualification
	default:
		return ""
	}
}

// parseConfidence accepts numbers or numeric strings and clamps to [0,1].
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var val float64
	if err := json.Unmarshal(raw, &val); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &val); err != nil {
			return 0
		}
	}
	if val < 0 {
		return 0
	}
	if val > 1 {
		return 1
	}
	return val
}
