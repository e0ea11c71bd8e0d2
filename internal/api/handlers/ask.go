package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/voltaic-labs/examdex/internal/api"
	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/service"
)

type AskService interface {
	Answer(ctx context.Context, input service.AskInput) (*service.AnswerResult, error)
	Classify(text string) domain.ClassificationResult
}

type AskHandler struct {
	svc AskService
}

func NewAskHandler(svc AskService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question   string `json:"question"`
	ImageURL   string `json:"image_url,omitempty"`
	ImageBytes int    `json:"image_bytes,omitempty"`
}

type FormulaUseResponse struct {
	Expression string             `json:"expression"`
	Variables  map[string]float64 `json:"variables,omitempty"`
	Result     float64            `json:"result"`
}

type SolutionResponse struct {
	Answer       string               `json:"answer"`
	Steps        []string             `json:"steps,omitempty"`
	Formulas     []FormulaUseResponse `json:"formulas,omitempty"`
	RelatedCodes []string             `json:"related_codes,omitempty"`
	Confidence   float64              `json:"confidence"`
}

type SourceResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	MatchType  string  `json:"match_type"`
}

type VerificationResponse struct {
	Valid       bool     `json:"valid"`
	Warnings    []string `json:"warnings,omitempty"`
	Corrections []string `json:"corrections,omitempty"`
}

type ClassificationResponse struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary,omitempty"`
	Confidence float64  `json:"confidence"`
}

type AskResponse struct {
	Classification ClassificationResponse `json:"classification"`
	Solution       *SolutionResponse      `json:"solution,omitempty"`
	Sources        []SourceResponse       `json:"sources"`
	Verification   VerificationResponse   `json:"verification"`
	InputErrors    []string               `json:"input_errors,omitempty"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" && req.ImageURL == "" {
		api.Error(w, http.StatusBadRequest, "question or image_url is required")
		return
	}

	result, err := h.svc.Answer(r.Context(), service.AskInput{
		Text:       req.Question,
		ImageURL:   req.ImageURL,
		ImageBytes: req.ImageBytes,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if len(result.InputErrors) > 0 {
		api.JSON(w, http.StatusUnprocessableEntity, AskResponse{
			InputErrors: result.InputErrors,
		})
		return
	}

	api.Success(w, http.StatusOK, toAskResponse(result))
}

type ClassifyRequest struct {
	Text string `json:"text"`
}

func (h *AskHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	result := h.svc.Classify(req.Text)
	api.Success(w, http.StatusOK, toClassificationResponse(result))
}

func toAskResponse(result *service.AnswerResult) AskResponse {
	resp := AskResponse{
		Classification: toClassificationResponse(result.Classification),
		Sources:        make([]SourceResponse, 0, len(result.Sources)),
		Verification: VerificationResponse{
			Valid:       result.Outcome.Valid,
			Warnings:    result.Outcome.Warnings,
			Corrections: result.Outcome.Corrections,
		},
	}

	if result.Solution != nil {
		sol := &SolutionResponse{
			Answer:       result.Solution.Answer,
			Steps:        result.Solution.Steps,
			RelatedCodes: result.Solution.RelatedCodes,
			Confidence:   result.Solution.Confidence,
		}
		for _, f := range result.Solution.Formulas {
			sol.Formulas = append(sol.Formulas, FormulaUseResponse{
				Expression: f.Expression,
				Variables:  f.Variables,
				Result:     f.Result,
			})
		}
		resp.Solution = sol
	}

	for _, s := range result.Sources {
		resp.Sources = append(resp.Sources, SourceResponse{
			ChunkID:    s.ChunkID,
			DocumentID: s.DocumentID,
			Content:    s.Content,
			Score:      s.Score,
			MatchType:  string(s.MatchType),
		})
	}

	return resp
}

func toClassificationResponse(result domain.ClassificationResult) ClassificationResponse {
	resp := ClassificationResponse{
		Primary:    string(result.Primary),
		Confidence: result.Confidence,
	}
	for _, s := range result.Secondary {
		resp.Secondary = append(resp.Secondary, string(s))
	}
	return resp
}
