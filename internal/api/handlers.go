package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/model"
	"github.com/gin-gonic/gin"
)

// Messages returned when a model call fails. LLM failures never leak
// provider errors to the client.
const (
	msgLLMClassifyFailed = "LLM classification failed"
	msgDefineTextFailed  = "failed to generate a definition for the term"
	msgDefineImageFailed = "failed to recognize or define a term in the image"
	msgNoMenu            = "no suitable menu found"
	msgTermNotFound      = "term not found"
	msgLLMDisabled       = "LLM features are not configured"
	msgTimeout           = "request timed out"
)

// TermClassifier decides whether terms are financial.
type TermClassifier interface {
	ClassifyTerm(ctx context.Context, term string) (model.Classification, error)
	ClassifyBatch(ctx context.Context, terms []string) ([]model.Classification, error)
}

// Dictionary answers fuzzy term lookups.
type Dictionary interface {
	Lookup(query string) []model.DictionaryMatch
}

// Definer explains terms from text or a screenshot.
type Definer interface {
	DefineText(ctx context.Context, term string) (model.Definition, error)
	DefineImage(ctx context.Context, encoded string) (model.Definition, error)
}

// MenuFinder recommends a banking menu for a free-text request.
type MenuFinder interface {
	Recommend(ctx context.Context, request string) (model.MenuRecommendation, error)
}

// Services bundles the collaborators behind the HTTP endpoints. The LLM
// backed fields may be nil, in which case their endpoints answer 503.
type Services struct {
	Classifier    TermClassifier
	Dictionary    Dictionary
	LLMClassifier TermClassifier
	Definer       Definer
	MenuFinder    MenuFinder
}

// Handler serves the finlens HTTP endpoints.
type Handler struct {
	svc    Services
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type batchResponse struct {
	Results []model.Classification `json:"results"`
}

type lookupResponse struct {
	Results []model.DictionaryMatch `json:"results"`
}

type menuResponse struct {
	Result  *model.MenuRecommendation `json:"result,omitempty"`
	Message string                    `json:"message,omitempty"`
	Success bool                      `json:"success"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// failure answers a processing error. Deadlines map to 504; anything else
// is a 500 carrying message.
func failure(c *gin.Context, err error, message string) {
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": msgTimeout})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// Classify handles POST /classify.
func (h *Handler) Classify(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	term, err := body.String("term")
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Classifier.ClassifyTerm(c.Request.Context(), term)
	if err != nil {
		h.logger.Error("classification failed", "term", term, "error", err)
		failure(c, err, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClassifyBatch handles POST /classify_batch.
func (h *Handler) ClassifyBatch(c *gin.Context) {
	terms, ok := h.terms(c)
	if !ok {
		return
	}

	results, err := h.svc.Classifier.ClassifyBatch(c.Request.Context(), terms)
	if err != nil {
		h.logger.Error("batch classification failed", "terms", len(terms), "error", err)
		failure(c, err, err.Error())
		return
	}
	c.JSON(http.StatusOK, batchResponse{Results: results})
}

// ClassifyLLM handles POST /classify_llm.
func (h *Handler) ClassifyLLM(c *gin.Context) {
	if h.svc.LLMClassifier == nil {
		llmDisabled(c)
		return
	}

	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	term, err := body.String("term")
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.LLMClassifier.ClassifyTerm(c.Request.Context(), term)
	if err != nil {
		h.logger.Warn("LLM classification failed", "term", term, "error", err)
		failure(c, err, common.UserMessage(err, msgLLMClassifyFailed))
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClassifyLLMBatch handles POST /classify_llm_batch. An empty list needs no model.
func (h *Handler) ClassifyLLMBatch(c *gin.Context) {
	terms, ok := h.terms(c)
	if !ok {
		return
	}
	if h.svc.LLMClassifier == nil {
		llmDisabled(c)
		return
	}

	results, err := h.svc.LLMClassifier.ClassifyBatch(c.Request.Context(), terms)
	if err != nil {
		h.logger.Warn("LLM batch classification failed", "terms", len(terms), "error", err)
		failure(c, err, common.UserMessage(err, msgLLMClassifyFailed))
		return
	}
	c.JSON(http.StatusOK, batchResponse{Results: results})
}

// terms reads the terms list and answers the request itself when the list
// is invalid or empty.
func (h *Handler) terms(c *gin.Context) ([]string, bool) {
	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	terms, err := body.Strings("terms")
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	if len(terms) == 0 {
		c.JSON(http.StatusOK, batchResponse{Results: []model.Classification{}})
		return nil, false
	}
	return terms, true
}

// Definition handles GET /fin_term_definition.
func (h *Handler) Definition(c *gin.Context) {
	query := c.Query("term")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term parameter is required"})
		return
	}

	matches := h.svc.Dictionary.Lookup(query)
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgTermNotFound})
		return
	}
	c.JSON(http.StatusOK, lookupResponse{Results: matches})
}

// DefineText handles POST /define_term_text.
func (h *Handler) DefineText(c *gin.Context) {
	if h.svc.Definer == nil {
		llmDisabled(c)
		return
	}

	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	term, err := body.String("term")
	if err != nil {
		badRequest(c, err)
		return
	}

	def, err := h.svc.Definer.DefineText(c.Request.Context(), term)
	if err != nil {
		h.logger.Warn("text definition failed", "term", term, "error", err)
		failure(c, err, common.UserMessage(err, msgDefineTextFailed))
		return
	}
	c.JSON(http.StatusOK, def)
}

// DefineImage handles POST /define_term_image.
func (h *Handler) DefineImage(c *gin.Context) {
	if h.svc.Definer == nil {
		llmDisabled(c)
		return
	}

	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	image, err := body.String("image")
	if err != nil {
		badRequest(c, err)
		return
	}

	def, err := h.svc.Definer.DefineImage(c.Request.Context(), image)
	if errors.Is(err, llm.ErrBadImage) {
		badRequest(c, errors.New("image must be base64-encoded image data"))
		return
	}
	if err != nil {
		h.logger.Warn("image definition failed", "bytes", len(image), "error", err)
		failure(c, err, common.UserMessage(err, msgDefineImageFailed))
		return
	}
	c.JSON(http.StatusOK, def)
}

// RecommendMenu handles POST /recommend_menu. A failed recommendation is
// still a 200 with success false.
func (h *Handler) RecommendMenu(c *gin.Context) {
	if h.svc.MenuFinder == nil {
		llmDisabled(c)
		return
	}

	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	request, err := body.String("request")
	if err != nil {
		badRequest(c, err)
		return
	}

	rec, err := h.svc.MenuFinder.Recommend(c.Request.Context(), request)
	if err != nil {
		h.logger.Warn("menu recommendation failed", "request", request, "error", err)
		c.JSON(http.StatusOK, menuResponse{Success: false, Message: msgNoMenu})
		return
	}
	c.JSON(http.StatusOK, menuResponse{Success: true, Result: &rec})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func llmDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgLLMDisabled})
}
