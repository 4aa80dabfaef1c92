package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/extraction"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/ocr"
)

// extractTextRequest is the JSON body accepted by POST /extract.
type extractTextRequest struct {
	Text             string   `json:"text"`
	Provider         string   `json:"provider"`
	Model            string   `json:"model"`
	Temperature      *float64 `json:"temperature"`
	TopP             *float64 `json:"top_p"`
	FrequencyPenalty *float64 `json:"frequency_penalty"`
	PresencePenalty  *float64 `json:"presence_penalty"`
	ReasoningEffort  string   `json:"reasoning_effort"`
	APIKey           string   `json:"api_key"`

	OCRProvider string `json:"ocr_provider"`
	OCREndpoint string `json:"ocr_endpoint"`
	OCRKey      string `json:"ocr_key"`
}

func (r *extractTextRequest) options() extraction.Options {
	opts := extraction.Options{
		Provider: r.Provider,
		LLM: llm.Options{
			Model:            r.Model,
			Temperature:      r.Temperature,
			TopP:             r.TopP,
			FrequencyPenalty: r.FrequencyPenalty,
			PresencePenalty:  r.PresencePenalty,
			ReasoningEffort:  r.ReasoningEffort,
			APIKey:           r.APIKey,
		},
	}
	if r.OCRProvider != "" || r.OCREndpoint != "" || r.OCRKey != "" {
		opts.OCR = &ocr.Override{Provider: r.OCRProvider, Endpoint: r.OCREndpoint, Key: r.OCRKey}
	}
	return opts
}

// handleExtract accepts either a JSON body with raw text or a multipart
// upload with a "file" part plus form fields for the same options.
func (s *Server) handleExtract(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		s.extractFromUpload(c)
		return
	}

	var req extractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, common.NewError(common.KindInvalidInput, "malformed request body", err))
		return
	}

	result, err := s.extractor.ExtractFromText(c.Request.Context(), req.Text, req.options())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) extractFromUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		s.writeError(c, common.NewError(common.KindInvalidInput, `multipart field "file" is required`, err))
		return
	}

	f, err := header.Open()
	if err != nil {
		s.writeError(c, common.NewError(common.KindInvalidInput, "cannot open uploaded file", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, common.NewError(common.KindInvalidInput, "cannot read uploaded file", err))
		return
	}

	opts, err := formOptions(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.extractor.ExtractFromFile(c.Request.Context(),
		header.Filename, data, header.Header.Get("Content-Type"), opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// formOptions reads the option form fields of a multipart upload.
func formOptions(c *gin.Context) (extraction.Options, error) {
	opts := extraction.Options{
		Provider: c.PostForm("provider"),
		LLM: llm.Options{
			Model:           c.PostForm("model"),
			ReasoningEffort: c.PostForm("reasoning_effort"),
			APIKey:          c.PostForm("api_key"),
		},
	}

	var err error
	if opts.ForceOCR, err = formBool(c, "force_ocr"); err != nil {
		return opts, err
	}
	if opts.UseVision, err = formBool(c, "use_vision"); err != nil {
		return opts, err
	}
	if opts.LLM.Temperature, err = formFloat(c, "temperature"); err != nil {
		return opts, err
	}
	if opts.LLM.TopP, err = formFloat(c, "top_p"); err != nil {
		return opts, err
	}
	if opts.LLM.FrequencyPenalty, err = formFloat(c, "frequency_penalty"); err != nil {
		return opts, err
	}
	if opts.LLM.PresencePenalty, err = formFloat(c, "presence_penalty"); err != nil {
		return opts, err
	}

	provider, endpoint, key := c.PostForm("ocr_provider"), c.PostForm("ocr_endpoint"), c.PostForm("ocr_key")
	if provider != "" || endpoint != "" || key != "" {
		opts.OCR = &ocr.Override{Provider: provider, Endpoint: endpoint, Key: key}
	}
	return opts, nil
}

func formBool(c *gin.Context, field string) (bool, error) {
	v := c.PostForm(field)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, common.Errorf(common.KindInvalidInput, "field %q must be a boolean, got %q", field, v)
	}
	return b, nil
}

func formFloat(c *gin.Context, field string) (*float64, error) {
	v := c.PostForm(field)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "field %q must be a number, got %q", field, v)
	}
	return &f, nil
}

func (s *Server) handlePredict(c *gin.Context) {
	var features map[string]any
	if err := c.ShouldBindJSON(&features); err != nil {
		s.writeError(c, common.NewError(common.KindInvalidInput, "malformed request body", err))
		return
	}

	prediction, err := s.predictor.Predict(features)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

type retrainRequest struct {
	DatasetPath string `json:"dataset_path"`
}

// retrainResponse is the training summary plus whether the in-process
// prediction service picked up the new model.
type retrainResponse struct {
	ModelPath            string         `json:"model_path"`
	Classes              []string       `json:"classes"`
	TrainingSamples      int            `json:"training_samples"`
	ValidationSamples    int            `json:"validation_samples"`
	ClassificationReport map[string]any `json:"classification_report"`
	ConfusionMatrix      [][]int        `json:"confusion_matrix"`
	ServiceReloaded      bool           `json:"servicio_recargado"`
}

func (s *Server) handleRetrain(c *gin.Context) {
	var req retrainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.writeError(c, common.NewError(common.KindInvalidInput, "malformed request body", err))
			return
		}
	}

	result, err := s.trainer.Retrain(c.Request.Context(), req.DatasetPath)
	if err != nil {
		s.writeError(c, err)
		return
	}

	reloaded := false
	if err := s.predictor.Reload(); err != nil {
		s.logger.Error("http.retrain.reload_failed", "error", err)
	} else {
		reloaded = true
	}

	c.JSON(http.StatusOK, retrainResponse{
		ModelPath:            result.ModelPath,
		Classes:              result.Classes,
		TrainingSamples:      result.TrainingSamples,
		ValidationSamples:    result.ValidationSamples,
		ClassificationReport: result.ClassificationReport,
		ConfusionMatrix:      result.ConfusionMatrix,
		ServiceReloaded:      reloaded,
	})
}
