package ui

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"datastory/domain/core"
	domainDataset "datastory/domain/dataset"
	"datastory/domain/story"
	"datastory/internal/dataset"
	"datastory/internal/errors"

	"github.com/gin-gonic/gin"
)

// datasetRequest selects a dataset and the optional cleaning and story settings.
// Multipart forms may carry a "file" part instead of a sample name.
type datasetRequest struct {
	Sample         string `form:"sample" json:"sample"`
	HandleMissing  bool   `form:"handle_missing" json:"handle_missing"`
	HandleOutliers bool   `form:"handle_outliers" json:"handle_outliers"`
	Audience       string `form:"audience" json:"audience"`
	Focus          string `form:"focus" json:"focus"`
	Length         string `form:"length" json:"length"`
	Question       string `form:"question" json:"question"`

	// Chart and insight parameters
	Type        string  `form:"type" json:"type"`
	XColumn     string  `form:"x_column" json:"x_column"`
	YColumn     string  `form:"y_column" json:"y_column"`
	Title       string  `form:"title" json:"title"`
	DateColumn  string  `form:"date_column" json:"date_column"`
	ValueColumn string  `form:"value_column" json:"value_column"`
	Column      string  `form:"column" json:"column"`
	Method      string  `form:"method" json:"method"`
	Threshold   float64 `form:"threshold" json:"threshold"`
}

func (r datasetRequest) storyConfig() story.Config {
	return story.Config{
		Audience: story.Audience(strings.TrimSpace(r.Audience)),
		Focus:    story.Focus(strings.TrimSpace(r.Focus)),
		Length:   story.Length(strings.TrimSpace(r.Length)),
	}.WithDefaults()
}

// bindRequest decodes a JSON body or a (multipart) form depending on Content-Type
func bindRequest(c *gin.Context) (datasetRequest, error) {
	var req datasetRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return req, err
		}
		return req, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid request: %w", err))
	}
	return req, nil
}

// loadDataset resolves the uploaded file or the named sample, then cleans it
func (s *Server) loadDataset(c *gin.Context, req datasetRequest) (*domainDataset.Dataset, error) {
	ds, err := s.readDataset(c, req)
	if err != nil {
		return nil, err
	}
	if req.HandleMissing || req.HandleOutliers {
		ds = dataset.Clean(ds, dataset.CleanOptions{HandleMissing: req.HandleMissing, HandleOutliers: req.HandleOutliers})
	}
	return ds, nil
}

func (s *Server) readDataset(c *gin.Context, req datasetRequest) (*domainDataset.Dataset, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			s.log.Info("Loading upload %s (%d bytes)", header.Filename, header.Size)
			return s.loader.LoadUpload(header.Filename, file)
		case stderrors.Is(err, http.ErrMissingFile):
		default:
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid upload: %w", err))
		}
	}

	name := strings.TrimSpace(req.Sample)
	if name == "" {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: upload a CSV file or choose a sample dataset", core.ErrInsufficientData))
	}
	return s.samples.Load(name)
}

// statusFor maps error codes to HTTP statuses
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeLoadError, errors.CodeAnalysisError, errors.CodeChartBinding:
		return http.StatusUnprocessableEntity
	case errors.CodeNarrativeService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a JSON error body naming the code
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		s.log.Warn("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	code := errors.GetCode(err)
	switch {
	case status == http.StatusRequestEntityTooLarge:
		code = errors.CodeInvalidInput
	case !errors.IsAppError(err):
		code = errors.CodeInternalError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
