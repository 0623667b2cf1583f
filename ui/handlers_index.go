package ui

import (
	"net/http"

	"datastory/domain/story"
	"datastory/internal/errors"
	"datastory/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

func (s *Server) indexPage(errMsg string) IndexPage {
	return IndexPage{
		Samples:            s.samples.Info(),
		Audiences:          story.Audiences,
		Foci:               story.Foci,
		Lengths:            story.Lengths,
		Defaults:           story.DefaultConfig(),
		NarrativeAvailable: s.cfg.HasNarrativeService(),
		MaxUploadMB:        s.cfg.Server.MaxUploadMB,
		Error:              errMsg,
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, fragments.IndexPage, s.indexPage(""))
}

// handleStoryPage runs the pipeline for the upload form. Input errors re-render
// the form with the message instead of a JSON body.
func (s *Server) handleStoryPage(c *gin.Context) {
	req, err := bindRequest(c)
	if err == nil {
		var page *StoryPage
		page, err = s.buildStoryPage(c, req)
		if err == nil {
			s.renderTemplate(c, http.StatusOK, fragments.StoryPage, page)
			return
		}
	}
	s.log.Warn("Story page failed: %v", err)
	s.renderTemplate(c, statusFor(err), fragments.IndexPage, s.indexPage(err.Error()))
}

func (s *Server) buildStoryPage(c *gin.Context, req datasetRequest) (*StoryPage, error) {
	ds, err := s.loadDataset(c, req)
	if err != nil {
		return nil, err
	}
	result, err := s.stories.GenerateStory(c.Request.Context(), ds, req.storyConfig())
	if err != nil {
		return nil, err
	}

	page := &StoryPage{
		Result:    result,
		Columns:   profileRows(result.Analysis),
		Narrative: s.render.Markdown(result.Story.Narrative),
	}
	if _, ok := s.samples.Lookup(req.Sample); ok && !isUpload(c) {
		page.Sample = req.Sample
	}
	page.Headers, page.Rows = previewTable(ds, previewRows)
	return page, nil
}

// handleQuestionFragment answers a question and returns an HTML fragment for
// the story page
func (s *Server) handleQuestionFragment(c *gin.Context) {
	fragment := func(status int, data answerFragment) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(status, s.render.RenderFragment(fragments.AnswerCard, data))
	}

	req, err := bindRequest(c)
	if err != nil {
		fragment(statusFor(err), answerFragment{Error: err.Error()})
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		fragment(statusFor(err), answerFragment{Error: err.Error()})
		return
	}
	result, err := s.stories.AskQuestion(c.Request.Context(), ds, req.Question)
	if err != nil {
		fragment(statusFor(err), answerFragment{Error: err.Error(), Code: errors.GetCode(err)})
		return
	}
	fragment(http.StatusOK, answerFragment{Result: result})
}

func isUpload(c *gin.Context) bool {
	if c.Request.MultipartForm == nil {
		return false
	}
	return len(c.Request.MultipartForm.File["file"]) > 0
}
