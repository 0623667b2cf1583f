package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"datastory/ai"
	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/domain/story"
	"datastory/internal/analysis"
	"datastory/internal/chart"
	"datastory/internal/errors"
	"datastory/internal/metrics"
	"datastory/internal/profiling"
)

// PromptSampleRows is how many leading rows are handed to the prompt compiler
const PromptSampleRows = 10

// Narrator requests stories and answers from the narrative service
type Narrator interface {
	Story(ctx context.Context, prompt string) (*story.Response, error)
	Answer(ctx context.Context, prompt string) (*story.Answer, error)
}

// StoryService runs the profile -> prompt -> narrative -> chart pipeline for one
// dataset. It holds no per-request state.
type StoryService struct {
	profiler  *profiling.DataProfiler
	compiler  *ai.PromptCompiler
	narrator  Narrator
	binder    *chart.Binder
	maxCharts int
}

// BoundInsight is a story insight together with its bound chart. Chart is nil
// when the recommendation is absent or could not be bound; ChartError then
// carries the reason (empty when nothing was recommended).
type BoundInsight struct {
	story.Insight
	Chart      *chart.Chart `json:"chart,omitempty"`
	ChartError string       `json:"chart_error,omitempty"`
}

// StoryResult is everything the presentation layer needs to render a story
type StoryResult struct {
	ID          core.StoryID        `json:"id"`
	Dataset     string              `json:"dataset"`
	Fingerprint core.Hash           `json:"fingerprint"`
	Config      story.Config        `json:"config"`
	Analysis    dataset.Analysis    `json:"analysis"`
	Story       *story.Response     `json:"story"`
	Insights    []BoundInsight      `json:"insights"`
	Charts      []*chart.Chart      `json:"charts"`
	KeyMetrics  analysis.KeyMetrics `json:"key_metrics"`
	Fallback    bool                `json:"fallback"`
	Warning     string              `json:"warning,omitempty"`
	RuntimeMs   int64               `json:"runtime_ms"`
}

// QuestionResult is the reply to a question about a dataset. Answer is nil
// when the narrative service failed; Warning then says why.
type QuestionResult struct {
	Question string        `json:"question"`
	Answer   *story.Answer `json:"answer"`
	Chart    *chart.Chart  `json:"chart,omitempty"`
	Warning  string        `json:"warning,omitempty"`
}

// NewStoryService wires the pipeline. narrator may be nil, in which case every
// story is the fallback story.
func NewStoryService(compiler *ai.PromptCompiler, narrator Narrator, binder *chart.Binder) *StoryService {
	return &StoryService{
		profiler:  profiling.NewDataProfiler(),
		compiler:  compiler,
		narrator:  narrator,
		binder:    binder,
		maxCharts: chart.DefaultMaxCharts,
	}
}

// Binder returns the chart binder shared by the pipeline
func (s *StoryService) Binder() *chart.Binder { return s.binder }

// Analyze profiles the dataset
func (s *StoryService) Analyze(ds *dataset.Dataset) (dataset.Analysis, error) {
	if err := requireDataset(ds); err != nil {
		return dataset.Analysis{}, err
	}
	return s.profiler.Profile(ds), nil
}

// CompilePrompt renders the story prompt without calling the narrative service
func (s *StoryService) CompilePrompt(ds *dataset.Dataset, cfg story.Config) (string, error) {
	if err := requireDataset(ds); err != nil {
		return "", err
	}
	return s.compiler.Compile(s.profiler.Profile(ds), cfg.WithDefaults(), ds.Head(PromptSampleRows))
}

// GenerateStory runs the whole pipeline. Only a missing dataset or a prompt
// template failure is an error: a narrative failure yields the fallback story
// and an unbindable chart drops only that chart.
func (s *StoryService) GenerateStory(ctx context.Context, ds *dataset.Dataset, cfg story.Config) (*StoryResult, error) {
	if err := requireDataset(ds); err != nil {
		return nil, err
	}
	start := time.Now()
	cfg = cfg.WithDefaults()

	result := &StoryResult{
		ID:          core.NewStoryID(),
		Dataset:     ds.Name,
		Fingerprint: Fingerprint(ds),
		Config:      cfg,
		Analysis:    s.profiler.Profile(ds),
	}
	log.Printf("[StoryService] Generating story %s for %q (%dx%d, fingerprint=%s)",
		result.ID, ds.Name, ds.NumRows(), ds.NumColumns(), result.Fingerprint.Short())

	prompt, err := s.compiler.Compile(result.Analysis, cfg, ds.Head(PromptSampleRows))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile story prompt for %q", ds.Name)
	}

	resp, err := s.requestStory(ctx, prompt)
	if err != nil {
		log.Printf("[StoryService] WARN: story %s uses fallback: %v", result.ID, err)
		resp = story.Fallback(ds)
		result.Fallback = true
		result.Warning = fmt.Sprintf("The narrative service did not return a story (%v). Showing a placeholder story instead.", err)
		metrics.StoriesTotal.WithLabelValues(metrics.SourceFallback).Inc()
	} else {
		metrics.StoriesTotal.WithLabelValues(metrics.SourceNarrative).Inc()
	}
	result.Story = resp

	result.Insights = s.bindInsights(ds, resp.KeyInsights)
	result.Charts = s.binder.AutoGenerate(ds, s.maxCharts)
	result.KeyMetrics = analysis.ExtractKeyMetrics(ds, nil)
	result.RuntimeMs = time.Since(start).Milliseconds()

	log.Printf("[StoryService] Story %s ready - insights=%d charts=%d fallback=%t in %dms",
		result.ID, len(result.Insights), len(result.Charts), result.Fallback, result.RuntimeMs)
	return result, nil
}

func (s *StoryService) requestStory(ctx context.Context, prompt string) (*story.Response, error) {
	if s.narrator == nil {
		return nil, ai.ErrUnavailable
	}
	resp, err := s.narrator.Story(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, story.ErrInvalidJSON
	}
	return resp, nil
}

// bindInsights binds each insight's chart independently
func (s *StoryService) bindInsights(ds *dataset.Dataset, insights []story.Insight) []BoundInsight {
	bound := make([]BoundInsight, 0, len(insights))
	for _, in := range insights {
		b := BoundInsight{Insight: in}
		if in.ChartRecommendation != nil {
			c, err := s.bind(ds, chart.FromRecommendation(in.ChartRecommendation))
			if err != nil {
				log.Printf("[StoryService] WARN: insight %q chart skipped: %v", in.Title, err)
				b.ChartError = err.Error()
			}
			b.Chart = c
		}
		bound = append(bound, b)
	}
	return bound
}

// bind is Binder.Bind with the never-panic guarantee of Binder.Render
func (s *StoryService) bind(ds *dataset.Dataset, spec chart.Spec) (c *chart.Chart, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, errors.ChartBindingError(spec.Type, fmt.Errorf("panic: %v", r))
		}
	}()
	return s.binder.Bind(ds, spec)
}

// AskQuestion answers a free-form question about the dataset
func (s *StoryService) AskQuestion(ctx context.Context, ds *dataset.Dataset, question string) (*QuestionResult, error) {
	if err := requireDataset(ds); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.InvalidInput("question is empty")
	}

	prompt, err := s.compiler.CompileQuestion(s.profiler.Profile(ds), question)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile question prompt")
	}

	result := &QuestionResult{Question: question}
	if s.narrator == nil {
		result.Warning = ai.ErrUnavailable.Error()
		return result, nil
	}

	ans, err := s.narrator.Answer(ctx, prompt)
	if err != nil || ans == nil {
		log.Printf("[StoryService] WARN: question not answered: %v", err)
		result.Warning = fmt.Sprintf("The narrative service did not answer (%v).", err)
		return result, nil
	}
	result.Answer = ans

	if ans.ChartRecommendation != nil {
		result.Chart = s.binder.Render(ds, chart.FromRecommendation(ans.ChartRecommendation))
	}
	return result, nil
}

// Fingerprint identifies a dataset by its shape and contents
func Fingerprint(ds *dataset.Dataset) core.Hash {
	parts := make([]string, 0, 2+ds.NumColumns()*(ds.NumRows()+1))
	parts = append(parts, ds.Name, strconv.Itoa(ds.NumRows()))
	for _, col := range ds.Columns {
		parts = append(parts, col.Name+":"+string(col.Type))
		for i := range col.Values {
			parts = append(parts, col.Label(i))
		}
	}
	return core.ComputeHash(parts...)
}

func requireDataset(ds *dataset.Dataset) error {
	if ds == nil || ds.NumColumns() == 0 {
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: no dataset loaded", core.ErrInsufficientData))
	}
	return nil
}
