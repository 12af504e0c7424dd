package pipeline

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/store"
)

//go:embed prompts/parser.md
var parserInstruction string

var errEmptyContent = errors.New("resume content is empty")

type parser struct {
	stage
}

// NewParser creates the stage that extracts structured fields from the raw
// resume text. Candidates whose extraction output cannot be decoded are
// dropped.
func NewParser(deps *Deps) Stage {
	return &parser{stage{name: candidate.StepParser, reaches: StateParsed, deps: deps}}
}

func (s *parser) Validate() error {
	return s.deps.requireExtractor()
}

func (s *parser) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	return s.apply(ctx, run, batch, s.parse, nil)
}

func (s *parser) parse(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
	content, err := s.content(ctx, item)
	if err != nil {
		return nil, err
	}

	raw, err := s.deps.Extractor.Extract(ctx, parserInstruction, content)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	fields, err := DecodeFields(raw)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Repo.Update(ctx, item.ID, store.FieldChanges(fields).Step(candidate.StepParser)); err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	item.Fields = fields
	item.Content = content
	item.AgentStep = candidate.StepParser

	log.Debug("candidate parsed", zap.String("name", fields.Name))
	return item, nil
}

// content returns the raw text, loading it from the content storage when
// the candidate was not uploaded in this process.
func (s *parser) content(ctx context.Context, item *candidate.Item) (string, error) {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content, nil
	}
	if item.ContentRef == "" || s.deps.Blob == nil {
		return "", errEmptyContent
	}

	data, err := s.deps.Blob.Get(ctx, item.ContentRef)
	if err != nil {
		return "", fmt.Errorf("load content: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errEmptyContent
	}
	return string(data), nil
}

// DecodeFields parses the JSON object produced by the extraction capability.
// Code fences and text around the object are ignored, numbers become
// strings and lists are joined with commas.
func DecodeFields(raw string) (candidate.Fields, error) {
	cleaned := ai.StripCodeFence(raw)
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return candidate.Fields{}, fmt.Errorf("parse extraction output: %w", err)
	}

	var fields candidate.Fields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       joinListHook,
		Result:           &fields,
	})
	if err != nil {
		return candidate.Fields{}, err
	}
	if err := decoder.Decode(data); err != nil {
		return candidate.Fields{}, fmt.Errorf("decode extraction output: %w", err)
	}

	trimStrings(&fields)
	return fields, nil
}

func joinListHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || (from.Kind() != reflect.Slice && from.Kind() != reflect.Array) {
		return data, nil
	}

	list := reflect.ValueOf(data)
	parts := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		if part := strings.TrimSpace(fmt.Sprint(list.Index(i).Interface())); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", "), nil
}

func trimStrings(fields *candidate.Fields) {
	v := reflect.ValueOf(fields).Elem()
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.String {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
