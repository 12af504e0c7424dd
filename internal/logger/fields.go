package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStage is the structured log field key for the pipeline stage name.
	FieldStage = "stage"
	// FieldTask is the structured log field key for the upload task identifier.
	FieldTask = "task_id"
	// FieldCandidate is the structured log field key for the candidate identifier.
	FieldCandidate = "candidate_id"
	// FieldFile is the structured log field key for the resume file name.
	FieldFile = "file_name"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger, defaulting to a no-op
// logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// StageFields describes a stage run of a task.
func StageFields(stage, taskID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldStage, Value: stage},
		StringField{Key: FieldTask, Value: taskID},
	)
}

// ItemFields describes a single candidate. A zero id is omitted since it is
// not assigned before the upload.
func ItemFields(id uint, fileName string) []zap.Field {
	fields := StringFields(StringField{Key: FieldFile, Value: fileName})
	if id != 0 {
		fields = append(fields, zap.Uint(FieldCandidate, id))
	}
	return fields
}

// ProviderFields describes the AI provider and model. Empty values are ignored.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}
