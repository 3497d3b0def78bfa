// Package answer drives the staged question-answering pipeline: schema
// snapshot, plan, SQL generation, validation gate, execution, and the final
// natural-language answer. Failures inside the pipeline degrade into
// placeholder data at each stage so a best-effort answer is always produced.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sheetqa/sheetqa/internal/config"
	"github.com/sheetqa/sheetqa/internal/jsonsafe"
	"github.com/sheetqa/sheetqa/internal/observability"
	"github.com/sheetqa/sheetqa/internal/oracle"
	"github.com/sheetqa/sheetqa/internal/schema"
	"github.com/sheetqa/sheetqa/internal/store"
)

// ErrValidationRejected marks generated SQL that failed the safety gate
// under the strict policy.
var ErrValidationRejected = errors.New("generated sql rejected by validation gate")

// ErrUnavailable marks a missing pipeline dependency (store or oracle not
// configured at boot).
var ErrUnavailable = errors.New("question pipeline dependency unavailable")

// Envelope is the outward response unit for one question.
type Envelope struct {
	Answer string           `json:"answer"`
	SQL    string           `json:"sql"`
	Table  []map[string]any `json:"table"`
	Error  string           `json:"error,omitempty"`
}

type Service struct {
	Store  store.Store
	Oracle oracle.Completer
	Logger *slog.Logger

	Policy           config.ValidationPolicy
	SchemaSampleRows int
	AnswerSampleRows int
	RowCap           int
}

// Ask answers one free-text question against the current store contents.
// Under the permissive policy every internal failure is folded into the
// envelope; a non-nil error is only returned for strict-policy rejections
// and missing dependencies.
func (s *Service) Ask(ctx context.Context, question string) (Envelope, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Envelope{Table: []map[string]any{}}, fmt.Errorf("question is required")
	}
	if s.Store == nil {
		return s.unavailable("store is unavailable")
	}
	if s.Oracle == nil {
		return s.unavailable("oracle is unavailable")
	}

	snapshot, err := schema.Build(ctx, s.Store, s.sampleRows())
	if err != nil {
		// A snapshot failure degrades to an empty schema; the oracle still
		// gets to answer from nothing.
		s.logger().WarnContext(ctx, "schema snapshot failed", slog.Any("error", err))
		snapshot = schema.Snapshot{}
	}
	schemaJSON := marshalForPrompt(snapshot)

	planText := s.complete(ctx, "plan", planPrompt(schemaJSON, question))
	plan := ParsePlan(planText)

	rejected := false
	sqlText := s.complete(ctx, "sql", sqlPrompt(schemaJSON, plan.PromptJSON(), question))
	if err := Validate(sqlText); err != nil {
		observability.IncrementSQLRejection()
		s.logger().WarnContext(ctx, "generated sql rejected",
			slog.String("sql", sqlText), slog.Any("error", err))
		if s.Policy == config.PolicyStrict {
			return Envelope{Table: []map[string]any{}}, fmt.Errorf("%w: %v", ErrValidationRejected, err)
		}
		// The fallback is reported in the envelope but never executed;
		// a rejected question yields an empty result set.
		sqlText = FallbackQuery
		rejected = true
	}

	result := store.Result{Rows: [][]any{}}
	if !rejected {
		execSQL := ApplyRowCap(sqlText, s.rowCap())
		var execErr error
		result, execErr = s.Store.Query(ctx, execSQL)
		if execErr != nil {
			observability.IncrementExecutionFailure()
			s.logger().WarnContext(ctx, "query execution failed",
				slog.String("sql", execSQL), slog.Any("error", execErr))
			result = store.Result{Rows: [][]any{}}
		}
	}

	bounded := result.Rows
	if limit := s.answerRows(); len(bounded) > limit {
		bounded = bounded[:limit]
	}
	records := jsonsafe.Rows(result.Columns, bounded)

	dataJSON, encodeErr := json.Marshal(records)
	if encodeErr != nil {
		dataJSON = []byte("[]")
	}
	answerText := s.complete(ctx, "answer", answerPrompt(question, plan.PromptJSON(), string(dataJSON)))

	observability.ObserveQuestion()
	return Envelope{Answer: answerText, SQL: sqlText, Table: records}, nil
}

// complete runs one oracle stage. An oracle failure degrades to a literal
// error string that flows through the pipeline as if it were model output.
func (s *Service) complete(ctx context.Context, stage, prompt string) string {
	start := time.Now()
	text, err := s.Oracle.Complete(ctx, prompt)
	observability.ObserveOracleCall(stage, time.Since(start), err != nil)
	if err != nil {
		s.logger().WarnContext(ctx, "oracle completion failed",
			slog.String("stage", stage), slog.Any("error", err))
		return fmt.Sprintf("oracle error: %v", err)
	}
	return text
}

func (s *Service) unavailable(message string) (Envelope, error) {
	if s.Policy == config.PolicyStrict {
		return Envelope{Table: []map[string]any{}}, fmt.Errorf("%w: %s", ErrUnavailable, message)
	}
	return Envelope{
		Answer: "The service is running in degraded mode and cannot answer questions right now.",
		Table:  []map[string]any{},
		Error:  message,
	}, nil
}

func marshalForPrompt(snapshot schema.Snapshot) string {
	encoded, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) sampleRows() int {
	if s.SchemaSampleRows > 0 {
		return s.SchemaSampleRows
	}
	return 3
}

func (s *Service) answerRows() int {
	if s.AnswerSampleRows > 0 {
		return s.AnswerSampleRows
	}
	return 20
}

func (s *Service) rowCap() int {
	if s.RowCap > 0 {
		return s.RowCap
	}
	return 1000
}
