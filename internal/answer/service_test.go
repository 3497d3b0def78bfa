package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sheetqa/sheetqa/internal/config"
	"github.com/sheetqa/sheetqa/internal/store"
)

type scriptedOracle struct {
	responses []string
	errs      []error
	prompts   []string
}

func (o *scriptedOracle) Complete(_ context.Context, prompt string) (string, error) {
	index := len(o.prompts)
	o.prompts = append(o.prompts, prompt)
	if index < len(o.errs) && o.errs[index] != nil {
		return "", o.errs[index]
	}
	if index < len(o.responses) {
		return o.responses[index], nil
	}
	return "no further output", nil
}

type answerStore struct {
	tables   []string
	queries  []string
	result   store.Result
	queryErr error
}

func (f *answerStore) ReplaceTable(context.Context, store.TableDef, [][]any) error { return nil }
func (f *answerStore) Ping(context.Context) error                                  { return nil }

func (f *answerStore) ListTables(context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *answerStore) DescribeTable(_ context.Context, name string) (store.TableInfo, error) {
	return store.TableInfo{Name: name, Columns: []store.ColumnInfo{{Name: "id", Type: "BIGINT"}}}, nil
}

func (f *answerStore) SampleRows(context.Context, string, int) (store.Result, error) {
	return store.Result{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}, nil
}

func (f *answerStore) Query(_ context.Context, sqlText string) (store.Result, error) {
	f.queries = append(f.queries, sqlText)
	if f.queryErr != nil {
		return store.Result{}, f.queryErr
	}
	return f.result, nil
}

func newService(st store.Store, o *scriptedOracle, policy config.ValidationPolicy) *Service {
	return &Service{
		Store:            st,
		Oracle:           o,
		Policy:           policy,
		SchemaSampleRows: 3,
		AnswerSampleRows: 20,
		RowCap:           1000,
	}
}

func TestAskHappyPath(t *testing.T) {
	st := &answerStore{
		tables: []string{"sales__sheet_1"},
		result: store.Result{Columns: []string{"total"}, Rows: [][]any{{int64(42)}}},
	}
	o := &scriptedOracle{responses: []string{
		`{"plan": "count the rows"}`,
		"SELECT count(*) AS total FROM sales__sheet_1",
		"There are 42 rows.",
	}}

	envelope, err := newService(st, o, config.PolicyPermissive).Ask(context.Background(), "how many rows?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if envelope.Answer != "There are 42 rows." {
		t.Fatalf("answer = %q", envelope.Answer)
	}
	if envelope.SQL != "SELECT count(*) AS total FROM sales__sheet_1" {
		t.Fatalf("sql = %q", envelope.SQL)
	}
	if len(envelope.Table) != 1 || envelope.Table[0]["total"] != int64(42) {
		t.Fatalf("table = %#v", envelope.Table)
	}
	if len(st.queries) != 1 || !strings.Contains(st.queries[0], "LIMIT 1000") {
		t.Fatalf("executed sql = %v, want injected row cap", st.queries)
	}
	if len(o.prompts) != 3 {
		t.Fatalf("oracle calls = %d, want 3", len(o.prompts))
	}
}

func TestAskPermissiveSubstitutesFallbackForUnsafeSQL(t *testing.T) {
	st := &answerStore{tables: []string{"users__sheet_1"}}
	o := &scriptedOracle{responses: []string{
		`{"plan": "remove everything"}`,
		"DELETE FROM users;",
		"I could not run that.",
	}}

	envelope, err := newService(st, o, config.PolicyPermissive).Ask(context.Background(), "wipe users")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if envelope.SQL != FallbackQuery {
		t.Fatalf("sql = %q, want fallback", envelope.SQL)
	}
	if len(st.queries) != 0 {
		t.Fatalf("rejected question reached execution: %v", st.queries)
	}
	if len(envelope.Table) != 0 {
		t.Fatalf("table = %#v, want empty", envelope.Table)
	}
}

func TestAskStrictRejectsUnsafeSQL(t *testing.T) {
	st := &answerStore{tables: []string{"users__sheet_1"}}
	o := &scriptedOracle{responses: []string{
		`{"plan": "remove everything"}`,
		"DELETE FROM users;",
	}}

	_, err := newService(st, o, config.PolicyStrict).Ask(context.Background(), "wipe users")
	if !errors.Is(err, ErrValidationRejected) {
		t.Fatalf("err = %v, want ErrValidationRejected", err)
	}
	if len(st.queries) != 0 {
		t.Fatalf("rejected statement reached execution: %v", st.queries)
	}
}

func TestAskDegradesOnExecutionFailure(t *testing.T) {
	st := &answerStore{
		tables:   []string{"t"},
		queryErr: errors.New("syntax error near FROM"),
	}
	o := &scriptedOracle{responses: []string{
		`{"plan": "try"}`,
		"SELECT nonsense FROM t",
		"No data was available.",
	}}

	envelope, err := newService(st, o, config.PolicyPermissive).Ask(context.Background(), "anything?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(envelope.Table) != 0 {
		t.Fatalf("table = %#v, want empty", envelope.Table)
	}
	if envelope.Answer != "No data was available." {
		t.Fatalf("answer = %q", envelope.Answer)
	}
}

func TestAskDegradesOnOracleFailure(t *testing.T) {
	st := &answerStore{tables: []string{"t"}}
	o := &scriptedOracle{
		responses: []string{"", "", ""},
		errs:      []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout")},
	}

	envelope, err := newService(st, o, config.PolicyPermissive).Ask(context.Background(), "anything?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	// The SQL stage output is a literal error string, which fails the gate
	// and degrades to the fallback query.
	if envelope.SQL != FallbackQuery {
		t.Fatalf("sql = %q", envelope.SQL)
	}
	if len(st.queries) != 0 {
		t.Fatalf("degraded question reached execution: %v", st.queries)
	}
	if !strings.Contains(envelope.Answer, "oracle error") {
		t.Fatalf("answer = %q", envelope.Answer)
	}
}

func TestAskRetainsRawPlanOnParseFailure(t *testing.T) {
	plan := ParsePlan("first look at the tables, then count")
	if plan.Structured != nil {
		t.Fatal("expected raw plan")
	}
	if !strings.Contains(plan.PromptJSON(), "first look at the tables") {
		t.Fatalf("prompt json = %q", plan.PromptJSON())
	}

	structured := ParsePlan(`{"plan": ["step one", "step two"]}`)
	if structured.Structured == nil {
		t.Fatal("expected structured plan")
	}
}

func TestAskWithoutDependencies(t *testing.T) {
	envelope, err := (&Service{Policy: config.PolicyPermissive}).Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("permissive ask should not error: %v", err)
	}
	if envelope.Error == "" {
		t.Fatal("expected degraded envelope error")
	}

	_, err = (&Service{Policy: config.PolicyStrict}).Ask(context.Background(), "q")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAskBoundsAnswerSample(t *testing.T) {
	rows := make([][]any, 50)
	for i := range rows {
		rows[i] = []any{int64(i)}
	}
	st := &answerStore{
		tables: []string{"t"},
		result: store.Result{Columns: []string{"n"}, Rows: rows},
	}
	o := &scriptedOracle{responses: []string{`{"plan": "x"}`, "SELECT n FROM t", "done"}}

	s := newService(st, o, config.PolicyPermissive)
	s.AnswerSampleRows = 20
	envelope, err := s.Ask(context.Background(), "list")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(envelope.Table) != 20 {
		t.Fatalf("table rows = %d, want 20", len(envelope.Table))
	}
}
