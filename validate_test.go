package simpleschema_test

import (
	"context"
	"testing"

	simpleschema "github.com/commonenv/simpleschema"
)

func wantViolations(t *testing.T, err error, n int) simpleschema.Violations {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d violation(s), got success", n)
	}
	vs, ok := simpleschema.AsViolations(err)
	if !ok {
		t.Fatalf("expected Violations, got %T: %v", err, err)
	}
	if len(vs) != n {
		t.Fatalf("expected %d violation(s), got %d: %v", n, len(vs), vs)
	}
	return vs
}

func TestValidate_Success(t *testing.T) {
	m := mustParse(t, `<report>:
  [name string min_length=1]
  [count int min=0]
  [ratio number ?]
  <entry *>:
    [when datetime]
    [took duration]
`)
	doc := map[string]any{
		"report": map[string]any{
			"name":  "nightly",
			"count": 3,
			"entry": []any{
				map[string]any{"when": "2021-03-04T05:06:07Z", "took": 1.25},
				map[string]any{"when": "2021-03-04 05:06:07", "took": "1m30s"},
			},
		},
	}
	if err := simpleschema.Validate(context.Background(), doc, m); err != nil {
		t.Fatalf("expected zero violations, got %v", err)
	}
}

func TestValidate_MissingMandatoryField(t *testing.T) {
	m := mustParse(t, "<report>:\n  [name string]\n  [count int ?]\n")
	doc := map[string]any{"report": map[string]any{"count": 1}}
	vs := wantViolations(t, simpleschema.Validate(context.Background(), doc, m), 1)
	if vs[0].Path != "report.name" || vs[0].Constraint != simpleschema.ConstraintRequired {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_MissingRoot(t *testing.T) {
	m := mustParse(t, "<report>:\n  [name string]\n")
	vs := wantViolations(t, simpleschema.Validate(context.Background(), map[string]any{}, m), 1)
	if vs[0].Path != "report" || vs[0].Constraint != simpleschema.ConstraintRequired {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_MinBoundary(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [n int min=3]\n")
	ctx := context.Background()

	// exactly min passes
	if err := simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"n": 3}}, m); err != nil {
		t.Fatalf("boundary value should pass, got %v", err)
	}
	// one less fails
	vs := wantViolations(t, simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"n": 2}}, m), 1)
	if vs[0].Constraint != simpleschema.ConstraintMin || vs[0].Message != "2 < 3" {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_MinLengthBoundary(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [s string min_length=2]\n")
	ctx := context.Background()

	if err := simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"s": "ab"}}, m); err != nil {
		t.Fatalf("boundary value should pass, got %v", err)
	}
	vs := wantViolations(t, simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"s": "a"}}, m), 1)
	if vs[0].Constraint != simpleschema.ConstraintMinLength {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_TypeMismatches(t *testing.T) {
	m := mustParse(t, `<doc>:
  [n int]
  [f number]
  [d datetime]
  [t duration]
  [u uri]
`)
	doc := map[string]any{"doc": map[string]any{
		"n": "nope",
		"f": true,
		"d": "not-a-date",
		"t": -1,
		"u": "no-scheme",
	}}
	vs := wantViolations(t, simpleschema.Validate(context.Background(), doc, m), 5)
	for _, v := range vs {
		if v.Constraint != simpleschema.ConstraintType {
			t.Fatalf("expected type violation, got %+v", v)
		}
	}
}

func TestValidate_IntRejectsFraction(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [n int]\n")
	vs := wantViolations(t, simpleschema.Validate(context.Background(),
		map[string]any{"doc": map[string]any{"n": 1.5}}, m), 1)
	if vs[0].Constraint != simpleschema.ConstraintType {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_RepeatedCardinality(t *testing.T) {
	m := mustParse(t, "<doc>:\n  <item *>:\n    [name string]\n")
	ctx := context.Background()

	// zero occurrences conform
	if err := simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{}}, m); err != nil {
		t.Fatalf("absent repeated element should pass, got %v", err)
	}
	// a non-sequence does not
	vs := wantViolations(t, simpleschema.Validate(ctx,
		map[string]any{"doc": map[string]any{"item": map[string]any{"name": "x"}}}, m), 1)
	if vs[0].Path != "doc.item" || vs[0].Constraint != simpleschema.ConstraintCardinality {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	m := mustParse(t, `<doc>:
  [a string]
  [b int min=0]
  <item *>:
    [name string min_length=1]
`)
	doc := map[string]any{"doc": map[string]any{
		"b":    -2,
		"item": []any{map[string]any{"name": ""}, map[string]any{}},
	}}
	vs := wantViolations(t, simpleschema.Validate(context.Background(), doc, m), 4)
	wantPaths := []string{"doc.a", "doc.b", "doc.item[0].name", "doc.item[1].name"}
	for i, want := range wantPaths {
		if vs[i].Path != want {
			t.Fatalf("violation %d: expected path %q, got %q", i, want, vs[i].Path)
		}
	}
	if vs[1].Message != "-2 < 0" {
		t.Fatalf("unexpected min message %q", vs[1].Message)
	}
}

func TestValidate_EnsureExistsDisabled(t *testing.T) {
	// ensure_exists=false wins even when the oracle reports the file absent.
	m := mustParse(t, "<Commit>:\n  <removed filename * ensure_exists=false>\n")
	doc := map[string]any{"Commit": map[string]any{"removed": []any{"missing.txt"}}}
	nothing := simpleschema.OracleFunc(func(context.Context, string) bool { return false })
	if err := simpleschema.Validate(context.Background(), doc, m, simpleschema.WithOracle(nothing)); err != nil {
		t.Fatalf("ensure_exists=false must skip the oracle, got %v", err)
	}
}

func TestValidate_EnsureExistsDefault(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [f filename]\n")
	doc := map[string]any{"doc": map[string]any{"f": "gone.txt"}}
	ctx := context.Background()

	// without an oracle the check is skipped
	if err := simpleschema.Validate(ctx, doc, m); err != nil {
		t.Fatalf("nil oracle should skip existence checks, got %v", err)
	}
	// with one, a filename defaults to ensure_exists
	nothing := simpleschema.OracleFunc(func(context.Context, string) bool { return false })
	vs := wantViolations(t, simpleschema.Validate(ctx, doc, m, simpleschema.WithOracle(nothing)), 1)
	if vs[0].Constraint != simpleschema.ConstraintEnsureExists || vs[0].Path != "doc.f" {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_UnknownKeysPolicy(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [a string]\n")
	doc := map[string]any{"doc": map[string]any{"a": "x", "zz": 1, "bb": 2}}
	ctx := context.Background()

	if err := simpleschema.Validate(ctx, doc, m); err != nil {
		t.Fatalf("unknown keys are ignored by default, got %v", err)
	}
	vs := wantViolations(t, simpleschema.Validate(ctx, doc, m,
		simpleschema.WithUnknownKeys(simpleschema.UnknownReport)), 2)
	if vs[0].Path != "doc.bb" || vs[1].Path != "doc.zz" {
		t.Fatalf("expected deterministic unknown-key order, got %v", vs)
	}
}

func TestValidate_DisplayAliasMatchesDocumentKey(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [branch string name=branch_name]\n")
	ctx := context.Background()
	if err := simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"branch_name": "main"}}, m); err != nil {
		t.Fatalf("alias key should match, got %v", err)
	}
	vs := wantViolations(t, simpleschema.Validate(ctx, map[string]any{"doc": map[string]any{"branch": "main"}}, m), 1)
	if vs[0].Path != "doc.branch_name" || vs[0].Constraint != simpleschema.ConstraintRequired {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidate_JSONDecodedNumbers(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [n int min=0]\n  [f number]\n")
	doc, err := simpleschema.JSONBytes([]byte(`{"doc": {"n": 7, "f": 1.5}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := simpleschema.Validate(context.Background(), doc, m); err != nil {
		t.Fatalf("expected zero violations, got %v", err)
	}
}

func TestValidate_YAMLDecodedDocument(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [n int min=0]\n  [s string]\n")
	doc, err := simpleschema.YAMLBytes([]byte("doc:\n  n: 4\n  s: hello\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := simpleschema.Validate(context.Background(), doc, m); err != nil {
		t.Fatalf("expected zero violations, got %v", err)
	}
}

func TestValidate_NonMappingDocument(t *testing.T) {
	m := mustParse(t, "<doc>:\n  [a string]\n")
	vs := wantViolations(t, simpleschema.Validate(context.Background(), []any{1}, m), 1)
	if vs[0].Constraint != simpleschema.ConstraintType {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}

func TestValidateNode_PathsRootedAtElement(t *testing.T) {
	m := mustParse(t, eventSchema)
	data := map[string]any{"author": "jo", "date": "2021-03-04T05:06:07Z"}
	vs := wantViolations(t, simpleschema.ValidateNode(context.Background(), data, m.Element("Commit")), 1)
	if vs[0].Path != "Commit.id" || vs[0].Constraint != simpleschema.ConstraintRequired {
		t.Fatalf("unexpected violation %+v", vs[0])
	}
}
