// Package junit bundles the schema for JUnit-style XML test-result documents
// (testsuites/testsuite/testcase with failure and error variants).
package junit

import (
	"context"
	"sync"

	simpleschema "github.com/commonenv/simpleschema"
)

// SchemaText is the test-report schema in the description language. The
// failure and error elements share one structural contract, tagged through
// fundamental_name so a conforming document may carry either.
const SchemaText = `# JUnit-style test report
<testsuites>:
  [tests int min=0 ?]
  [failures int min=0 ?]
  [errors int min=0 ?]
  [time duration ?]
  <testsuite *>:
    [name string min_length=1]
    [tests int min=0]
    [failures int min=0 ?]
    [errors int min=0 ?]
    [skipped int min=0 ?]
    [time duration ?]
    [timestamp datetime ?]
    [hostname string ?]
    <properties ?>:
      <property *>:
        [name string min_length=1]
        [value string]
    <testcase *>:
      [name string min_length=1]
      [classname string ?]
      [time duration ?]
      <failure fundamental_name=desc ?>:
        [message string ?]
        [type string ?]
      <error fundamental_name=desc ?>:
        [message string ?]
        [type string ?]
      <skipped ?>:
        [message string ?]
      <system-out string ?>
      <system-err string ?>
`

var (
	once  sync.Once
	model *simpleschema.Model
)

// Schema returns the parsed test-report model. The model is built once and
// shared; it panics only if SchemaText itself is broken, which is a
// programmer error caught by this package's tests.
func Schema() *simpleschema.Model {
	once.Do(func() {
		m, err := simpleschema.Parse(SchemaText)
		if err != nil {
			panic("junit: embedded schema is invalid: " + err.Error())
		}
		model = m
	})
	return model
}

// ValidateReport validates a decoded test-report document, returning nil or
// the collected simpleschema.Violations.
func ValidateReport(ctx context.Context, doc map[string]any, opts ...simpleschema.ValidateOption) error {
	return simpleschema.Validate(ctx, doc, Schema(), opts...)
}
