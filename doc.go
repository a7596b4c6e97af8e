package simpleschema

// Package simpleschema provides:
//
// - Parsing of a compact, indentation-based schema description language into
//   an immutable Model (Parse)
// - Structural validation of documents against a Model, collecting every
//   Violation (path, constraint, message) instead of stopping at the first
// - Template generation: a document that satisfies every mandatory field and
//   constraint of a Model (Generate)
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations
//   under internal/.
// - Place scalar format helpers under codec/, bundled schemas under junit/
//   and hooks/, and the CLI under cmd/simpleschema.
// - The core performs no I/O: filesystem existence checks for ensure_exists
//   constraints go through an injected Oracle capability.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	m, err := simpleschema.Parse(schemaText)
//	doc, err := simpleschema.JSONBytes(data)
//	if err := simpleschema.Validate(ctx, doc, m); err != nil {
//	    vs, _ := simpleschema.AsViolations(err)
//	    ...
//	}
