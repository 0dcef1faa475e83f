// Package expr evaluates the expressions embedded in workflow steps.
//
// Expressions are CEL programs. Every evaluation is cost-tracked, bounded
// by a cost limit, and interruptible through its context, so a workflow
// step can charge what it spent to the engine's gas meter and can never
// run unbounded.
//
// Strings of the form "${...}" inside step payloads are expressions; a
// string that only contains such placeholders is a template whose
// placeholders are replaced by their results.
package expr
