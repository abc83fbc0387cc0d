// Package preflight provides readiness checks for the binaries, directories
// and backend credentials echoes depends on.
//
// These checks run in two contexts:
//   - "echoes process" and "echoes watch" call Required before starting work so a
//     run never begins against an unwritable or full staging directory.
//   - "echoes doctor" calls RunAll and renders every result as a table.
//
// Integration checks are informational: a missing tasks or calendar
// credential disables that integration rather than failing a check.
package preflight
