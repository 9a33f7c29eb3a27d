// Package tool runs external security tools against a target and falls
// back to built-in probes when a tool's binary is not installed.
//
// Each supported tool is described by a Tool entry in the registry. The
// Invoker resolves the binary, builds the argument list, enforces the
// execution timeout, and records the outcome as a model.ToolRun. When a
// binary is missing, the Prober runs a lightweight built-in check that
// approximates the tool's purpose so a run on a minimal host still
// produces useful results.
package tool
