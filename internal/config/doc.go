// Package config loads, normalizes, and validates echoes configuration.
//
// Configuration is read from TOML (or YAML when the file extension says so),
// layered over Default(), then adjusted by environment overrides. The same
// variable names the task manager and calendar integrations have always used
// (TASK_MANAGER_API_KEY, CALENDAR_API_KEY, ...) are honoured so existing
// deployments keep working. Whether an optional integration is available is
// decided here: an integration is enabled exactly when its credential is set.
package config
