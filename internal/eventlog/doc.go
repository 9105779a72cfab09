// Package eventlog persists the explorer's append-only event log.
//
// Every run of the pipeline records what happened (a file was loaded, a
// load failed, a filter was applied, a view was exported) through a
// core.EventRecorder. FileRecorder appends human-readable lines to a log
// file; PgRecorder stores structured rows in PostgreSQL and is purged on a
// retention schedule. Multi fans one event out to several recorders.
package eventlog
