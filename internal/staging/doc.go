// Package staging owns the on-disk lifecycle of per-run artifacts.
//
// Each run gets a Workspace under the configured work_dir, named after the
// input and the run identifier and guarded by a gofrs/flock lock file. The
// Janitor deletes the temporary units a run produced; CleanStale sweeps
// workspaces abandoned by crashed runs while skipping any whose lock is
// still held.
package staging
