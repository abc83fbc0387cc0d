// Package workflow runs the audio-to-summary pipeline.
//
// A run moves through converting, normalizing, transcribing, summarizing,
// extracting_actions and integrating before it completes. The first five
// stages are required: any failure marks the run failed and returns the
// stage's error with no result. Integrating covers two optional steps, task
// creation and follow-up scheduling; each is gated by the caller's flag and
// by whether its sink is configured, and a failure there is logged and
// annotated on the result instead of failing the run.
//
// Every run gets its own ID, work directory under the staging root, logger
// fields and artifact scope. Temporary artifacts are deleted as soon as no
// later stage needs them and the work directory is removed when the run ends,
// whatever the outcome.
//
// Processor.Process is the blocking entry point. Pool schedules the same call
// on worker goroutines and hands back a Future.
package workflow
