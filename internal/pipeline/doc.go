// Package pipeline runs sites through the processing steps of a crawl.
//
// Each discovered site becomes a model.SiteRun that a Pipeline passes through
// its steps in order: loading the captures, classifying their objects, and
// building and persisting the profile. A step that fails stops the pipeline
// for that site only.
//
// BatchProcessor runs one pipeline per site with a concurrency limit and
// returns the runs in discovery order, so the caller can merge them into the
// summary deterministically.
package pipeline
