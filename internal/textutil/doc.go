// Package textutil provides the text segmentation shared by the summarizer,
// the action-item extractor, and follow-up scheduling.
//
// Two splitters exist on purpose. SplitPeriods is the naive period split used
// for key points, where the output must round-trip exactly with what the
// summarizer produced. SplitSentences is a punctuation-aware segmenter that
// keeps terminal punctuation, used wherever a sentence is shown back to the
// user as context.
package textutil
