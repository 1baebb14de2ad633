// Package testutil provides test doubles shared by the whisper-scribe packages.
//
//   - FakeRunner stands in for ffprobe and ffmpeg and writes chunk files of a
//     configurable size.
//   - MockTranscriber is a testify mock of the remote transcriber;
//     ScriptedTranscriber answers in order and can block or cancel at a given
//     chunk through BeforeCall.
//   - MockTranscriptionDAO is an in-memory history store.
//
// # Usage Examples
//
//	runner := &testutil.FakeRunner{ProbeOutput: testutil.ProbeJSON(600, 44100, 2, "fltp", 0)}
//	prober := audio.NewProber("ffprobe", runner)
//
//	transcriber := &testutil.ScriptedTranscriber{Responses: []string{"hello", "world"}}
//	orch := transcription.NewOrchestrator(prober, splitter, transcriber, limits, nil, nil)
package testutil
