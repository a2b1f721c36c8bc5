// Command audioscribe transcribes an audio or video file through the OpenAI
// Whisper API. Inputs the API cannot accept are converted to MP3 with ffmpeg
// and files over the upload ceiling are cut into ordered chunks whose texts
// are joined back together.
//
// The transcript is the only thing written to stdout; logs and the run
// summary go to stderr so the output can be piped directly.
package main
