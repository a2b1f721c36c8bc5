// Package deps checks for the external binaries the pipeline shells out to
// (ffmpeg and ffprobe) and for the MP3 encoder inside ffmpeg.
package deps
