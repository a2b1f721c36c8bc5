// Package testsupport holds helpers shared by package tests: a config
// builder rooted in t.TempDir, a sized file writer, PATH stubs for external
// binaries, and MediaRunner, a fake ffmpeg/ffprobe CommandRunner.
package testsupport
