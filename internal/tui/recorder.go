package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Recorder captures TUI state changes and renders for debugging. Messages
// are logged by type only so typed passwords never reach the disk.
type Recorder struct {
	logFile  *os.File
	frameDir string
	frameNum int
}

// NewRecorder creates a recording directory under dir.
func NewRecorder(dir string) (*Recorder, error) {
	recordDir := filepath.Join(dir, fmt.Sprintf("tui-record-%d", time.Now().Unix()))
	if err := os.MkdirAll(recordDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	logPath := filepath.Join(recordDir, "tui.log")
	logFile, err := os.Create(filepath.Clean(logPath)) // #nosec G304 -- safe constructed path
	if err != nil {
		return nil, fmt.Errorf("failed to create recording log: %w", err)
	}

	r := &Recorder{logFile: logFile, frameDir: recordDir}
	r.Log("TUI Recorder started at %s", recordDir)
	return r, nil
}

// Dir returns the recording directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.frameDir
}

// RecordState captures the current state.
func (r *Recorder) RecordState(m Model, msg tea.Msg) {
	if r == nil {
		return
	}

	r.frameNum++

	r.Log("\n=== Frame %d ===", r.frameNum)
	r.Log("Time: %s", time.Now().Format("15:04:05.000"))
	r.Log("Message Type: %T", msg)
	r.Log("State: %v", m.state)
	r.Log("Signed In: %v", m.session != nil)

	view := m.View()
	framePath := filepath.Join(r.frameDir, fmt.Sprintf("frame-%04d.txt", r.frameNum))
	if err := os.WriteFile(framePath, []byte(view), 0600); err != nil {
		r.Log("Error saving frame: %v", err)
	}
}

// Log writes to the log file.
func (r *Recorder) Log(format string, args ...any) {
	if r == nil || r.logFile == nil {
		return
	}
	if _, err := fmt.Fprintf(r.logFile, format+"\n", args...); err != nil {
		return
	}
	_ = r.logFile.Sync()
}

// Close closes the recorder.
func (r *Recorder) Close() {
	if r == nil || r.logFile == nil {
		return
	}
	r.Log("Recording complete. %d frames captured.", r.frameNum)
	_ = r.logFile.Close()
}
