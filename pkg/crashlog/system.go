// system.go captures machine and window state at capture time.

package crashlog

import (
	"os"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Window describes the active top-level window of the host application.
type Window struct {
	// Name is the programmatic name of the window.
	Name string

	// Title is the caption shown to the user.
	Title string

	Width, Height             int
	ScreenWidth, ScreenHeight int
}

// Identity returns the name, else the title, of the window.
// Blank names are ignored.
func (w Window) Identity() string {
	if strings.TrimSpace(w.Name) != "" {
		return w.Name
	}
	return w.Title
}

// WindowProvider reports the currently active window.
// Implementations may fail when no window is active.
type WindowProvider interface {
	ActiveWindow() (Window, error)
}

// WindowProviderFunc adapts a function to WindowProvider.
type WindowProviderFunc func() (Window, error)

// ActiveWindow calls f.
func (f WindowProviderFunc) ActiveWindow() (Window, error) {
	return f()
}

// MachineInfoProvider reports host-specific hardware descriptors.
// Failures are discarded by the message builder.
type MachineInfoProvider interface {
	MachineInfo() ([]Item, error)
}

// MachineInfoFunc adapts a function to MachineInfoProvider.
type MachineInfoFunc func() ([]Item, error)

// MachineInfo calls f.
func (f MachineInfoFunc) MachineInfo() ([]Item, error) {
	return f()
}

// geometryData returns positive window and screen dimensions.
func geometryData(w Window) []Item {
	var items []Item
	add := func(key string, v int) {
		if v > 0 {
			items = append(items, Item{Key: key, Value: strconv.Itoa(v)})
		}
	}
	add("Window-Width", w.Width)
	add("Window-Height", w.Height)
	add("Screen-Width", w.ScreenWidth)
	add("Screen-Height", w.ScreenHeight)
	return items
}

// machineData captures runtime metrics for the current process.
// The startTime parameter is used to calculate process uptime.
func machineData(startTime time.Time) []Item {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptimeMs := time.Since(startTime).Milliseconds()
	if uptimeMs < 0 {
		uptimeMs = 0 // Clamp to 0 if start time is in the future
	}

	items := []Item{
		{Key: "Machine-OS", Value: runtime.GOOS},
		{Key: "Machine-Arch", Value: runtime.GOARCH},
		{Key: "Machine-CPUs", Value: strconv.Itoa(runtime.NumCPU())},
		{Key: "Process-MemoryBytes", Value: strconv.FormatUint(memStats.Alloc, 10)},
		{Key: "Process-Goroutines", Value: strconv.Itoa(runtime.NumGoroutine())},
		{Key: "Process-UptimeMs", Value: strconv.FormatInt(uptimeMs, 10)},
	}
	if v := osVersion(); v != "" {
		items = append(items, Item{Key: "Machine-OSVersion", Value: v})
	}
	return items
}

// hostname returns the machine name, falling back to the environment.
func hostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	if name := os.Getenv("COMPUTERNAME"); name != "" {
		return name
	}
	return os.Getenv("HOSTNAME")
}

// currentUser returns the OS account running the process.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
