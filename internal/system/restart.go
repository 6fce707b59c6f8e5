package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Restarter restarts the device. The factory reset sequence depends on it
// as its final step; tests substitute a fake.
type Restarter interface {
	Restart() error
}

// rebooter restarts via the kernel reboot syscall.
type rebooter struct{}

// NewRestarter returns the production restarter.
func NewRestarter() Restarter {
	return rebooter{}
}

// Restart syncs filesystems and reboots the machine. It only returns on
// failure; on success the kernel takes over.
func (rebooter) Restart() error {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("rebooting: %w", err)
	}
	return nil
}
