//go:build windows

package supervisor

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	winapi "golang.org/x/sys/windows"
)

func newSysProcAttrForGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: winapi.CREATE_NEW_PROCESS_GROUP}
}

// Windows has no SIGTERM-equivalent soft kill for console processes short
// of taskkill without /F (which only works for apps with a message loop),
// so both graceful and forced termination use /F, matching the teacher.
// /T (kill the whole process tree) is only safe for an owned process: an
// adopted pid isn't guaranteed to be the root of a tree mcpd is allowed to
// tear down.
func terminateGraceful(cmd *exec.Cmd, pid int, owned bool) error {
	if pid <= 0 {
		return nil
	}
	args := []string{"/PID", fmt.Sprint(pid), "/F"}
	if owned {
		args = append(args, "/T")
	}
	return exec.Command("taskkill", args...).Run()
}

func terminateForce(cmd *exec.Cmd, pid int, owned bool) error {
	return terminateGraceful(cmd, pid, owned)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}
