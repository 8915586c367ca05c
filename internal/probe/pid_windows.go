//go:build windows

package probe

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func init() {
	platformPIDFinder = windowsPIDFinder{}
}

// windowsPIDFinder parses `netstat -ano` for the listening port's PID,
// then `tasklist` for that PID's image name.
type windowsPIDFinder struct{}

func (windowsPIDFinder) FindPIDs(port int) ([]ProcessHint, error) {
	out, err := exec.Command("netstat", "-ano").Output()
	if err != nil {
		return nil, fmt.Errorf("running netstat: %w", err)
	}

	suffix := fmt.Sprintf(":%d", port)
	seen := make(map[int]struct{})
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}

	var hints []ProcessHint
	for _, pid := range pids {
		hints = append(hints, ProcessHint{PID: pid, Command: imageNameOf(pid)})
	}
	return hints, nil
}

func imageNameOf(pid int) string {
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH").Output()
	if err != nil {
		return ""
	}
	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], `"`)
}
