package adb

import (
	"strconv"
	"strings"
)

// ProcessIDList is one snapshot of the debuggable processes of a device
type ProcessIDList struct {
	PIDs   []int
	Errors []ErrorLine
}

// ParseProcessIDList parses the payload of track-jdwp, one decimal
// process id per line.
func ParseProcessIDList(text string) *ProcessIDList {
	list := &ProcessIDList{}
	for i, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid < 0 {
			list.Errors = append(list.Errors, ErrorLine{LineIndex: i, RawLine: line, Msg: "not a process id"})
			continue
		}
		list.PIDs = append(list.PIDs, pid)
	}
	return list
}
