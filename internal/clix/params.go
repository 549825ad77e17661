package clix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"helpdesk/internal/util"
)

// ParseTicketIDs accepts ids as separate arguments or comma separated lists.
func ParseTicketIDs(args []string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, arg := range args {
		for _, raw := range strings.Split(arg, ",") {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				continue
			}
			id, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid ticket ID: %q", trimmed)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one ticket ID is required")
	}
	return ids, nil
}

// ParseDescriptions returns one description per line of --file when the flag
// is set, otherwise one per positional argument.
func ParseDescriptions(flags *pflag.FlagSet, args []string) ([]string, error) {
	path, _ := flags.GetString("file")
	if path != "" {
		lines, err := util.ReadLines(path)
		if err != nil {
			return nil, err
		}
		return lines, nil
	}
	return args, nil
}
