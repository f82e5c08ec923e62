package watchdog

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"gradewatch/lib/configutil"
)

// loadTargets builds the watch list for one cycle: the configured default
// student plus the users mapping file. The file is re-read every cycle so
// new students can be added without a restart; a missing or broken file
// degrades to the default target only.
func (s *Service) loadTargets(ctx context.Context) []WatchTarget {
	var targets []WatchTarget
	seen := map[string]bool{}

	if s.opts.MyStudentID != "" {
		targets = append(targets, WatchTarget{
			StudentID:     s.opts.MyStudentID,
			DiscordUserID: s.opts.DefaultDiscordUserID,
		})
		seen[s.opts.MyStudentID] = true
	}

	if s.opts.UsersFile == "" {
		return targets
	}

	mapping, err := configutil.ReadConfig[map[string]string](s.opts.UsersFile)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.WarnContext(ctx, "failed to read users file", "file", s.opts.UsersFile, "err", err)
		}
		return targets
	}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		targets = append(targets, WatchTarget{
			StudentID:     id,
			DiscordUserID: mapping[id],
		})
	}
	return targets
}
