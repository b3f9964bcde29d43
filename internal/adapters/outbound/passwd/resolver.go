package passwd

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/declue/container-ops/internal/logic/sampler"
)

// Resolver maps UIDs to account names from a passwd-format file. Every
// requested UID always resolves: entries missing from the file keep the
// decimal UID string as their name.
type Resolver struct {
	logger *slog.Logger
	path   string
}

// New creates a resolver reading the given passwd-format file.
func New(logger *slog.Logger, path string) *Resolver {
	return &Resolver{
		logger: logger,
		path:   path,
	}
}

var _ sampler.NameResolver = (*Resolver)(nil)

// ResolveNamesQuery returns a name for every requested UID, keyed by its
// decimal string. Lookup failures degrade to the decimal string itself.
func (r *Resolver) ResolveNamesQuery(ctx context.Context, uids []int32) map[string]string {
	names := make(map[string]string, len(uids))
	wanted := make(map[int64]string, len(uids))

	for _, uid := range uids {
		key := strconv.FormatInt(int64(uid), 10)
		names[key] = key
		wanted[int64(uid)] = key
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.DebugContext(ctx, "passwd file unreadable, using numeric names", "reason", err)

		return names
	}

	for _, line := range strings.Split(string(data), "\n") {
		// name:password:uid:gid:gecos:home:shell
		fields := strings.Split(line, ":")
		if len(fields) < 3 || fields[0] == "" {
			continue
		}

		uid, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			continue
		}

		if key, ok := wanted[uid]; ok {
			names[key] = fields[0]
		}
	}

	return names
}
