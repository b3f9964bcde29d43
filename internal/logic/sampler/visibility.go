package sampler

import (
	"strconv"
	"strings"
)

// Visibility modes controlling which UIDs' processes are sampled.
const (
	VisibilityAll      = "all"
	VisibilityUser     = "user"
	VisibilityUserRoot = "user+root"
)

// ResolveAllowedUIDs computes the UID allow-list. It is a pure function.
//
// An explicit comma-separated UID list overrides the mode; if it parses to an
// empty set, the caller's own UID is used instead. Mode "user" yields the own
// UID, "user+root" adds root, and "all" (the default) returns nil, meaning
// every UID passes.
func ResolveAllowedUIDs(mode, explicitList string, selfUID int32) map[int32]struct{} {
	if strings.TrimSpace(explicitList) != "" {
		allowed := parseUIDList(explicitList)
		if len(allowed) == 0 {
			allowed[selfUID] = struct{}{}
		}

		return allowed
	}

	switch mode {
	case VisibilityUser:
		return map[int32]struct{}{selfUID: {}}
	case VisibilityUserRoot:
		return map[int32]struct{}{selfUID: {}, 0: {}}
	default:
		return nil
	}
}

func parseUIDList(list string) map[int32]struct{} {
	allowed := make(map[int32]struct{})

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		uid, err := strconv.ParseInt(part, 10, 32)
		if err != nil || uid < 0 {
			continue
		}

		allowed[int32(uid)] = struct{}{}
	}

	return allowed
}
