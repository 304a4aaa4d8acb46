package ingest

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// AliasTable maps original sender identities back to role labels. Lookup
// runs against a case-insensitive reverse index (identity → role) built
// once at load time; identities with no alias pass through unchanged.
type AliasTable struct {
	roleByIdentity map[string]string
}

// NewAliasTable builds the reverse index from a role → identity mapping.
// Roles are visited in sorted order so a shared identity resolves
// deterministically.
func NewAliasTable(roles map[string]string) AliasTable {
	idx := make(map[string]string, len(roles))
	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role)
	}
	sort.Strings(names)
	for _, role := range names {
		identity := strings.ToLower(roles[role])
		if _, exists := idx[identity]; !exists {
			idx[identity] = role
		}
	}
	return AliasTable{roleByIdentity: idx}
}

// Resolve returns the role label for a sender identity, or the identity
// unchanged when no alias matches.
func (t AliasTable) Resolve(sender string) string {
	if role, ok := t.roleByIdentity[strings.ToLower(sender)]; ok {
		return role
	}
	return sender
}

// Len reports the number of aliased identities.
func (t AliasTable) Len() int { return len(t.roleByIdentity) }

// LoadAliases reads the role → identity mapping from a JSON file. A
// missing or malformed file degrades to an empty table with a warning; the
// run continues without aliasing.
func LoadAliases(path string, logger *slog.Logger) AliasTable {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("alias config not found, using empty mapping", "path", path, "error", err)
		return NewAliasTable(nil)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		logger.Warn("alias config is not valid JSON, using empty mapping", "path", path, "error", err)
		return NewAliasTable(nil)
	}

	m, ok := repairTree(tree).(map[string]any)
	if !ok {
		logger.Warn("alias config is not an object, using empty mapping", "path", path)
		return NewAliasTable(nil)
	}

	roles := make(map[string]string, len(m))
	for role, v := range m {
		if identity, ok := v.(string); ok {
			roles[role] = identity
		}
	}
	return NewAliasTable(roles)
}
