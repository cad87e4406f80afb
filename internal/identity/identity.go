// Package identity renders the host identity records the btrbk service
// account needs: a sudo policy fragment and an authorized_keys file in which
// every key is pinned to the btrbk ssh filter with an explicit role list.
package identity

import (
	"strings"

	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/systemd"
)

// Roles accepted by ssh_filter_btrbk.sh. The filter only ever sees these
// tokens; anything else in a declaration is rejected before deployment.
var Roles = []string{
	"source",
	"target",
	"delete",
	"info",
	"snapshot",
	"send",
	"receive",
	"resume",
}

var roleSet = func() map[string]bool {
	m := make(map[string]bool, len(Roles))
	for _, r := range Roles {
		m[r] = true
	}
	return m
}()

// ValidRole reports whether the role token is in the fixed role set.
func ValidRole(role string) bool {
	return roleSet[role]
}

// AuthorizedKeys renders an authorized_keys file where each declared key is
// wrapped in a forced ssh filter command restricted to the key's roles.
func AuthorizedKeys(filterPath string, keys []instance.SSHKey) (string, error) {
	var sb strings.Builder
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return "", errors.New("empty ssh key entry")
		}
		if strings.ContainsAny(k.Key, "\n\"") {
			return "", errors.Newf("malformed ssh key %q", k.Key)
		}
		if len(k.Roles) == 0 {
			return "", errors.Newf("ssh key %q declares no roles", keyComment(k.Key))
		}

		args := make([]string, 0, len(k.Roles))
		for _, role := range k.Roles {
			if !ValidRole(role) {
				return "", errors.Wrapf(errors.ErrUnknownRole,
					"%q on key %q (valid: %s)", role, keyComment(k.Key), strings.Join(Roles, ", "))
			}
			args = append(args, "--"+role)
		}

		sb.WriteString(`command="`)
		sb.WriteString(filterPath)
		sb.WriteString(" ")
		sb.WriteString(strings.Join(args, " "))
		sb.WriteString(`",restrict `)
		sb.WriteString(k.Key)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// keyComment returns the trailing comment of an ssh public key, falling
// back to a truncated form of the key itself.
func keyComment(key string) string {
	fields := strings.Fields(key)
	if len(fields) >= 3 {
		return fields[len(fields)-1]
	}
	if len(key) > 24 {
		return key[:24] + "..."
	}
	return key
}

// Sudoers renders the sudo policy fragment allowing the service account to
// run btrfs and btrbk as root without a password, which the
// btrfs-progs-sudo backend depends on.
func Sudoers(btrfsPath, btrbkPath string) string {
	account := systemd.ServiceAccount
	return account + " ALL=(root) NOPASSWD: " + btrfsPath + "\n" +
		account + " ALL=(root) NOPASSWD: " + btrbkPath + "\n"
}
