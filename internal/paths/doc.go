// Package paths centralizes filesystem locations and permission bits used
// by btrbkgen: the user configuration directory, the deployment layout for
// rendered configs and systemd units, and the btrbk service account state
// directory.
package paths
