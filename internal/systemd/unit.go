// Package systemd generates the systemd artifacts btrbkgen deploys: a
// oneshot service and a calendar timer per instance, plus the sysusers and
// tmpfiles declarations for the btrbk service account.
package systemd

import (
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
)

// ServiceAccount is the dedicated user and group btrbk runs as.
const ServiceAccount = "btrbk"

// StateDir is the service account home and state directory.
const StateDir = "/var/lib/btrbk"

// accuracy is the timer coalescing window. Snapshot scheduling does not
// need second precision, and a wide window lets the scheduler batch wakeups.
const accuracy = "10min"

// InstanceUnit holds everything needed to render one instance's service and
// timer.
type InstanceUnit struct {
	// Name is the instance name; units are named btrbk-<Name>.
	Name string
	// Schedule is the OnCalendar expression.
	Schedule string
	// BtrbkPath is the btrbk binary invoked by the service.
	BtrbkPath string
	// ConfPath is the deployed configuration file.
	ConfPath string
}

// ServiceName returns the service unit file name for an instance.
func ServiceName(instance string) string {
	return "btrbk-" + instance + ".service"
}

// TimerName returns the timer unit file name for an instance.
func TimerName(instance string) string {
	return "btrbk-" + instance + ".timer"
}

var serviceTemplate = template.Must(template.New("service").Parse(
	`[Unit]
Description=btrbk snapshot and backup run ({{.Name}})
Documentation=man:btrbk(1)
After=local-fs.target

[Service]
Type=oneshot
User={{.User}}
Group={{.Group}}
ExecStart={{.BtrbkPath}} -c {{.ConfPath}} run
`))

var timerTemplate = template.Must(template.New("timer").Parse(
	`[Unit]
Description=Timer for btrbk instance {{.Name}}

[Timer]
OnCalendar={{.Schedule}}
AccuracySec={{.Accuracy}}
Persistent=true

[Install]
WantedBy=timers.target
`))

// Service renders the oneshot service unit that runs btrbk against the
// instance's deployed configuration.
func Service(u InstanceUnit) (string, error) {
	if err := check(u); err != nil {
		return "", err
	}
	data := struct {
		InstanceUnit
		User  string
		Group string
	}{u, ServiceAccount, ServiceAccount}

	var sb strings.Builder
	if err := serviceTemplate.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "rendering service for %s", u.Name)
	}
	return sb.String(), nil
}

// Timer renders the calendar timer triggering the instance's service.
// Persistent=true catches up runs missed while the machine was down.
func Timer(u InstanceUnit) (string, error) {
	if err := check(u); err != nil {
		return "", err
	}
	data := struct {
		InstanceUnit
		Accuracy string
	}{u, accuracy}

	var sb strings.Builder
	if err := timerTemplate.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "rendering timer for %s", u.Name)
	}
	return sb.String(), nil
}

func check(u InstanceUnit) error {
	if u.Name == "" {
		return errors.New("instance name is empty")
	}
	if strings.ContainsAny(u.Name, " \t\n/") {
		return errors.Newf("instance name %q is not a valid unit name atom", u.Name)
	}
	if u.Schedule == "" {
		return errors.Newf("instance %s: schedule is empty", u.Name)
	}
	// a newline in the schedule would smuggle extra directives into the unit
	for _, r := range u.Schedule {
		if r < 0x20 {
			return errors.Newf("instance %s: schedule %q contains control characters", u.Name, u.Schedule)
		}
	}
	return nil
}

// Sysusers returns the systemd-sysusers declaration creating the btrbk
// service account with its state directory as home.
func Sysusers() string {
	return "u " + ServiceAccount + " - \"btrbk snapshot and backup service\" " + StateDir + "\n"
}

// Tmpfiles returns the systemd-tmpfiles declaration for the private state
// directory.
func Tmpfiles() string {
	return "d " + StateDir + " 0700 " + ServiceAccount + " " + ServiceAccount + " - -\n"
}
