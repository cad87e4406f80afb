// Package prompt provides interactive selection of declared instances.
package prompt

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
)

// Sentinel errors for instance selection.
var (
	ErrNoInstances        = errors.New("no instances to select from")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// SelectInstance lets the user pick one of the declared instances.
//
// Returns:
//   - ErrNoInstances if the list is empty
//   - The instance if only one exists (auto-selects without prompting)
//   - The interactively selected instance otherwise
//   - ErrSelectionCancelled if the user aborts the finder
func SelectInstance(instances []instance.Instance) (*instance.Instance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	// Auto-select if only one instance
	if len(instances) == 1 {
		return &instances[0], nil
	}

	idx, err := fuzzyfinder.Find(
		instances,
		func(i int) string {
			return fmt.Sprintf("%s (%s)", instances[i].Name, instances[i].Schedule)
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			inst := instances[i]
			preview := fmt.Sprintf("Instance: %s\nSchedule: %s\n\nVolumes:\n", inst.Name, inst.Schedule)
			for _, vol := range inst.Volumes {
				preview += fmt.Sprintf("  %s (%d subvolumes, %d targets)\n",
					vol.Path, len(vol.Subvolumes), len(vol.Targets))
			}
			return preview
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "selecting instance")
	}

	return &instances[idx], nil
}
