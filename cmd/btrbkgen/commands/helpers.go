package commands

import (
	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
)

// declarationPath resolves the declaration file: the -f flag wins, then the
// settings file, then the default name in the working directory.
func declarationPath() string {
	if declFile != "" {
		return declFile
	}
	if settings != nil && settings.Declaration != "" {
		return settings.Declaration
	}
	return "btrbk.yaml"
}

// loadDeclaration reads and parses the instance declaration file.
func loadDeclaration() (*instance.Decl, error) {
	decl, err := instance.Load(declarationPath())
	if err != nil {
		return nil, errors.NewUserError(err, "check the declaration file path and syntax")
	}
	return decl, nil
}

// selectInstances resolves command arguments against the declaration.
// With no arguments every declared instance is selected.
func selectInstances(decl *instance.Decl, args []string) ([]instance.Instance, error) {
	if len(args) == 0 {
		return decl.Instances, nil
	}

	var selected []instance.Instance
	for _, name := range args {
		inst, err := decl.Get(name)
		if err != nil {
			return nil, errors.NewUserError(err, "run: btrbkgen instances")
		}
		selected = append(selected, *inst)
	}
	return selected, nil
}

// newChecker builds the external configuration checker from the settings.
func newChecker() *btrbk.Checker {
	return &btrbk.Checker{BtrbkPath: settings.BtrbkPath}
}

// truncate shortens a string to maxLen, appending "..." when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
