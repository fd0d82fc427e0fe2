package cmd

import (
	"encoding/json"
	"os"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/pkg/errors"
)

// knownConfigKeys lists the JSON keys the project configuration file recognizes, matching the fields of
// platforms.Options. Unknown keys are reported and ignored rather than treated as errors, so configs
// written for newer releases still load.
var knownConfigKeys = map[string]struct{}{
	"exportDir":           {},
	"ignoreCompile":       {},
	"dappIgnore":          {},
	"dappIgnoreCompile":   {},
	"waffleIgnore":        {},
	"waffleIgnoreCompile": {},
	"npxDisable":          {},
	"standardIgnore":      {},
	"solc":                {},
	"solcArgs":            {},
	"solcRemaps":          {},
}

// readProjectConfig reads a project configuration file and overlays its values onto the provided
// options. Keys absent from the file leave the corresponding option untouched.
func readProjectConfig(path string, options *platforms.Options) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}

	// Surface any unrecognized keys before decoding.
	var raw map[string]json.RawMessage
	if err = json.Unmarshal(contents, &raw); err != nil {
		return errors.Wrapf(err, "could not parse config file '%s'", path)
	}
	for key := range raw {
		if _, ok := knownConfigKeys[key]; !ok {
			cmdLogger.Warn("Ignoring unrecognized config key '", key, "' in ", path)
		}
	}

	if err = json.Unmarshal(contents, options); err != nil {
		return errors.Wrapf(err, "could not parse config file '%s'", path)
	}
	return nil
}
