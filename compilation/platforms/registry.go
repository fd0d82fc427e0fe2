package platforms

import (
	"fmt"

	"github.com/crytic/unibuild/compilation/types"
)

// defaultPlatformGenerator is a mapping of platform type tag to generator functions which can be used to
// create an instance of the given platform. Each platform which provides a generator in this mapping is
// considered a supported build platform. Items are populated in the init method.
var defaultPlatformGenerator map[types.PlatformType]func() Platform

// probeOrder lists platform type tags in detection priority order. Platform selection tries each entry's
// IsSupported in turn and takes the first match, so more specific detection heuristics must precede
// catch-all ones (solc accepts any `.sol` file and comes last).
var probeOrder []types.PlatformType

// init is called once per inclusion of a package. This method is used on startup to populate
// defaultPlatformGenerator and the detection order for the supported platforms.
func init() {
	// Define a list of platform generators, in detection priority order.
	generators := []func() Platform{
		func() Platform { return NewStandardPlatform() },
		func() Platform { return NewDappPlatform() },
		func() Platform { return NewWafflePlatform() },
		func() Platform { return NewSolcPlatform() },
	}

	// Initialize our platform generator mapping.
	defaultPlatformGenerator = make(map[types.PlatformType]func() Platform)

	// Generate each type of platform to create a mapping for their type tags.
	for _, generator := range generators {
		platformType := generator().Type()

		// If this platform already exists in our mapping, panic. Each platform should have a unique tag.
		if _, platformTypeExists := defaultPlatformGenerator[platformType]; platformTypeExists {
			panic(fmt.Errorf("the build platform '%s' is registered with more than one provider", platformType))
		}

		// Add this entry to our mapping and detection order.
		defaultPlatformGenerator[platformType] = generator
		probeOrder = append(probeOrder, platformType)
	}
}

// FromType obtains a platform instance for the provided platform type tag. Artifacts produced by
// platforms this build does not implement resolve to the generic Standard platform, whose dependency
// predicate always reports false; dependency membership for re-loaded artifacts is driven entirely by the
// session's dependency set.
func FromType(platformType types.PlatformType) Platform {
	if generator, ok := defaultPlatformGenerator[platformType]; ok {
		return generator()
	}
	return NewStandardPlatform()
}

// All returns one instance of every registered platform, in detection priority order.
func All() []Platform {
	platforms := make([]Platform, 0, len(probeOrder))
	for _, platformType := range probeOrder {
		platforms = append(platforms, defaultPlatformGenerator[platformType]())
	}
	return platforms
}

// IsSupportedPlatformType returns a boolean status indicating if a platform type tag has a registered
// implementation within this package.
func IsSupportedPlatformType(platformType types.PlatformType) bool {
	_, ok := defaultPlatformGenerator[platformType]
	return ok
}
