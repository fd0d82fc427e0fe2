package types

// PlatformType is an integer tag identifying the build platform which produced a session. The tag is
// recorded in exported artifacts so a later import can recover which platform's semantics (dependency
// rules, guessed test commands) applied, without re-running the original tool. Tag values are stable
// across releases and must never be renumbered.
type PlatformType int

const (
	// PlatformTypeNotImplemented is reserved for build platforms without a canonical tag.
	PlatformTypeNotImplemented PlatformType = 0
	// PlatformTypeSolc identifies a direct solc invocation.
	PlatformTypeSolc PlatformType = 1
	// PlatformTypeTruffle identifies the Truffle framework.
	PlatformTypeTruffle PlatformType = 2
	// PlatformTypeEmbark identifies the Embark framework.
	PlatformTypeEmbark PlatformType = 3
	// PlatformTypeDapp identifies the dapptools build system.
	PlatformTypeDapp PlatformType = 4
	// PlatformTypeEtherlime identifies the Etherlime framework.
	PlatformTypeEtherlime PlatformType = 5
	// PlatformTypeEtherscan identifies source fetched from Etherscan.
	PlatformTypeEtherscan PlatformType = 6
	// PlatformTypeVyper identifies a direct vyper invocation.
	PlatformTypeVyper PlatformType = 7
	// PlatformTypeWaffle identifies the Waffle framework.
	PlatformTypeWaffle PlatformType = 8
	// PlatformTypeBrownie identifies the Brownie framework.
	PlatformTypeBrownie PlatformType = 9
	// PlatformTypeSolcStandardJson identifies a solc standard JSON input.
	PlatformTypeSolcStandardJson PlatformType = 10
	// PlatformTypeHardhat identifies the Hardhat framework.
	PlatformTypeHardhat PlatformType = 11

	// PlatformTypeStandard identifies a re-loaded standard export artifact.
	PlatformTypeStandard PlatformType = 100
	// PlatformTypeArchive identifies a re-loaded archive bundling sources with the standard export.
	PlatformTypeArchive PlatformType = 101
)

// String returns the display name of the platform type.
func (t PlatformType) String() string {
	switch t {
	case PlatformTypeSolc:
		return "solc"
	case PlatformTypeTruffle:
		return "Truffle"
	case PlatformTypeEmbark:
		return "Embark"
	case PlatformTypeDapp:
		return "Dapp"
	case PlatformTypeEtherlime:
		return "Etherlime"
	case PlatformTypeEtherscan:
		return "Etherscan"
	case PlatformTypeVyper:
		return "vyper"
	case PlatformTypeWaffle:
		return "Waffle"
	case PlatformTypeBrownie:
		return "Brownie"
	case PlatformTypeSolcStandardJson:
		return "solc_standard_json"
	case PlatformTypeHardhat:
		return "Hardhat"
	case PlatformTypeStandard:
		return "Standard"
	case PlatformTypeArchive:
		return "Archive"
	}
	return "NotImplemented"
}
