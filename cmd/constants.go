package cmd

// DefaultProjectConfigFilename describes the default config filename for a given project folder.
const DefaultProjectConfigFilename = "unibuild.json"

// TargetFlagDescription describes the target positional argument accepted by the compile command.
const TargetFlagDescription = "path to a project directory, source file, exported artifact, or glob pattern of targets"
