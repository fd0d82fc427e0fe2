package compilation

import (
	"time"

	"github.com/crytic/unibuild/compilation/platforms"
	"github.com/crytic/unibuild/compilation/types"
	"github.com/crytic/unibuild/logging"
	"github.com/crytic/unibuild/utils"
)

// Export serializes the session into the archive schema under the export directory, consulting the
// directory's artifact cache first: when the session hashes identically to the previously exported
// archive for the same target and that archive still exists, the write is skipped. Returns the path of
// the archive, written or reused.
func Export(session *types.Session, platform platforms.Platform, exportDir string, target string) (string, error) {
	logger := logging.GlobalLogger.NewSubLogger("module", logging.COMPILATION_SERVICE)

	if err := utils.MakeDirectory(exportDir); err != nil {
		return "", err
	}

	hash := ComputeArtifactHash(session)

	// Cache failures degrade to an unconditional export rather than failing the operation.
	cache, err := OpenArtifactCache(exportDir)
	if err != nil {
		logger.Warn("Could not open the artifact cache, exporting unconditionally", err)
		cache = nil
	} else {
		defer func() { _ = cache.Close() }()
	}

	if cache != nil {
		if entry := cache.Lookup(target); entry != nil && entry.Hash == hash && utils.FileExists(entry.Path) {
			logger.Debug("Compilation artifacts for ", target, " are unchanged, reusing ", entry.Path)
			return entry.Path, nil
		}
	}

	exportPath, err := platforms.ExportArchive(session, platform, exportDir, target)
	if err != nil {
		return "", err
	}
	logger.Info("Exported compilation artifacts to ", exportPath)

	if cache != nil {
		err = cache.Store(target, &ArtifactCacheEntry{
			Hash:      hash,
			Timestamp: time.Now(),
			Path:      exportPath,
		})
		if err != nil {
			logger.Warn("Could not update the artifact cache", err)
		}
	}
	return exportPath, nil
}
