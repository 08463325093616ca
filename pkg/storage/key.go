package storage

import "github.com/unalkalkan/s3provider/pkg/types"

// Key returns the object key a file is stored under.
//
//	[folder/][path/]hash+ext
//
// It depends only on the folder from cfg and the Path, Hash and Ext of f, so
// Delete always targets the object an earlier Upload created as long as those
// fields are unchanged.
func Key(cfg types.ProviderConfig, f *types.File) string {
	pathChunk := ""
	if f.Path != "" {
		pathChunk = f.Path + "/"
	}
	prefix := pathChunk
	if cfg.Folder != "" {
		prefix = cfg.Folder + "/" + pathChunk
	}
	return prefix + f.Hash + f.Ext
}
