package pipeline

import (
	"context"
	"path/filepath"

	"github.com/bitswalk/kbuild/src/kbuild/internal/storage"
	"github.com/bitswalk/kbuild/src/kbuild/internal/workspace"
)

// finishImage compresses and publishes the extracted image as requested
func (r *run) finishImage(ctx context.Context, p *plan) error {
	r.log.Info("Extracted raw image", "image", p.image)

	artifacts := []string{p.image}
	if r.req.Compress {
		compressed, err := workspace.CompressXZ(p.image)
		if err != nil {
			return err
		}
		r.res.Compressed = compressed
		artifacts = append(artifacts, compressed)
		r.log.Info("Compressed raw image", "image", compressed)
	}

	if r.req.Step != StepPublish {
		return nil
	}
	if err := r.transition(StatePublishing); err != nil {
		return err
	}

	backend, err := r.c.backend()
	if err != nil {
		return err
	}
	for _, path := range artifacts {
		key := storage.Key(p.def.Name, r.res.ID, filepath.Base(path))
		info, err := storage.UploadFile(ctx, backend, key, path)
		if err != nil {
			r.rollback(ctx, backend)
			return err
		}
		r.res.Published = append(r.res.Published, info)
		r.log.Info("Published artifact", "key", key, "location", backend.Location(), "size", info.Size)
	}
	return nil
}

// rollback removes the artifacts this run already published so a failed
// publish leaves no partial set behind
func (r *run) rollback(ctx context.Context, backend storage.Backend) {
	for _, info := range r.res.Published {
		if err := backend.Delete(ctx, info.Key); err != nil {
			r.log.Warn("Cannot remove partially published artifact", "key", info.Key, "error", err)
		}
	}
	r.res.Published = nil
}

// backend returns the configured storage, creating it on first use
func (c *Controller) backend() (storage.Backend, error) {
	if c.storage != nil {
		return c.storage, nil
	}
	b, err := storage.New(c.settings.Storage)
	if err != nil {
		return nil, err
	}
	c.storage = b
	return b, nil
}
