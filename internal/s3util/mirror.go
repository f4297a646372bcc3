package s3util

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MirrorResult summarises one MirrorTree call.
type MirrorResult struct {
	Uploaded int
	Skipped  int
	Failed   []string
	Elapsed  time.Duration
}

// MirrorTree uploads every file under root to bucket, keyed by prefix plus
// the slash-separated relative path. Hidden files and directories (lock and
// partial downloads) are skipped, as are objects already present with the
// same size. Individual upload failures are collected in the result; an
// error is returned only when the tree cannot be walked or ctx ends.
func MirrorTree(ctx context.Context, client Client, bucket, prefix, root, runID string) (MirrorResult, error) {
	start := time.Now()
	var res MirrorResult

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := ObjectKey(prefix, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if alreadyUploaded(ctx, client, bucket, key, info.Size()) {
			res.Skipped++
			return nil
		}

		if err := UploadFile(ctx, client, bucket, key, p, runID); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to mirror file")
			res.Failed = append(res.Failed, rel)
			return nil
		}
		res.Uploaded++
		return nil
	})
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("mirror %s: %w", root, err)
	}

	log.Info().
		Str("bucket", bucket).
		Str("prefix", prefix).
		Int("uploaded", res.Uploaded).
		Int("skipped", res.Skipped).
		Int("failed", len(res.Failed)).
		Dur("elapsed", res.Elapsed).
		Msg("Library mirrored to S3")
	return res, nil
}

// ObjectKey joins prefix and a relative filesystem path into an S3 key.
func ObjectKey(prefix, rel string) string {
	rel = filepath.ToSlash(rel)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}
