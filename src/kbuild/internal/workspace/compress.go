package workspace

import (
	"bufio"
	"io"
	"os"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/ulikunitz/xz"
)

// CompressXZ writes an xz-compressed copy of src next to it as src.xz and
// returns the new path. src is left in place.
func CompressXZ(src string) (string, error) {
	dst := src + ".xz"

	in, err := os.Open(src)
	if err != nil {
		return "", errors.ErrWorkspaceIO.WithMessagef("cannot open %s", src).WithCause(err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.ErrWorkspaceIO.WithMessagef("cannot create %s", dst).WithCause(err)
	}

	if err := writeXZ(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", errors.ErrWorkspaceIO.WithMessagef("failed to compress %s", src).WithCause(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", errors.ErrWorkspaceIO.WithMessagef("failed to write %s", dst).WithCause(err)
	}
	return dst, nil
}

func writeXZ(w io.Writer, r io.Reader) error {
	bw := bufio.NewWriter(w)
	xw, err := xz.NewWriter(bw)
	if err != nil {
		return err
	}
	if _, err := io.Copy(xw, r); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}
