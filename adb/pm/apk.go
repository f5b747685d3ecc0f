package pm

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// APK is one package file to install
type APK struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// OpenAPK describes the APK at path after checking it is a zip
// archive. It is opened again each time it is written.
func OpenAPK(path string) (*APK, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, errors.Errorf("%s: not a regular file", path)
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to read content type", path)
	}
	if !isZip(mtype) {
		return nil, errors.Errorf("%s: not an APK, content type is %s", path, mtype)
	}
	return &APK{
		Name: filepath.Base(path),
		Size: fi.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// isZip is true if m or one of its parents is a zip archive, which
// covers apk and jar
func isZip(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

// totalSize adds up the sizes of apks
func totalSize(apks []*APK) (total int64) {
	for _, apk := range apks {
		total += apk.Size
	}
	return total
}
