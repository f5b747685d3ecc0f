package pm

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
)

// legacyDir is where packages are pushed before "pm install"
const legacyDir = "/data/local/tmp"

// legacyInstall pushes the APK to a temporary file, installs it with
// "pm install" then removes it
func (c *Client) legacyInstall(ctx context.Context, apks []*APK, options []string) (result *InstallResult, err error) {
	defer func() { c.record("legacy_install", err) }()
	if len(apks) != 1 {
		return nil, errors.Errorf("installing %d APKs at once needs API level %d or later", len(apks), legacyAPILevel)
	}
	apk := apks[0]
	remote := path.Join(legacyDir, uuid.New().String()+".apk")

	in, err := apk.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", apk.Name)
	}
	_, err = c.ds.Push(ctx, c.device, in, remote, 0644, time.Now(), c.s.InstallTimeout())
	_ = in.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "pushing %s", apk.Name)
	}
	defer func() {
		if _, rmErr := c.ds.Exec(ctx, c.device, commandLine("rm", []string{"-f", remote}), nil, c.s.CommandTimeout()); rmErr != nil {
			host.Errorf(c, "Failed to remove %s: %v", remote, rmErr)
		}
	}()

	args := append([]string{"install"}, options...)
	args = append(args, remote)
	out, err := c.driver.Run(ctx, args, nil, c.s.InstallTimeout())
	if err != nil {
		return nil, errors.Wrap(err, "pm install")
	}
	result, err = parseLegacyInstallResult(out)
	if err != nil {
		return nil, err
	}
	host.Infof(c, "Installed %s", apk.Name)
	return result, nil
}
